package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Subsystem = "caterpay"

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Provider round trips (500ms - 5s) ---
	750, 1000, 1500, 2000, 3000, 5000,

	// --- Slow provider calls, bounded by providers.timeout ---
	10000, 20000, 30000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	ID          string
	Name        string
	Description string
	Type        string
	Args        []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case "counter_vec":
		return prometheus.NewCounterVec(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "counter":
		return prometheus.NewCounter(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	case "gauge_vec":
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "histogram_vec":
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets}, m.Args)
	case "summary_vec":
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	}
	return nil
}

// registerOrReuse registers c, returning the already registered collector when
// an identical one exists (fx apps and tests may build several engines).
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector, log Logger, name string) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		if log != nil {
			log.Errorf("%s could not be registered in Prometheus, err=%v", name, err)
		}
	}
	return c
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "provider call latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype", "result"},
}

var MetricsWebhookEvents = &Metric{
	ID:          "webhookEvents",
	Name:        "webhook_events_total",
	Description: "Webhook deliveries by provider, event kind and outcome.",
	Type:        "counter_vec",
	Args:        []string{"provider", "kind", "outcome"},
}

var MetricsCheckoutSessions = &Metric{
	ID:          "checkoutSessions",
	Name:        "checkout_sessions_total",
	Description: "Checkout creations by provider, intent and result.",
	Type:        "counter_vec",
	Args:        []string{"provider", "intent", "result"},
}

var (
	businessOnce     sync.Once
	bpDur            *prometheus.HistogramVec
	webhookEvents    *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
)

func business() {
	businessOnce.Do(func() {
		reg := prometheus.DefaultRegisterer
		bpDur = registerOrReuse(reg, NewMetric(MetricsBusinessProcess, Subsystem), nil, MetricsBusinessProcess.Name).(*prometheus.HistogramVec)
		webhookEvents = registerOrReuse(reg, NewMetric(MetricsWebhookEvents, Subsystem), nil, MetricsWebhookEvents.Name).(*prometheus.CounterVec)
		checkoutSessions = registerOrReuse(reg, NewMetric(MetricsCheckoutSessions, Subsystem), nil, MetricsCheckoutSessions.Name).(*prometheus.CounterVec)
	})
}

// ObserveProviderCall records how long a provider API call took.
func ObserveProviderCall(provider, op string, start time.Time, err error) {
	business()
	result := "ok"
	if err != nil {
		result = "error"
	}
	bpDur.WithLabelValues(provider, op, result).Observe(MillisecondsSince(start))
}

func IncWebhookEvent(provider, kind, outcome string) {
	business()
	webhookEvents.WithLabelValues(provider, kind, outcome).Inc()
}

func IncCheckoutSession(provider, intent, result string) {
	business()
	checkoutSessions.WithLabelValues(provider, intent, result).Inc()
}
