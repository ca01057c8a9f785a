package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/caterpay/internal/app/service/eventlog"
	"github.com/fatflowers/caterpay/internal/app/service/reconciliation"
	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/pkg/config"
	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/metrics"
	"github.com/fatflowers/caterpay/pkg/types"
)

// Outcome is what the HTTP layer reports for a delivery.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNoOp    Outcome = "noop"
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDuplicate is a redelivery of an event already handled.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeDeferred asks the provider to redeliver later.
	OutcomeDeferred Outcome = "deferred"
	// OutcomeOrphaned is acknowledged although no record ever matched.
	OutcomeOrphaned Outcome = "orphaned"
	OutcomeFailed   Outcome = "failed"
)

type Result struct {
	Outcome Outcome   `json:"outcome"`
	Kind    EventKind `json:"kind"`
	Error   string    `json:"error,omitempty"`
}

type Verifier interface {
	VerifyStripe(body []byte, header string) (*stripe.Event, error)
	VerifyCoinbase(body []byte, header string) error
}

// Ingestor verifies, classifies and applies provider webhooks.
type Ingestor struct {
	verifier    Verifier
	store       Store
	events      *eventlog.Service
	log         *zap.SugaredLogger
	retryWindow time.Duration
	now         func() time.Time
}

func NewIngestor(cfg *config.Config, verifier Verifier, store Store, events *eventlog.Service, log *zap.SugaredLogger) *Ingestor {
	return &Ingestor{
		verifier:    verifier,
		store:       store,
		events:      events,
		log:         log,
		retryWindow: cfg.Webhook.RetryWindow,
		now:         time.Now,
	}
}

// HandleStripe processes a raw Stripe delivery. A types.ErrRecordNotReady
// error asks the caller to answer with a retryable status.
func (i *Ingestor) HandleStripe(ctx context.Context, body []byte, signature string) (*Result, error) {
	ev, err := i.verifier.VerifyStripe(body, signature)
	if err != nil {
		return nil, err
	}
	d, err := ParseStripe(ev, body)
	if err != nil {
		return nil, err
	}
	return i.ingest(ctx, d)
}

func (i *Ingestor) HandleCoinbase(ctx context.Context, body []byte, signature string) (*Result, error) {
	if err := i.verifier.VerifyCoinbase(body, signature); err != nil {
		return nil, err
	}
	d, err := ParseCoinbase(body)
	if err != nil {
		return nil, err
	}
	return i.ingest(ctx, d)
}

func (i *Ingestor) ingest(ctx context.Context, d *Delivery) (*Result, error) {
	log := logctx.FromCtx(ctx, i.log).With(
		"provider", d.Provider, "event_id", d.EventID, "event_type", d.EventType, "kind", d.Event.Kind())
	log.Infow("webhook_received", "user_id", d.UserID)

	res := &Result{Kind: d.Event.Kind()}
	defer func() {
		metrics.IncWebhookEvent(string(d.Provider), string(res.Kind), string(res.Outcome))
	}()

	stored, inserted, err := i.events.Record(ctx, &models.WebhookEvent{
		Provider:        d.Provider,
		ProviderEventID: d.EventID,
		EventType:       d.EventType,
		TraceID:         logctx.TraceID(ctx),
		EventTime:       d.CreatedAt,
		Data:            datatypes.JSON(rawJSON(d.Raw)),
	})
	if err != nil {
		res.Outcome = OutcomeFailed
		return nil, err
	}
	if !inserted && stored.Status == models.WebhookEventStatusHandled {
		res.Outcome = OutcomeDuplicate
		log.Infow("webhook_duplicate_ignored")
		return res, nil
	}

	outcome, err := d.Event.apply(ctx, i.store)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		i.events.Finish(ctx, stored.ID, models.WebhookEventStatusHandleFailed, res)
		log.Errorw("webhook_apply_failed", "error", err)
		return nil, err
	}

	status := models.WebhookEventStatusHandled
	switch {
	case d.Event.Kind() == KindIgnored:
		res.Outcome = OutcomeIgnored
	case outcome == reconciliation.OutcomeApplied:
		res.Outcome = OutcomeApplied
	case outcome == reconciliation.OutcomeNoOp:
		res.Outcome = OutcomeNoOp
	case outcome == reconciliation.OutcomeNotFound && i.withinRetryWindow(d):
		res.Outcome = OutcomeDeferred
		status = models.WebhookEventStatusDeferred
	default:
		res.Outcome = OutcomeOrphaned
		log.Warnw("webhook_orphaned", "age", i.now().Sub(d.CreatedAt).String())
	}
	i.events.Finish(ctx, stored.ID, status, res)

	if res.Outcome == OutcomeDeferred {
		log.Warnw("webhook_deferred", "retry_window", i.retryWindow.String())
		return res, fmt.Errorf("%s %s: %w", d.Provider, d.EventID, types.ErrRecordNotReady)
	}
	log.Infow("webhook_handled", "outcome", res.Outcome)
	return res, nil
}

func (i *Ingestor) withinRetryWindow(d *Delivery) bool {
	return i.now().Sub(d.CreatedAt) < i.retryWindow
}

// rawJSON keeps the delivery body when it is valid JSON, so the jsonb column
// never rejects the audit row.
func rawJSON(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	b, _ := json.Marshal(string(raw))
	return b
}
