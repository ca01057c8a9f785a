package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/tool"
)

// Service keeps the audit trail of verified webhook deliveries, one row per
// provider event id.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

var Module = fx.Options(
	fx.Provide(New),
)

// Record inserts e in status received unless the provider event was already
// recorded, in which case the stored row is returned with inserted=false.
func (s *Service) Record(ctx context.Context, e *models.WebhookEvent) (stored *models.WebhookEvent, inserted bool, err error) {
	if e.ID == "" {
		e.ID = tool.GenerateUUIDV7()
	}
	e.Status = models.WebhookEventStatusReceived
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to record webhook event: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return e, true, nil
	}

	var existing models.WebhookEvent
	if err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", e.Provider, e.ProviderEventID).
		First(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("failed to load webhook event: %w", err)
	}
	return &existing, false, nil
}

// Finish stores the processing status and result. Failures are logged only:
// the state transition already committed and replays are idempotent.
func (s *Service) Finish(ctx context.Context, id string, status models.WebhookEventStatus, result any) {
	updates := map[string]any{"status": status}
	if result != nil {
		if b, err := json.Marshal(result); err == nil {
			updates["result"] = datatypes.JSON(b)
		}
	}
	if tid := logctx.TraceID(ctx); tid != "" {
		updates["trace_id"] = tid
	}
	if err := s.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to save webhook event result: %v", err)
	}
}
