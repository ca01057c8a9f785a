package models

import (
	"time"

	"github.com/fatflowers/caterpay/pkg/types"

	"gorm.io/datatypes"
)

type WebhookEventStatus string

const (
	WebhookEventStatusReceived     WebhookEventStatus = "received"
	WebhookEventStatusHandled      WebhookEventStatus = "handled"
	WebhookEventStatusDeferred     WebhookEventStatus = "deferred"
	WebhookEventStatusHandleFailed WebhookEventStatus = "handle_failed"
)

type WebhookEvent struct {
	ID              string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider        types.PaymentProvider `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:idx_webhook_provider_event,priority:1" json:"provider"`
	ProviderEventID string                `gorm:"column:provider_event_id;type:varchar(255);not null;uniqueIndex:idx_webhook_provider_event,priority:2" json:"providerEventId"`
	EventType       string                `gorm:"column:event_type;type:varchar(128);not null" json:"eventType"`
	TraceID         string                `gorm:"column:trace_id;type:varchar(128)" json:"traceId"`
	// EventTime is when the provider created the event.
	EventTime time.Time          `gorm:"column:event_time" json:"eventTime"`
	Data      datatypes.JSON     `gorm:"column:data;type:jsonb" json:"data"`
	Result    *datatypes.JSON    `gorm:"column:result;type:jsonb" json:"result"`
	Status    WebhookEventStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (WebhookEvent) TableName() string { return "webhook_event" }
