package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/reporting-auth/internal/events"
)

// AuditService writes a structured audit line for every auth event.
// Entries carry identity and outcome only, never credentials.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to all auth events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventLoginThrottled,
		events.EventPasswordResetRequested,
		events.EventPasswordChanged,
	} {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.logger.Info("audit",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("email", event.Email),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload))
	return nil
}
