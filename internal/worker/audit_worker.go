package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/events"
)

// StartAuditWorker subscribes an audit-trail logger to every domain event.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}

	eventTypes := []events.EventType{
		events.EventUserRegistered,
		events.EventUserLoggedIn,
		events.EventUserDeleted,
		events.EventPostCreated,
		events.EventPostUpdated,
		events.EventPostDeleted,
	}

	audit := logger.Named("audit")
	for _, eventType := range eventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			fields := []zap.Field{
				zap.String("event_id", event.ID.String()),
				zap.String("event_type", string(event.Type)),
				zap.String("subject_id", event.SubjectID.String()),
				zap.Time("timestamp", event.Timestamp),
			}
			if event.ActorID != nil {
				fields = append(fields, zap.String("actor_id", event.ActorID.String()))
			}
			audit.Info("domain event", fields...)
			return nil
		})
	}
}
