package consumer

import (
	"context"
	"log/slog"
)

// AuditHandler writes one structured log line per roster change.
type AuditHandler struct {
	logger *slog.Logger
}

// NewAuditHandler constructs a handler writing to logger.
func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	return &AuditHandler{logger: logger.With("component", "roster_audit")}
}

// Handle logs the roster event.
func (h *AuditHandler) Handle(ctx context.Context, msg Message) error {
	h.logger.InfoContext(ctx, "roster changed",
		"event_id", msg.EventID,
		"event_type", msg.EventType,
		"activity", msg.Event.Activity,
		"email", msg.Event.Email,
		"participant_count", msg.Event.ParticipantCount,
		"occurred_at", msg.Event.OccurredAt,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)
	return nil
}
