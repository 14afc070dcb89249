package notifications

import (
	"context"
	"log/slog"

	"github.com/ngeni/portal/internal/domain/lead"
)

// LogNotifier stands in for the email provider when none is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyNewLead(ctx context.Context, l lead.Lead) error {
	n.log.InfoContext(ctx, "notification.new_lead",
		"lead_id", l.ID,
		"source", string(l.Source),
		"service", deref(l.Service),
	)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
