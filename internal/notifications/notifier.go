package notifications

import (
	"context"

	"github.com/ngeni/portal/internal/domain/lead"
)

// Notifier tells the sales team about a freshly captured lead.
type Notifier interface {
	NotifyNewLead(ctx context.Context, l lead.Lead) error
}
