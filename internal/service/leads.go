package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/cache"
	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/notifications"
	"github.com/ngeni/portal/internal/rpc"
	"github.com/ngeni/portal/internal/utils"
)

const (
	DefaultDedupWindow = 24 * time.Hour
	statsKey           = "leads:stats"
	recentWindow       = 7 * 24 * time.Hour
)

type LeadServiceConfig struct {
	DedupWindow time.Duration
	StatsTTL    time.Duration
}

type LeadService struct {
	leads    LeadStore
	notifier notifications.Notifier
	stats    *cache.Cache[lead.Stats]
	window   time.Duration
	now      Clock
	log      *slog.Logger

	// goAsync runs the post-commit hook. Tests swap it for a synchronous call.
	goAsync func(func())
}

func NewLeadService(leads LeadStore, notifier notifications.Notifier, cfg LeadServiceConfig, log *slog.Logger) *LeadService {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &LeadService{
		leads:    leads,
		notifier: notifier,
		stats:    cache.New[lead.Stats](cfg.StatsTTL),
		window:   cfg.DedupWindow,
		now:      systemClock,
		log:      log,
		goAsync:  func(fn func()) { go fn() },
	}
}

var errLeadNotFound = apperr.NotFound("Lead not found.")

// Create stores a lead unless the same email already left one inside the
// dedupe window. Either way the caller sees success.
func (s *LeadService) Create(ctx context.Context, _ auth.Caller, req lead.CreateRequest) (lead.Receipt, error) {
	now := s.now()

	dup, err := s.leads.ExistsSince(ctx, req.Email, now.Add(-s.window))
	if err != nil {
		return lead.Receipt{}, internal("check recent leads", err)
	}
	if dup {
		s.log.InfoContext(ctx, "lead deduplicated", "source", string(req.Source))
		return lead.Receipt{Success: true}, nil
	}

	l := req.Lead()
	l.ID = uuid.NewString()
	l.CreatedAt = now

	saved, err := s.leads.Create(ctx, l)
	if err != nil {
		return lead.Receipt{}, internal("create lead", err)
	}
	s.stats.Invalidate(statsKey)

	s.afterCreate(ctx, saved)

	return lead.Receipt{Success: true, Lead: saved.Created()}, nil
}

// afterCreate fires the notification. Its failure is logged and never reaches the caller.
func (s *LeadService) afterCreate(ctx context.Context, l lead.Lead) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.goAsync(func() {
		if err := s.notifier.NotifyNewLead(detached, l); err != nil {
			s.log.WarnContext(detached, "lead notification failed",
				"lead_id", l.ID,
				"err", err,
			)
		}
	})
}

// GetAll pages through leads newest first. NextCursor is empty on the last page.
func (s *LeadService) GetAll(ctx context.Context, _ auth.Caller, req lead.ListRequest) (lead.Page, error) {
	var after *utils.LeadCursor
	if req.Cursor != "" {
		c, err := utils.DecodeLeadCursor(req.Cursor)
		if err != nil {
			return lead.Page{}, apperr.BadRequest("Invalid cursor.")
		}
		after = &c
	}

	rows, err := s.leads.List(ctx, req.Filter(), after, req.Limit+1)
	if err != nil {
		return lead.Page{}, internal("list leads", err)
	}

	page := lead.Page{Leads: rows}
	if len(rows) > req.Limit {
		page.Leads = rows[:req.Limit]
		last := page.Leads[len(page.Leads)-1]
		next, err := utils.EncodeLeadCursor(last.CreatedAt, last.ID)
		if err != nil {
			return lead.Page{}, internal("encode cursor", err)
		}
		page.NextCursor = next
	}
	if page.Leads == nil {
		page.Leads = []lead.Lead{}
	}
	return page, nil
}

func (s *LeadService) GetByID(ctx context.Context, _ auth.Caller, req lead.IDRequest) (lead.Lead, error) {
	l, err := s.leads.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, lead.ErrNotFound) {
			return lead.Lead{}, errLeadNotFound
		}
		return lead.Lead{}, internal("load lead", err)
	}
	return l, nil
}

func (s *LeadService) Delete(ctx context.Context, _ auth.Caller, req lead.IDRequest) (Success, error) {
	if err := s.leads.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, lead.ErrNotFound) {
			return Success{}, errLeadNotFound
		}
		return Success{}, internal("delete lead", err)
	}
	s.stats.Invalidate(statsKey)
	return succeeded, nil
}

// GetStats is cached briefly; create and delete drop the cached copy.
func (s *LeadService) GetStats(ctx context.Context, _ auth.Caller, _ rpc.Empty) (lead.Stats, error) {
	st, err := s.stats.GetOrLoad(ctx, statsKey, func(ctx context.Context) (lead.Stats, error) {
		return s.leads.Stats(ctx, s.now().Add(-recentWindow))
	})
	if err != nil {
		return lead.Stats{}, internal("lead stats", err)
	}
	return st, nil
}
