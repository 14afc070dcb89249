package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/actorctx"
	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/concierge"
	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/rpc"
)

// ConversationStore keeps concierge conversations between turns.
// Load returns concierge.ErrNotFound for unknown or expired ids.
type ConversationStore interface {
	Load(ctx context.Context, id string) (concierge.Conversation, error)
	Save(ctx context.Context, c concierge.Conversation) error
}

type ConciergeService struct {
	store    ConversationStore
	users    UserStore
	projects *ProjectService
	leads    *LeadService
	validate *validator.Validate
	now      Clock
	log      *slog.Logger
}

func NewConciergeService(store ConversationStore, users UserStore, projects *ProjectService, leads *LeadService, log *slog.Logger) *ConciergeService {
	if log == nil {
		log = slog.Default()
	}
	return &ConciergeService{
		store:    store,
		users:    users,
		projects: projects,
		leads:    leads,
		validate: rpc.NewValidator(),
		now:      systemClock,
		log:      log,
	}
}

var errConversationNotFound = apperr.NotFound("Conversation not found.")

func (s *ConciergeService) Start(ctx context.Context, c auth.Caller, req concierge.StartRequest) (concierge.Turn, error) {
	locale := concierge.NegotiateLocale(req.Locale, actorctx.AcceptLanguage(ctx))

	var userID, name string
	if c.Authenticated() {
		u, err := s.users.GetByID(ctx, c.UserID())
		switch {
		case err == nil:
			userID, name = u.ID, u.Name
		case !errors.Is(err, user.ErrNotFound):
			return concierge.Turn{}, internal("load user", err)
		}
	}

	conv, reply := concierge.Start(uuid.NewString(), locale, userID, name)
	return s.save(ctx, conv, reply)
}

func (s *ConciergeService) Act(ctx context.Context, c auth.Caller, req concierge.ActRequest) (concierge.Turn, error) {
	conv, err := s.load(ctx, c, req.ConversationID)
	if err != nil {
		return concierge.Turn{}, err
	}

	step := concierge.Act(conv, req.Value, c.Authenticated())
	return s.finish(ctx, c, step)
}

func (s *ConciergeService) Say(ctx context.Context, c auth.Caller, req concierge.SayRequest) (concierge.Turn, error) {
	conv, err := s.load(ctx, c, req.ConversationID)
	if err != nil {
		return concierge.Turn{}, err
	}

	step := concierge.Say(conv, req.Text)
	return s.finish(ctx, c, step)
}

// load hides conversations started by another signed-in user.
func (s *ConciergeService) load(ctx context.Context, c auth.Caller, id string) (concierge.Conversation, error) {
	conv, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, concierge.ErrNotFound) {
			return concierge.Conversation{}, errConversationNotFound
		}
		return concierge.Conversation{}, internal("load conversation", err)
	}
	if conv.UserID != "" && conv.UserID != c.UserID() {
		return concierge.Conversation{}, errConversationNotFound
	}
	return conv, nil
}

func (s *ConciergeService) finish(ctx context.Context, c auth.Caller, step concierge.Step) (concierge.Turn, error) {
	switch step.Effect {
	case concierge.ListProjects:
		items, err := s.projects.GetAll(ctx, c, rpc.Empty{})
		if err != nil {
			return concierge.Turn{}, err
		}
		step.Reply = concierge.ProjectsReply(step.Conversation.Locale, concierge.Cards(items, s.now()))
	case concierge.SubmitLead:
		s.submit(ctx, c, step.Conversation.Draft)
	}
	return s.save(ctx, step.Conversation, step.Reply)
}

// submit files the collected lead. The visitor always sees the thank-you
// reply, so failures only reach the log.
func (s *ConciergeService) submit(ctx context.Context, c auth.Caller, d concierge.Draft) {
	req := lead.CreateRequest{
		Name:    d.Name,
		Email:   d.Email,
		Service: d.Service,
		Message: d.Message,
		Source:  lead.SourceChatbot,
	}
	req.Normalize()

	if err := s.validate.Struct(req); err != nil {
		s.log.WarnContext(ctx, "concierge lead rejected", "err", err)
		return
	}
	if _, err := s.leads.Create(ctx, c, req); err != nil {
		s.log.WarnContext(ctx, "concierge lead not saved", "err", err)
	}
}

func (s *ConciergeService) save(ctx context.Context, conv concierge.Conversation, reply concierge.Reply) (concierge.Turn, error) {
	conv.UpdatedAt = s.now()
	if err := s.store.Save(ctx, conv); err != nil {
		return concierge.Turn{}, internal("save conversation", err)
	}
	if reply.Options == nil {
		reply.Options = []concierge.Option{}
	}
	return concierge.Turn{
		ConversationID: conv.ID,
		State:          conv.State,
		Locale:         conv.Locale,
		Reply:          reply,
	}, nil
}
