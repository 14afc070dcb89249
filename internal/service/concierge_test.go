package service

import (
	"context"
	"testing"
	"time"

	"github.com/ngeni/portal/internal/actorctx"
	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/concierge"
	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/repo/memory"
)

func newConcierge(f *fixture) *ConciergeService {
	projects := NewProjectService(f.projects, f.tasks, f.users)
	leads := syncLeadService(f.leads, nil, time.Now().UTC())
	return NewConciergeService(memory.NewConversations(time.Hour), f.users, projects, leads, nil)
}

func TestConciergeCollectsLead(t *testing.T) {
	f := newFixture()
	svc := newConcierge(f)
	ctx := context.Background()
	anon := auth.Anonymous()

	turn, err := svc.Start(ctx, anon, concierge.StartRequest{Locale: "en"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if turn.State != concierge.StateWelcome || turn.Locale != concierge.English {
		t.Fatalf("start = %+v", turn)
	}
	id := turn.ConversationID

	steps := []struct {
		act, say string
		want     concierge.State
	}{
		{act: concierge.ActQuote, want: concierge.StateLeadName},
		{say: "Efua Owusu", want: concierge.StateLeadEmail},
		{say: "efua@example.com", want: concierge.StateLeadService},
		{act: "lsvc_agents", want: concierge.StateLeadMessage},
		{say: "We want an agent that answers our clinic's patients.", want: concierge.StateLeadDone},
	}
	for _, st := range steps {
		if st.act != "" {
			turn, err = svc.Act(ctx, anon, concierge.ActRequest{ConversationID: id, Value: st.act})
		} else {
			turn, err = svc.Say(ctx, anon, concierge.SayRequest{ConversationID: id, Text: st.say})
		}
		if err != nil {
			t.Fatalf("step %+v: %v", st, err)
		}
		if turn.State != st.want {
			t.Fatalf("state = %s, want %s (reply %+v)", turn.State, st.want, turn.Reply)
		}
	}

	leads, err := f.leads.List(ctx, lead.ListFilter{}, nil, 10)
	if err != nil || len(leads) != 1 {
		t.Fatalf("leads = %d, %v", len(leads), err)
	}
	got := leads[0]
	if got.Source != lead.SourceChatbot || got.Email != "efua@example.com" || got.Service == nil || *got.Service != "agents" {
		t.Fatalf("lead = %+v", got)
	}
}

func TestConciergeRejectsShortInput(t *testing.T) {
	f := newFixture()
	svc := newConcierge(f)
	ctx := context.Background()

	turn, _ := svc.Start(ctx, auth.Anonymous(), concierge.StartRequest{Locale: "en"})
	turn, err := svc.Act(ctx, auth.Anonymous(), concierge.ActRequest{ConversationID: turn.ConversationID, Value: concierge.ActExpert})
	if err != nil {
		t.Fatalf("Act: %v", err)
	}

	turn, err = svc.Say(ctx, auth.Anonymous(), concierge.SayRequest{ConversationID: turn.ConversationID, Text: "J"})
	if err != nil {
		t.Fatalf("Say: %v", err)
	}
	if turn.State != concierge.StateLeadName || turn.Reply.InputError == "" {
		t.Fatalf("turn = %+v", turn)
	}
}

func TestConciergeHidesOtherUsersConversation(t *testing.T) {
	f := newFixture()
	svc := newConcierge(f)
	alice := f.user(t, "alice@example.com", user.RoleClient)
	bob := f.user(t, "bob@example.com", user.RoleClient)
	ctx := context.Background()

	turn, err := svc.Start(ctx, callerFor(alice), concierge.StartRequest{Locale: "en"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for name, c := range map[string]auth.Caller{"other user": callerFor(bob), "anonymous": auth.Anonymous()} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Act(ctx, c, concierge.ActRequest{ConversationID: turn.ConversationID, Value: concierge.ActDiscover})
			wantKind(t, err, apperr.KindNotFound)
		})
	}

	_, err = svc.Say(ctx, callerFor(alice), concierge.SayRequest{ConversationID: "0b9f1a52-6c1e-4d55-8f55-3d1c0f7b2a10", Text: "hi"})
	wantKind(t, err, apperr.KindNotFound)
}

func TestConciergeListsCallerProjects(t *testing.T) {
	f := newFixture()
	svc := newConcierge(f)
	alice := f.user(t, "alice@example.com", user.RoleClient)
	bob := f.user(t, "bob@example.com", user.RoleClient)
	p := f.project(t, alice.ID, "Alice site")
	f.task(t, p.ID, task.StatusDone)
	f.task(t, p.ID, task.StatusTodo)
	f.project(t, bob.ID, "Bob app")

	ctx := actorctx.WithAcceptLanguage(context.Background(), "en-GB,en;q=0.8")
	turn, err := svc.Start(ctx, callerFor(alice), concierge.StartRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if turn.Locale != concierge.English {
		t.Fatalf("locale = %s", turn.Locale)
	}

	turn, err = svc.Act(ctx, callerFor(alice), concierge.ActRequest{ConversationID: turn.ConversationID, Value: concierge.ActCheckProjects})
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if turn.State != concierge.StateProjectCheck {
		t.Fatalf("state = %s", turn.State)
	}
	cards := turn.Reply.Projects
	if len(cards) != 1 || cards[0].ID != p.ID || cards[0].Done != 1 || cards[0].Total != 2 || cards[0].Percent != 50 {
		t.Fatalf("cards = %+v", cards)
	}
}

func TestConciergeCheckProjectsAnonymousForwards(t *testing.T) {
	f := newFixture()
	svc := newConcierge(f)
	ctx := context.Background()

	turn, _ := svc.Start(ctx, auth.Anonymous(), concierge.StartRequest{Locale: "fr"})
	turn, err := svc.Act(ctx, auth.Anonymous(), concierge.ActRequest{ConversationID: turn.ConversationID, Value: concierge.ActCheckProjects})
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if turn.State != concierge.StateWelcome || len(turn.Reply.Projects) != 0 {
		t.Fatalf("turn = %+v", turn)
	}
	if len(turn.Reply.Options) != 1 || turn.Reply.Options[0].Value != concierge.ActExpert {
		t.Fatalf("options = %+v", turn.Reply.Options)
	}
}
