package concierge

import (
	"strings"
	"testing"
	"time"

	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
)

func TestStartGreetsByIdentity(t *testing.T) {
	_, guest := Start("c1", English, "", "")
	if !strings.Contains(guest.Text, "NGENI") {
		t.Fatalf("guest greeting = %q", guest.Text)
	}
	if got := values(guest.Options); got != "discover,quote,expert" {
		t.Fatalf("guest options = %s", got)
	}

	c, member := Start("c2", French, "u1", "Awa Diallo")
	if c.State != StateWelcome || c.UserID != "u1" {
		t.Fatalf("conversation = %+v", c)
	}
	if !strings.Contains(member.Text, "**Awa**") {
		t.Fatalf("member greeting = %q", member.Text)
	}
	if got := values(member.Options); got != "check_projects,discover,expert" {
		t.Fatalf("member options = %s", got)
	}
}

func TestActTransitions(t *testing.T) {
	base := Conversation{ID: "c", State: StateWelcome, Locale: English}

	tests := []struct {
		name    string
		from    Conversation
		value   string
		authed  bool
		state   State
		service string
		effect  Effect
	}{
		{name: "discover", from: base, value: "discover", state: StateServiceList},
		{name: "service detail", from: base, value: "svc_web", state: StateServiceDetail},
		{name: "interested presets service", from: base, value: "go_rpa", state: StateLeadName, service: "rpa"},
		{name: "expert without service", from: base, value: "expert", state: StateLeadName},
		{name: "quote keeps active service", from: Conversation{State: StateServiceDetail, Locale: English, ActiveService: "saas"}, value: "quote", state: StateLeadName, service: "saas"},
		{name: "lead service", from: Conversation{State: StateLeadService, Locale: English}, value: "lsvc_energy", state: StateLeadMessage, service: "energy"},
		{name: "check projects authed", from: base, value: "check_projects", authed: true, state: StateProjectCheck, effect: ListProjects},
		{name: "check projects anonymous", from: base, value: "check_projects", state: StateWelcome},
		{name: "unknown value", from: base, value: "dance", state: StateWelcome},
		{name: "unknown service key", from: base, value: "svc_cooking", state: StateWelcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := Act(tt.from, tt.value, tt.authed)
			if step.Conversation.State != tt.state {
				t.Fatalf("state = %s, want %s", step.Conversation.State, tt.state)
			}
			if step.Conversation.Draft.Service != tt.service {
				t.Fatalf("draft service = %q, want %q", step.Conversation.Draft.Service, tt.service)
			}
			if step.Effect != tt.effect {
				t.Fatalf("effect = %d, want %d", step.Effect, tt.effect)
			}
		})
	}
}

func TestUnknownActionForwards(t *testing.T) {
	step := Act(Conversation{State: StateServiceList, Locale: French}, "nope", false)
	if !strings.HasPrefix(step.Reply.Text, "Je transmets") {
		t.Fatalf("reply = %q", step.Reply.Text)
	}
	if values(step.Reply.Options) != "expert" {
		t.Fatalf("options = %s", values(step.Reply.Options))
	}
}

func TestDiscoverListsAllServices(t *testing.T) {
	step := Act(Conversation{Locale: English}, "discover", false)
	if len(step.Reply.Options) != 10 {
		t.Fatalf("options = %d, want 10", len(step.Reply.Options))
	}
	if step.Reply.Options[3].Label != "Premium Web & Mobile" || step.Reply.Options[3].Value != "svc_web" {
		t.Fatalf("option[3] = %+v", step.Reply.Options[3])
	}
}

func TestLeadFlowWithoutService(t *testing.T) {
	c := Act(Conversation{ID: "c", State: StateWelcome, Locale: English}, "expert", false).Conversation

	step := Say(c, "A")
	if step.Conversation.State != StateLeadName || step.Reply.InputError != "Name too short" {
		t.Fatalf("short name: %+v", step)
	}

	step = Say(c, "  Jane Doe ")
	if step.Conversation.State != StateLeadEmail || !strings.Contains(step.Reply.Text, "**Jane**") {
		t.Fatalf("name step: %+v", step)
	}
	c = step.Conversation

	if step = Say(c, "jane@nowhere"); step.Reply.InputError != "Invalid email" {
		t.Fatalf("bad email accepted: %+v", step)
	}

	step = Say(c, "jane@example.com")
	if step.Conversation.State != StateLeadService || len(step.Reply.Options) != 10 {
		t.Fatalf("email step: %+v", step)
	}
	c = Act(step.Conversation, "lsvc_web", false).Conversation

	step = Say(c, "too short")
	if step.Conversation.State != StateLeadMessage || step.Reply.InputError != "Too short (9/20 chars min)" {
		t.Fatalf("short message: %+v", step)
	}
	if step.Effect != NoEffect {
		t.Fatalf("rejected input must not submit")
	}

	step = Say(c, "We need a new booking site for our clinic.")
	if step.Conversation.State != StateLeadDone || step.Effect != SubmitLead {
		t.Fatalf("message step: %+v", step)
	}
	d := step.Conversation.Draft
	if d.Name != "Jane Doe" || d.Email != "jane@example.com" || d.Service != "web" {
		t.Fatalf("draft = %+v", d)
	}
	if !strings.Contains(step.Reply.Text, "jane@example.com") {
		t.Fatalf("done reply = %q", step.Reply.Text)
	}
}

func TestEmailSkipsServiceWhenChosen(t *testing.T) {
	c := Conversation{State: StateLeadEmail, Locale: French, ActiveService: "rpa", Draft: Draft{Name: "Ali"}}
	step := Say(c, "ali@example.com")
	if step.Conversation.State != StateLeadMessage {
		t.Fatalf("state = %s", step.Conversation.State)
	}
	if step.Conversation.Draft.Service != "rpa" {
		t.Fatalf("service = %q", step.Conversation.Draft.Service)
	}
}

func TestSayOutsideLeadFlow(t *testing.T) {
	for _, s := range []State{StateWelcome, StateServiceList, StateLeadDone, StateProjectCheck} {
		step := Say(Conversation{State: s, Locale: English}, "hello there")
		if step.Conversation.State != s {
			t.Fatalf("%s: state changed to %s", s, step.Conversation.State)
		}
		if !strings.HasPrefix(step.Reply.Text, "Still learning") {
			t.Fatalf("%s: reply = %q", s, step.Reply.Text)
		}
	}
}

func TestProjectsReply(t *testing.T) {
	empty := ProjectsReply(English, nil)
	if !strings.HasPrefix(empty.Text, "No active projects") {
		t.Fatalf("empty = %q", empty.Text)
	}

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(72 * time.Hour)
	items := []project.ListItem{{
		Project: project.Project{ID: "p1", Title: "Site", EndDate: &end},
		Tasks: []task.Summary{
			{Status: task.StatusDone},
			{Status: task.StatusDone},
			{Status: task.StatusTodo},
		},
	}}

	r := ProjectsReply(French, Cards(items, now))
	if r.Text != "Voici l'état de vos **1 projet(s)** :" {
		t.Fatalf("text = %q", r.Text)
	}
	card := r.Projects[0]
	if card.Percent != 67 || card.Done != 2 || card.Total != 3 {
		t.Fatalf("card = %+v", card)
	}
	if card.DaysLeft == nil || *card.DaysLeft != 3 || !card.Urgent {
		t.Fatalf("deadline = %v urgent=%v", card.DaysLeft, card.Urgent)
	}
}

func TestNegotiateLocale(t *testing.T) {
	tests := []struct {
		explicit, header string
		want             Locale
	}{
		{"en", "", English},
		{"", "en-US,en;q=0.9", English},
		{"", "fr-CA", French},
		{"fr", "en", French},
		{"", "de-DE", French},
		{"", "", French},
		{"!!", "en-GB", English},
	}
	for _, tt := range tests {
		if got := NegotiateLocale(tt.explicit, tt.header); got != tt.want {
			t.Errorf("NegotiateLocale(%q, %q) = %s, want %s", tt.explicit, tt.header, got, tt.want)
		}
	}
}

func values(opts []Option) string {
	vs := make([]string, len(opts))
	for i, o := range opts {
		vs[i] = o.Value
	}
	return strings.Join(vs, ",")
}
