// Package concierge is the scripted sales chat: a finite-state machine keyed
// by quick-reply values and free text. It has no I/O; the effects it asks
// for (listing projects, submitting a lead) are carried out by the caller.
package concierge

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ngeni/portal/internal/catalog"
)

type State string

const (
	StateWelcome       State = "welcome"
	StateServiceList   State = "service_list"
	StateServiceDetail State = "service_detail"
	StateLeadName      State = "lead_name"
	StateLeadEmail     State = "lead_email"
	StateLeadService   State = "lead_service"
	StateLeadMessage   State = "lead_message"
	StateLeadDone      State = "lead_done"
	StateProjectCheck  State = "project_check"
)

// Quick-reply values. Prefixed values carry a service key.
const (
	ActDiscover      = "discover"
	ActExpert        = "expert"
	ActQuote         = "quote"
	ActCheckProjects = "check_projects"

	prefixService     = "svc_"
	prefixInterested  = "go_"
	prefixLeadService = "lsvc_"
)

const (
	minNameLen    = 2
	minMessageLen = 20
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var ErrNotFound = errors.New("conversation not found")

// Draft is the lead being collected.
type Draft struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Service string `json:"service,omitempty"`
	Message string `json:"message,omitempty"`
}

type Conversation struct {
	ID            string    `json:"id"`
	State         State     `json:"state"`
	Locale        Locale    `json:"locale"`
	UserID        string    `json:"userId,omitempty"`
	ActiveService string    `json:"activeService,omitempty"`
	Draft         Draft     `json:"draft"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Reply struct {
	Text       string        `json:"text"`
	Options    []Option      `json:"options"`
	Projects   []ProjectCard `json:"projects,omitempty"`
	InputError string        `json:"inputError,omitempty"`
}

// Effect is work the engine wants done after a step.
type Effect int

const (
	NoEffect Effect = iota
	// ListProjects: load the caller's projects and render them with ProjectsReply.
	ListProjects
	// SubmitLead: persist Draft as a chatbot lead.
	SubmitLead
)

type Step struct {
	Conversation Conversation
	Reply        Reply
	Effect       Effect
}

// Start opens a conversation. userID and name are empty for anonymous visitors.
func Start(id string, locale Locale, userID, name string) (Conversation, Reply) {
	c := Conversation{ID: id, State: StateWelcome, Locale: locale, UserID: userID}
	t := textFor(locale)

	if userID != "" {
		return c, Reply{
			Text: fmt.Sprintf(t.greetMember, firstName(name)),
			Options: []Option{
				{t.myProjects, ActCheckProjects},
				{t.discover, ActDiscover},
				{t.expert, ActExpert},
			},
		}
	}
	return c, Reply{
		Text: t.greetGuest,
		Options: []Option{
			{t.discover, ActDiscover},
			{t.quote, ActQuote},
			{t.expert, ActExpert},
		},
	}
}

// Act applies a quick-reply value. authenticated is the current caller's
// state, not the one the conversation started with.
func Act(c Conversation, value string, authenticated bool) Step {
	t := textFor(c.Locale)

	if key, ok := serviceKey(value, prefixLeadService); ok {
		c.Draft.Service = key
		c.State = StateLeadMessage
		return Step{Conversation: c, Reply: Reply{
			Text:    fmt.Sprintf(t.chosenService, serviceName(key, c.Locale)),
			Options: []Option{},
		}}
	}

	if key, ok := serviceKey(value, prefixService); ok {
		c.ActiveService = key
		c.State = StateServiceDetail
		svc := mustService(key).In(string(c.Locale))
		return Step{Conversation: c, Reply: Reply{
			Text: "**" + svc.Name + "**\n\n" + svc.Pitch,
			Options: []Option{
				{t.interested, prefixInterested + key},
				{t.otherServices, ActDiscover},
			},
		}}
	}

	if key, ok := serviceKey(value, prefixInterested); ok {
		return startLead(c, key)
	}

	switch value {
	case ActCheckProjects:
		if authenticated {
			c.State = StateProjectCheck
			return Step{Conversation: c, Effect: ListProjects}
		}
	case ActDiscover:
		c.State = StateServiceList
		return Step{Conversation: c, Reply: Reply{
			Text:    t.serviceList,
			Options: serviceOptions(prefixService, c.Locale),
		}}
	case ActExpert, ActQuote:
		return startLead(c, c.ActiveService)
	}

	return Step{Conversation: c, Reply: Reply{
		Text:    t.forwarding,
		Options: []Option{{t.contactTeam, ActExpert}},
	}}
}

func startLead(c Conversation, service string) Step {
	if service != "" {
		c.ActiveService = service
		c.Draft.Service = service
	}
	c.State = StateLeadName
	return Step{Conversation: c, Reply: Reply{Text: textFor(c.Locale).askName, Options: []Option{}}}
}

// Say applies free text in the current state. Invalid input keeps the state
// and sets Reply.InputError.
func Say(c Conversation, input string) Step {
	t := textFor(c.Locale)
	text := strings.TrimSpace(input)

	switch c.State {
	case StateLeadName:
		if utf8.RuneCountInString(text) < minNameLen {
			return rejected(c, t.nameTooShort)
		}
		c.Draft.Name = text
		c.State = StateLeadEmail
		return Step{Conversation: c, Reply: Reply{
			Text:    fmt.Sprintf(t.askEmail, firstName(text)),
			Options: []Option{},
		}}

	case StateLeadEmail:
		if !emailShape.MatchString(text) {
			return rejected(c, t.badEmail)
		}
		c.Draft.Email = text
		if c.Draft.Service == "" {
			c.Draft.Service = c.ActiveService
		}
		if c.Draft.Service != "" {
			c.State = StateLeadMessage
			return Step{Conversation: c, Reply: Reply{Text: t.askMessage, Options: []Option{}}}
		}
		c.State = StateLeadService
		return Step{Conversation: c, Reply: Reply{
			Text:    t.askService,
			Options: serviceOptions(prefixLeadService, c.Locale),
		}}

	case StateLeadMessage:
		if n := utf8.RuneCountInString(text); n < minMessageLen {
			return rejected(c, fmt.Sprintf(t.messageTooShort, n))
		}
		c.Draft.Message = text
		c.State = StateLeadDone
		return Step{
			Conversation: c,
			Reply: Reply{
				Text:    fmt.Sprintf(t.done, firstName(c.Draft.Name), c.Draft.Email),
				Options: []Option{{t.exploreServices, ActDiscover}},
			},
			Effect: SubmitLead,
		}
	}

	return Step{Conversation: c, Reply: Reply{
		Text:    t.stillLearning,
		Options: []Option{{t.contactTeam, ActExpert}},
	}}
}

// ProjectsReply renders the answer to a project check.
func ProjectsReply(locale Locale, cards []ProjectCard) Reply {
	t := textFor(locale)
	if len(cards) == 0 {
		return Reply{Text: t.noProjects, Options: []Option{{t.contactTeam, ActExpert}}}
	}
	return Reply{
		Text:     fmt.Sprintf(t.projects, len(cards)),
		Options:  []Option{{t.expert, ActExpert}},
		Projects: cards,
	}
}

func rejected(c Conversation, msg string) Step {
	return Step{Conversation: c, Reply: Reply{InputError: msg, Options: []Option{}}}
}

func serviceKey(value, prefix string) (string, bool) {
	key, ok := strings.CutPrefix(value, prefix)
	if !ok {
		return "", false
	}
	_, known := catalog.Lookup(key)
	return key, known
}

func mustService(key string) catalog.Service {
	s, _ := catalog.Lookup(key)
	return s
}

func serviceName(key string, l Locale) string {
	return mustService(key).In(string(l)).Name
}

func serviceOptions(prefix string, l Locale) []Option {
	all := catalog.All()
	out := make([]Option, 0, len(all))
	for _, s := range all {
		out = append(out, Option{Label: s.In(string(l)).Name, Value: prefix + s.Key})
	}
	return out
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return ""
}

type StartRequest struct {
	Locale string `json:"locale" binding:"omitempty,max=35"`
}

type ActRequest struct {
	ConversationID string `json:"conversationId" binding:"required,uuid"`
	Value          string `json:"value" binding:"required,max=64"`
}

type SayRequest struct {
	ConversationID string `json:"conversationId" binding:"required,uuid"`
	Text           string `json:"text" binding:"required,max=5000"`
}

// Turn is what every concierge procedure returns.
type Turn struct {
	ConversationID string `json:"conversationId"`
	State          State  `json:"state"`
	Locale         Locale `json:"locale"`
	Reply          Reply  `json:"reply"`
}
