package lead

import (
	"errors"
	"strings"
	"time"

	"github.com/ngeni/portal/internal/domain/user"
)

type Source string

const (
	SourceChatbot     Source = "chatbot"
	SourceContactForm Source = "contact_form"
	SourceLanding     Source = "landing"
)

// ServiceKeys are the catalogue entries a lead may ask about.
var ServiceKeys = []string{
	"rpa",
	"agents",
	"saas",
	"web",
	"medical",
	"agriculture",
	"education",
	"energy",
	"construction",
	"consulting",
}

func ValidService(key string) bool {
	for _, k := range ServiceKeys {
		if k == key {
			return true
		}
	}
	return false
}

type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Message   string    `json:"message"`
	Service   *string   `json:"service,omitempty"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// Receipt is what a public caller gets back from a submission.
// Lead is nil when the submission was absorbed by the dedupe window.
type Receipt struct {
	Success bool     `json:"success"`
	Lead    *Created `json:"lead,omitempty"`
}

type Created struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Service   *string   `json:"service,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l Lead) Created() *Created {
	return &Created{ID: l.ID, Name: l.Name, Email: l.Email, Service: l.Service, CreatedAt: l.CreatedAt}
}

var ErrNotFound = errors.New("lead not found")

type CreateRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,phone"`
	Company string `json:"company" binding:"omitempty,max=200"`
	Message string `json:"message" binding:"required,min=20,max=5000"`
	Service string `json:"service" binding:"omitempty,oneof=rpa agents saas web medical agriculture education energy construction consulting"`
	Source  Source `json:"source" binding:"omitempty,oneof=chatbot contact_form landing"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = user.NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Company = strings.TrimSpace(r.Company)
	r.Message = strings.TrimSpace(r.Message)
	if r.Source == "" {
		r.Source = SourceContactForm
	}
}

// Lead builds the record to persist. Empty optional strings are stored as null.
func (r CreateRequest) Lead() Lead {
	return Lead{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   optional(r.Phone),
		Company: optional(r.Company),
		Message: r.Message,
		Service: optional(r.Service),
		Source:  r.Source,
	}
}

type IDRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type ListFilter struct {
	Service string
	Source  string
}

type ListRequest struct {
	Limit   int    `json:"limit" binding:"omitempty,min=1,max=100"`
	Cursor  string `json:"cursor" binding:"omitempty"`
	Service string `json:"service" binding:"omitempty,max=50"`
	Source  string `json:"source" binding:"omitempty,max=50"`
}

const DefaultLimit = 50

func (r *ListRequest) Normalize() {
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	r.Service = strings.TrimSpace(r.Service)
	r.Source = strings.TrimSpace(r.Source)
}

func (r ListRequest) Filter() ListFilter {
	return ListFilter{Service: r.Service, Source: r.Source}
}

type Page struct {
	Leads      []Lead `json:"leads"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Count is one group of a breakdown. Key is empty for leads without a service.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Stats struct {
	Total      int     `json:"total"`
	ByService  []Count `json:"byService"`
	BySource   []Count `json:"bySource"`
	RecentWeek int     `json:"recentWeek"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
