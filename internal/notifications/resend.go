package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/ngeni/portal/internal/catalog"
	"github.com/ngeni/portal/internal/domain/lead"
)

const resendEndpoint = "https://api.resend.com/emails"

type ResendConfig struct {
	APIKey   string
	From     string
	To       string
	Endpoint string // defaults to the public Resend API
	Client   *http.Client
}

// ResendConfigured reports whether key looks like a real Resend key.
// Anything else means notifications are skipped.
func ResendConfigured(key string) bool {
	return strings.HasPrefix(key, "re_")
}

type ResendNotifier struct {
	cfg ResendConfig
}

func NewResendNotifier(cfg ResendConfig) *ResendNotifier {
	if cfg.Endpoint == "" {
		cfg.Endpoint = resendEndpoint
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ResendNotifier{cfg: cfg}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

var leadEmail = template.Must(template.New("lead").Parse(`<div style="font-family:sans-serif;max-width:600px;margin:0 auto">
<h2>Nouveau message de contact</h2>
<p>Source : {{.Source}}</p>
<table>
<tr><td>Nom</td><td>{{.Name}}</td></tr>
<tr><td>Email</td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
{{if .Phone}}<tr><td>Téléphone</td><td>{{.Phone}}</td></tr>{{end}}
{{if .Company}}<tr><td>Entreprise</td><td>{{.Company}}</td></tr>{{end}}
<tr><td>Service</td><td>{{.Service}}</td></tr>
</table>
<p style="white-space:pre-wrap">{{.Message}}</p>
<p><a href="mailto:{{.Email}}">Répondre à {{.Name}}</a></p>
</div>`))

type leadEmailData struct {
	Name, Email, Phone, Company, Service, Message, Source string
}

// serviceLabel is the French catalogue name, the team reads these mails in French.
func serviceLabel(key *string) string {
	if key == nil || *key == "" {
		return "Non spécifié"
	}
	if s, ok := catalog.Lookup(*key); ok {
		return s.FR.Name
	}
	return *key
}

func (n *ResendNotifier) NotifyNewLead(ctx context.Context, l lead.Lead) error {
	label := serviceLabel(l.Service)

	var html bytes.Buffer
	err := leadEmail.Execute(&html, leadEmailData{
		Name:    l.Name,
		Email:   l.Email,
		Phone:   deref(l.Phone),
		Company: deref(l.Company),
		Service: label,
		Message: l.Message,
		Source:  string(l.Source),
	})
	if err != nil {
		return fmt.Errorf("render lead email: %w", err)
	}

	body, err := json.Marshal(resendRequest{
		From:    n.cfg.From,
		To:      []string{n.cfg.To},
		ReplyTo: l.Email,
		Subject: fmt.Sprintf("[NGENI] Nouveau contact: %s (%s)", l.Name, label),
		HTML:    html.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)

	resp, err := n.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: resend status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}
