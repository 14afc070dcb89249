// Package invoice derives the simulated billing schedule shown on a project.
package invoice

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ngeni/portal/internal/domain/project"
)

type Status string

const (
	StatusPaid    Status = "PAID"
	StatusPending Status = "PENDING"
)

type Invoice struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	LabelEN string  `json:"labelEn"`
	Amount  float64 `json:"amount"`
	Status  Status  `json:"status"`
	Date    string  `json:"date"`
}

type Summary struct {
	Invoices    []Invoice `json:"invoices"`
	Paid        float64   `json:"paid"`
	Pending     float64   `json:"pending"`
	PaidPercent int       `json:"paidPercent"`
}

type milestone struct {
	label, labelEN string
	share          float64
}

var schedule = [3]milestone{
	{"Acompte démarrage (40%)", "Down payment (40%)", 0.40},
	{"Livraison intermédiaire (35%)", "Milestone delivery (35%)", 0.35},
	{"Solde final (25%)", "Final balance (25%)", 0.25},
}

const dateLayout = "2006-01-02"

// For builds the three-step schedule. A project without a positive budget has none.
func For(p project.Project) Summary {
	s := Summary{Invoices: []Invoice{}}
	if p.Budget == nil || *p.Budget <= 0 {
		return s
	}
	budget := *p.Budget

	base := p.CreatedAt
	if p.StartDate != nil {
		base = *p.StartDate
	}
	final := base.AddDate(0, 0, 60)
	if p.EndDate != nil {
		final = *p.EndDate
	}
	dates := [3]time.Time{base, base.AddDate(0, 0, 30), final}

	seed := idSeed(p.ID)
	for i, m := range schedule {
		status := StatusPaid
		if i == len(schedule)-1 && p.Status != project.StatusCompleted {
			status = StatusPending
		}
		inv := Invoice{
			ID:      fmt.Sprintf("WB-%s-%03d", seed, i+1),
			Label:   m.label,
			LabelEN: m.labelEN,
			Amount:  math.Round(budget * m.share),
			Status:  status,
			Date:    dates[i].UTC().Format(dateLayout),
		}
		s.Invoices = append(s.Invoices, inv)
		if status == StatusPaid {
			s.Paid += inv.Amount
		} else {
			s.Pending += inv.Amount
		}
	}

	if total := s.Paid + s.Pending; total > 0 {
		s.PaidPercent = int(math.Round(s.Paid / total * 100))
	}
	return s
}

func idSeed(id string) string {
	if len(id) > 4 {
		id = id[len(id)-4:]
	}
	return strings.ToUpper(id)
}
