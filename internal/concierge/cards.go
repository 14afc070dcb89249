package concierge

import (
	"math"
	"time"

	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
)

// ProjectCard is the progress summary shown for one project in the chat.
type ProjectCard struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Percent  int    `json:"percent"`
	DaysLeft *int   `json:"daysLeft,omitempty"`
	Urgent   bool   `json:"urgent"`
}

const urgentDays = 7

func Card(p project.ListItem, now time.Time) ProjectCard {
	c := ProjectCard{ID: p.ID, Title: p.Title, Total: len(p.Tasks)}
	for _, t := range p.Tasks {
		if t.Status == task.StatusDone {
			c.Done++
		}
	}
	if c.Total > 0 {
		c.Percent = int(math.Round(float64(c.Done) / float64(c.Total) * 100))
	}
	if p.EndDate != nil {
		days := int(math.Ceil(p.EndDate.Sub(now).Hours() / 24))
		c.DaysLeft = &days
		c.Urgent = days <= urgentDays
	}
	return c
}

func Cards(items []project.ListItem, now time.Time) []ProjectCard {
	out := make([]ProjectCard, 0, len(items))
	for _, p := range items {
		out = append(out, Card(p, now))
	}
	return out
}
