package task

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// TransitionPolicy decides whether a status change is accepted.
type TransitionPolicy interface {
	Allow(from, to Status) bool
}

// Permissive accepts any move between the three statuses, DONE -> TODO included.
// This is the behaviour clients rely on today.
type Permissive struct{}

func (Permissive) Allow(from, to Status) bool {
	return from.Valid() && to.Valid()
}

// Strict accepts only no-op moves and moves between neighbouring columns.
type Strict struct{}

func (Strict) Allow(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return abs(column(from)-column(to)) <= 1
}

// CheckTransition wraps ErrIllegalTransition when p refuses from -> to.
func CheckTransition(p TransitionPolicy, from, to Status) error {
	if p.Allow(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// NewTransitionPolicy returns Strict when strict is set, Permissive otherwise.
func NewTransitionPolicy(strict bool) TransitionPolicy {
	if strict {
		return Strict{}
	}
	return Permissive{}
}

func column(s Status) int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Column is one kanban lane.
type Column struct {
	Status Status `json:"status"`
	Tasks  []Task `json:"tasks"`
}

type Board struct {
	ProjectID string   `json:"projectId"`
	Columns   []Column `json:"columns"`
}

// BuildBoard groups tasks into the three lanes, each lane sorted.
func BuildBoard(projectID string, tasks []Task) Board {
	lanes := make(map[Status][]Task, len(Statuses))
	for _, t := range tasks {
		lanes[t.Status] = append(lanes[t.Status], t)
	}

	board := Board{ProjectID: projectID, Columns: make([]Column, 0, len(Statuses))}
	for _, s := range Statuses {
		lane := lanes[s]
		if lane == nil {
			lane = []Task{}
		}
		Sort(lane)
		board.Columns = append(board.Columns, Column{Status: s, Tasks: lane})
	}
	return board
}
