package task

import (
	"errors"
	"testing"
	"time"
)

func TestPermissiveAllowsEveryJump(t *testing.T) {
	p := Permissive{}

	for _, from := range Statuses {
		for _, to := range Statuses {
			if !p.Allow(from, to) {
				t.Errorf("permissive rejected %s -> %s", from, to)
			}
		}
	}

	if p.Allow(StatusTodo, Status("ARCHIVED")) {
		t.Errorf("unknown status should be rejected")
	}
}

func TestStrictOnlyAllowsNeighbours(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusTodo, StatusInProgress, true},
		{StatusInProgress, StatusDone, true},
		{StatusDone, StatusInProgress, true},
		{StatusInProgress, StatusTodo, true},
		{StatusDone, StatusDone, true},
		{StatusTodo, StatusDone, false},
		{StatusDone, StatusTodo, false},
	}

	for _, tt := range tests {
		if got := (Strict{}).Allow(tt.from, tt.to); got != tt.want {
			t.Errorf("Strict.Allow(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCheckTransitionWrapsSentinel(t *testing.T) {
	if err := CheckTransition(Strict{}, StatusTodo, StatusInProgress); err != nil {
		t.Fatalf("neighbour move: %v", err)
	}
	err := CheckTransition(Strict{}, StatusTodo, StatusDone)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition", err)
	}
}

func TestSortPriorityDescThenOldest(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []Task{
		{ID: "a", Priority: PriorityLow, CreatedAt: base},
		{ID: "b", Priority: PriorityUrgent, CreatedAt: base.Add(time.Hour)},
		{ID: "c", Priority: PriorityHigh, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "d", Priority: PriorityHigh, CreatedAt: base},
	}

	Sort(tasks)

	want := []string{"b", "d", "c", "a"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, tasks[i].ID, id)
		}
	}
}

func TestBuildBoardKeepsEmptyColumns(t *testing.T) {
	board := BuildBoard("p1", []Task{
		{ID: "a", Status: StatusDone, Priority: PriorityLow},
		{ID: "b", Status: StatusDone, Priority: PriorityHigh},
	})

	if len(board.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(board.Columns))
	}
	if board.Columns[0].Status != StatusTodo || len(board.Columns[0].Tasks) != 0 {
		t.Fatalf("todo column should be empty, got %+v", board.Columns[0])
	}
	done := board.Columns[2]
	if len(done.Tasks) != 2 || done.Tasks[0].ID != "b" {
		t.Fatalf("done column not sorted: %+v", done.Tasks)
	}
}

func TestTouchesOnlyStatus(t *testing.T) {
	status := StatusDone
	title := "Rename"

	if !(UpdateRequest{ID: "x", Status: &status}).TouchesOnlyStatus() {
		t.Fatalf("status-only update should pass")
	}
	if (UpdateRequest{ID: "x", Status: &status, Title: &title}).TouchesOnlyStatus() {
		t.Fatalf("status + title should not pass")
	}
	if (UpdateRequest{ID: "x"}).TouchesOnlyStatus() {
		t.Fatalf("empty update should not pass")
	}
}
