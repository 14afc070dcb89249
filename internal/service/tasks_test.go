package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/domain/user"
)

func TestClientTaskUpdateRules(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.tasks, f.projects, nil)
	alice := f.user(t, "alice@example.com", user.RoleClient)
	bob := f.user(t, "bob@example.com", user.RoleClient)
	p := f.project(t, alice.ID, "Alice site")
	tk := f.task(t, p.ID, task.StatusTodo)

	tests := []struct {
		name string
		user user.User
		req  task.UpdateRequest
		want apperr.Kind
	}{
		{
			name: "owner renames",
			user: alice,
			req:  task.UpdateRequest{ID: tk.ID, Title: ptr("Renamed")},
			want: apperr.KindBadRequest,
		},
		{
			name: "owner sends status and priority",
			user: alice,
			req:  task.UpdateRequest{ID: tk.ID, Status: ptr(task.StatusDone), Priority: ptr(task.PriorityHigh)},
			want: apperr.KindBadRequest,
		},
		{
			name: "other client moves status",
			user: bob,
			req:  task.UpdateRequest{ID: tk.ID, Status: ptr(task.StatusDone)},
			want: apperr.KindForbidden,
		},
		{
			name: "unknown task",
			user: alice,
			req:  task.UpdateRequest{ID: "0b9f1a52-6c1e-4d55-8f55-3d1c0f7b2a10", Status: ptr(task.StatusDone)},
			want: apperr.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), callerFor(tt.user), tt.req)
			wantKind(t, err, tt.want)
		})
	}

	got, err := svc.Update(context.Background(), callerFor(alice), task.UpdateRequest{ID: tk.ID, Status: ptr(task.StatusDone)})
	if err != nil {
		t.Fatalf("status-only update: %v", err)
	}
	if got.Status != task.StatusDone || got.Title != tk.Title {
		t.Fatalf("updated = %+v", got)
	}
}

func TestStrictTransitionPolicy(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.tasks, f.projects, task.Strict{})
	admin := f.user(t, "admin@example.com", user.RoleAdmin)
	alice := f.user(t, "alice@example.com", user.RoleClient)
	p := f.project(t, alice.ID, "Alice site")
	tk := f.task(t, p.ID, task.StatusTodo)

	_, err := svc.Update(context.Background(), callerFor(admin), task.UpdateRequest{ID: tk.ID, Status: ptr(task.StatusDone)})
	wantKind(t, err, apperr.KindBadRequest)
	details, ok := apperr.From(err).Details.(map[string]string)
	if !ok || details["from"] != "TODO" || details["to"] != "DONE" {
		t.Fatalf("details = %#v", apperr.From(err).Details)
	}
	if !errors.Is(err, task.ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition in chain", err)
	}

	if _, err := svc.Update(context.Background(), callerFor(admin), task.UpdateRequest{ID: tk.ID, Status: ptr(task.StatusInProgress)}); err != nil {
		t.Fatalf("neighbour move: %v", err)
	}
}

func TestPermissivePolicyReopensDoneTask(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.tasks, f.projects, nil)
	alice := f.user(t, "alice@example.com", user.RoleClient)
	p := f.project(t, alice.ID, "Alice site")
	tk := f.task(t, p.ID, task.StatusDone)

	got, err := svc.Update(context.Background(), callerFor(alice), task.UpdateRequest{ID: tk.ID, Status: ptr(task.StatusTodo)})
	if err != nil || got.Status != task.StatusTodo {
		t.Fatalf("reopen = %+v, %v", got, err)
	}
}

func TestAdminMovesTaskBetweenProjects(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.tasks, f.projects, nil)
	admin := f.user(t, "admin@example.com", user.RoleAdmin)
	alice := f.user(t, "alice@example.com", user.RoleClient)
	from := f.project(t, alice.ID, "From")
	to := f.project(t, alice.ID, "To")
	tk := f.task(t, from.ID, task.StatusTodo)

	_, err := svc.Update(context.Background(), callerFor(admin), task.UpdateRequest{
		ID: tk.ID, ProjectID: ptr("0b9f1a52-6c1e-4d55-8f55-3d1c0f7b2a10"),
	})
	wantKind(t, err, apperr.KindNotFound)

	got, err := svc.Update(context.Background(), callerFor(admin), task.UpdateRequest{ID: tk.ID, ProjectID: &to.ID})
	if err != nil || got.ProjectID != to.ID {
		t.Fatalf("move = %+v, %v", got, err)
	}
}

func TestCreateTaskAndBoard(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.tasks, f.projects, nil)
	admin := f.user(t, "admin@example.com", user.RoleAdmin)
	alice := f.user(t, "alice@example.com", user.RoleClient)
	p := f.project(t, alice.ID, "Alice site")

	req := task.CreateRequest{Title: "Wireframes", ProjectID: p.ID}
	req.Normalize()
	created, err := svc.Create(context.Background(), callerFor(admin), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != task.StatusTodo || created.Priority != task.PriorityMedium {
		t.Fatalf("defaults = %s %s", created.Status, created.Priority)
	}
	f.task(t, p.ID, task.StatusDone)

	_, err = svc.Create(context.Background(), callerFor(admin), task.CreateRequest{
		Title: "Lost", ProjectID: "0b9f1a52-6c1e-4d55-8f55-3d1c0f7b2a10", Status: task.StatusTodo, Priority: task.PriorityLow,
	})
	wantKind(t, err, apperr.KindNotFound)

	done, err := svc.GetByProject(context.Background(), callerFor(alice), task.ListByProjectRequest{ProjectID: p.ID, Status: task.StatusDone})
	if err != nil || len(done) != 1 {
		t.Fatalf("GetByProject(DONE) = %d, %v", len(done), err)
	}

	board, err := svc.GetBoard(context.Background(), callerFor(alice), project.ProjectIDRequest{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if len(board.Columns) != len(task.Statuses) {
		t.Fatalf("columns = %d", len(board.Columns))
	}

	if _, err := svc.Delete(context.Background(), callerFor(admin), task.IDRequest{ID: created.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = svc.Delete(context.Background(), callerFor(admin), task.IDRequest{ID: created.ID})
	wantKind(t, err, apperr.KindNotFound)
}
