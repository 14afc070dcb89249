package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/observability"
)

type TasksRepo struct {
	repo
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{repo{pool: pool, prom: prom}}
}

const taskColumns = `id, title, description, status, priority, project_id, due_date, created_at, updated_at`

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var status, priority string
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&t.ProjectID,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	return t, err
}

func taskErr(err error) error {
	switch {
	case isNoRows(err):
		return task.ErrNotFound
	case isForeignKeyViolation(err):
		return project.ErrNotFound
	}
	return err
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	var out task.Task
	err := r.observe("tasks.create", func() error {
		var err error
		out, err = scanTask(r.pool.QueryRow(ctx,
			`INSERT INTO tasks (id, title, description, status, priority, project_id, due_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING `+taskColumns,
			t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.ProjectID,
			t.DueDate, t.CreatedAt, t.UpdatedAt,
		))
		return err
	})
	if err != nil {
		return task.Task{}, taskErr(err)
	}
	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	err := r.observe("tasks.get_by_id", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return err
	})
	if err != nil {
		return task.Task{}, taskErr(err)
	}
	return t, nil
}

func (r *TasksRepo) query(ctx context.Context, op, query string, args ...any) ([]task.Task, error) {
	out := []task.Task{}
	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	task.Sort(out)
	return out, nil
}

func (r *TasksRepo) List(ctx context.Context, f task.ListFilter) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`

	var conds []string
	var args []any
	pos := 1

	if f.ProjectID != "" {
		conds = append(conds, fmt.Sprintf("project_id = $%d", pos))
		args = append(args, f.ProjectID)
		pos++
	}
	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", pos))
		args = append(args, string(*f.Status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	return r.query(ctx, "tasks.list", query, args...)
}

func (r *TasksRepo) ListByProjects(ctx context.Context, projectIDs []string) (map[string][]task.Task, error) {
	out := make(map[string][]task.Task, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	ts, err := r.query(ctx, "tasks.list_by_projects",
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ANY($1::uuid[])`,
		projectIDs,
	)
	if err != nil {
		return nil, err
	}
	for _, t := range ts {
		out[t.ProjectID] = append(out[t.ProjectID], t)
	}
	return out, nil
}

func (r *TasksRepo) Update(ctx context.Context, req task.UpdateRequest) (task.Task, error) {
	var status, priority *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	if req.Priority != nil {
		p := string(*req.Priority)
		priority = &p
	}

	var t task.Task
	err := r.observe("tasks.update", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks
			 SET title       = COALESCE($2, title),
			     description = COALESCE($3, description),
			     project_id  = COALESCE($4::uuid, project_id),
			     status      = COALESCE($5, status),
			     priority    = COALESCE($6, priority),
			     due_date    = COALESCE($7, due_date),
			     updated_at  = now()
			 WHERE id = $1
			 RETURNING `+taskColumns,
			req.ID, req.Title, req.Description, req.ProjectID, status, priority, req.DueDate,
		))
		return err
	})
	if err != nil {
		return task.Task{}, taskErr(err)
	}
	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (r *TasksRepo) CountByStatus(ctx context.Context, projectID string) (map[task.Status]int, error) {
	counts := map[task.Status]int{}
	err := r.observe("tasks.count_by_status", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT status, COUNT(*) FROM tasks WHERE project_id = $1 GROUP BY status`,
			projectID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts[task.Status(status)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
