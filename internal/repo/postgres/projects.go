package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/observability"
)

type ProjectsRepo struct {
	repo
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{repo{pool: pool, prom: prom}}
}

const projectColumns = `id, title, description, status, client_id, budget, start_date, end_date, created_at, updated_at`

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	var status string
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&status,
		&p.ClientID,
		&p.Budget,
		&p.StartDate,
		&p.EndDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.Status = project.Status(status)
	return p, err
}

// projectErr maps constraint failures onto domain errors.
func projectErr(err error) error {
	switch {
	case isNoRows(err):
		return project.ErrNotFound
	case isForeignKeyViolation(err):
		return user.ErrNotFound
	case isCheckViolation(err):
		return project.ErrInvalidDates
	}
	return err
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	var out project.Project
	err := r.observe("projects.create", func() error {
		var err error
		out, err = scanProject(r.pool.QueryRow(ctx,
			`INSERT INTO projects (id, title, description, status, client_id, budget, start_date, end_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING `+projectColumns,
			p.ID, p.Title, p.Description, string(p.Status), p.ClientID, p.Budget,
			p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt,
		))
		return err
	})
	if err != nil {
		return project.Project{}, projectErr(err)
	}
	return out, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	var p project.Project
	err := r.observe("projects.get_by_id", func() error {
		var err error
		p, err = scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
		return err
	})
	if err != nil {
		return project.Project{}, projectErr(err)
	}
	return p, nil
}

func (r *ProjectsRepo) List(ctx context.Context, clientID *string) ([]project.Project, error) {
	out := []project.Project{}
	err := r.observe("projects.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+projectColumns+`
			 FROM projects
			 WHERE $1::uuid IS NULL OR client_id = $1::uuid
			 ORDER BY updated_at DESC, id DESC`,
			clientID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes only the fields the request sets.
func (r *ProjectsRepo) Update(ctx context.Context, req project.UpdateRequest) (project.Project, error) {
	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}

	var p project.Project
	err := r.observe("projects.update", func() error {
		var err error
		p, err = scanProject(r.pool.QueryRow(ctx,
			`UPDATE projects
			 SET title       = COALESCE($2, title),
			     description = COALESCE($3, description),
			     client_id   = COALESCE($4::uuid, client_id),
			     status      = COALESCE($5, status),
			     budget      = COALESCE($6, budget),
			     start_date  = COALESCE($7, start_date),
			     end_date    = COALESCE($8, end_date),
			     updated_at  = now()
			 WHERE id = $1
			 RETURNING `+projectColumns,
			req.ID, req.Title, req.Description, req.ClientID, status, req.Budget, req.StartDate, req.EndDate,
		))
		return err
	})
	if err != nil {
		return project.Project{}, projectErr(err)
	}
	return p, nil
}

// Delete relies on ON DELETE CASCADE for the project's tasks.
func (r *ProjectsRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("projects.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return project.ErrNotFound
	}
	return nil
}

func (r *ProjectsRepo) CountByClient(ctx context.Context, clientID string) (int, error) {
	var n int
	err := r.observe("projects.count_by_client", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE client_id = $1`, clientID).Scan(&n)
	})
	return n, err
}
