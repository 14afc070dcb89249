package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/observability"
	"github.com/ngeni/portal/internal/utils"
)

type LeadsRepo struct {
	repo
}

func NewLeadsRepo(pool *pgxpool.Pool, prom *observability.Prom) *LeadsRepo {
	return &LeadsRepo{repo{pool: pool, prom: prom}}
}

const leadColumns = `id, name, email, phone, company, message, service, source, created_at`

func scanLead(row pgx.Row) (lead.Lead, error) {
	var l lead.Lead
	var source string
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Company,
		&l.Message,
		&l.Service,
		&source,
		&l.CreatedAt,
	)
	l.Source = lead.Source(source)
	return l, err
}

func (r *LeadsRepo) Create(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	var out lead.Lead
	err := r.observe("leads.create", func() error {
		var err error
		out, err = scanLead(r.pool.QueryRow(ctx,
			`INSERT INTO leads (id, name, email, phone, company, message, service, source, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING `+leadColumns,
			l.ID, l.Name, l.Email, l.Phone, l.Company, l.Message, l.Service, string(l.Source), l.CreatedAt,
		))
		return err
	})
	return out, err
}

func (r *LeadsRepo) ExistsSince(ctx context.Context, email string, since time.Time) (bool, error) {
	var exists bool
	err := r.observe("leads.exists_since", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM leads WHERE email = $1 AND created_at >= $2)`,
			email, since,
		).Scan(&exists)
	})
	return exists, err
}

// List pages by keyset on (created_at, id), newest first.
func (r *LeadsRepo) List(ctx context.Context, f lead.ListFilter, after *utils.LeadCursor, limit int) ([]lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`

	var conds []string
	var args []any
	pos := 1

	if f.Service != "" {
		conds = append(conds, fmt.Sprintf("service = $%d", pos))
		args = append(args, f.Service)
		pos++
	}
	if f.Source != "" {
		conds = append(conds, fmt.Sprintf("source = $%d", pos))
		args = append(args, f.Source)
		pos++
	}
	if after != nil {
		conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d::uuid)", pos, pos+1))
		args = append(args, after.CreatedAt, after.ID)
		pos += 2
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", pos)
	args = append(args, limit)

	out := []lead.Lead{}
	err := r.observe("leads.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLead(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LeadsRepo) GetByID(ctx context.Context, id string) (lead.Lead, error) {
	var l lead.Lead
	err := r.observe("leads.get_by_id", func() error {
		var err error
		l, err = scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if isNoRows(err) {
			return lead.Lead{}, lead.ErrNotFound
		}
		return lead.Lead{}, err
	}
	return l, nil
}

func (r *LeadsRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("leads.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return lead.ErrNotFound
	}
	return nil
}

func (r *LeadsRepo) Stats(ctx context.Context, since time.Time) (lead.Stats, error) {
	st := lead.Stats{}

	err := r.observe("leads.stats.totals", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1) FROM leads`,
			since,
		).Scan(&st.Total, &st.RecentWeek)
	})
	if err != nil {
		return lead.Stats{}, err
	}

	if st.ByService, err = r.groupCounts(ctx, "leads.stats.by_service", "COALESCE(service, '')"); err != nil {
		return lead.Stats{}, err
	}
	if st.BySource, err = r.groupCounts(ctx, "leads.stats.by_source", "source"); err != nil {
		return lead.Stats{}, err
	}
	return st, nil
}

// groupCounts takes a fixed column expression, never caller input.
func (r *LeadsRepo) groupCounts(ctx context.Context, op, expr string) ([]lead.Count, error) {
	out := []lead.Count{}
	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+expr+` AS key, COUNT(*) AS n FROM leads GROUP BY key ORDER BY n DESC, key ASC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c lead.Count
			if err := rows.Scan(&c.Key, &c.Count); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
