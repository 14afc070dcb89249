package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/observability"
)

type UsersRepo struct {
	repo
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{repo{pool: pool, prom: prom}}
}

const userColumns = `id, email, password_hash, name, image, role, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (user.User, error) {
	var u user.User
	var role string
	dest := append([]any{
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Image,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	var out user.User
	err := r.observe("users.create", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (id, email, password_hash, name, image, role, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+userColumns,
			u.ID, u.Email, u.PasswordHash, u.Name, u.Image, string(u.Role), u.CreatedAt, u.UpdatedAt,
		))
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return out, nil
}

func (r *UsersRepo) get(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User
	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return err
	})
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.get(ctx, "users.get_by_id", "id = $1", id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.get(ctx, "users.get_by_email", "email = $1", email)
}

func (r *UsersRepo) List(ctx context.Context, f user.ListFilter) ([]user.WithProjectCount, error) {
	query := `SELECT ` + prefixed("u", userColumns) + `,
		(SELECT COUNT(*) FROM projects p WHERE p.client_id = u.id) AS project_count
	FROM users u`

	var conds []string
	var args []any
	pos := 1

	if f.Role != nil {
		conds = append(conds, fmt.Sprintf("u.role = $%d", pos))
		args = append(args, string(*f.Role))
		pos++
	}
	if f.Search != "" {
		conds = append(conds, fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d)", pos, pos))
		args = append(args, likePattern(f.Search))
		pos++
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY u.created_at DESC, u.id DESC"

	out := []user.WithProjectCount{}
	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var n int
			u, err := scanUser(rows, &n)
			if err != nil {
				return err
			}
			out = append(out, user.WithProjectCount{User: u, ProjectCount: n})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	var u user.User
	err := r.observe("users.update_profile", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			 SET name = COALESCE($2, name),
			     image = COALESCE($3, image),
			     updated_at = now()
			 WHERE id = $1
			 RETURNING `+userColumns,
			id, req.Name, req.Image,
		))
		return err
	})
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id string, role user.Role) (user.User, error) {
	var u user.User
	err := r.observe("users.update_role", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users SET role = $2, updated_at = now()
			 WHERE id = $1
			 RETURNING `+userColumns,
			id, string(role),
		))
		return err
	})
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// Delete relies on ON DELETE CASCADE for owned projects and their tasks.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
