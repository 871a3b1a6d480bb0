package store

import (
	"context"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

// UpsertUser inserts the user or refreshes its display name. An empty name
// never overwrites a known one.
func (r *UserStore) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	query := `
        INSERT INTO users (user_id, name)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE
        SET name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
            updated_at = CASE WHEN EXCLUDED.name <> '' AND EXCLUDED.name <> users.name THEN now() ELSE users.updated_at END
        RETURNING user_id, name, created_at, updated_at;
    `

	u := &models.User{}
	err := r.db.QueryRow(ctx, query, int64(user.UserId), user.Name).Scan(
		&u.UserId,
		&u.Name,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "upsert user")
	}

	return u, nil
}

func (r *UserStore) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT user_id, name, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `, int64(id))

	u := &models.User{}
	err := row.Scan(
		&u.UserId,
		&u.Name,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "get user")
	}

	return u, nil
}
