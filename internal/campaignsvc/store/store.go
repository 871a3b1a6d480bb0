package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps driver errors onto the domain error taxonomy. what names the
// operation for wrapped errors, as in "create character: ...".
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case "unique_campaign_invite":
				return models.ErrInviteExists
			case "unique_campaign_character":
				return models.ErrCharacterExists
			}
			return &models.ValidationError{Message: fmt.Sprintf("%s: duplicate value (%s)", what, pgErr.ConstraintName), Err: err}
		case pgForeignKeyViolation:
			return &models.ValidationError{Message: referenceMessage(pgErr, what), Err: err}
		case pgCheckViolation:
			return &models.ValidationError{Message: fmt.Sprintf("%s: value violates %s", what, pgErr.ConstraintName), Err: err}
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// referencedTables names the client-facing message for a foreign key miss by
// the table the key points into. The driver detail stays in the wrapped error.
var referencedTables = map[string]string{
	"users":      "unknown user",
	"campaigns":  "unknown campaign",
	"characters": "unknown character",
	"skills":     "unknown skill",
	"features":   "unknown feature",
}

func referenceMessage(pgErr *pgconn.PgError, what string) string {
	for table, msg := range referencedTables {
		if strings.HasSuffix(pgErr.Detail, fmt.Sprintf("table %q.", table)) {
			return msg
		}
	}
	return what + ": invalid reference"
}

func toUserIDs(ids []int64) []models.UserID {
	out := make([]models.UserID, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.UserID(id))
	}
	return out
}

func nullableUserID(id *int64) *models.UserID {
	if id == nil {
		return nil
	}
	u := models.UserID(*id)
	return &u
}
