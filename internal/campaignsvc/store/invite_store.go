package store

import (
	"context"
	"fmt"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InviteStore struct {
	db *pgxpool.Pool
}

func NewInviteStore(db *pgxpool.Pool) *InviteStore {
	return &InviteStore{db: db}
}

const inviteSelect = `
	SELECT i.id, i.campaign_id, i.invited_user, iu.name, i.invited_by, ib.name,
	       i.status, i.created_at, i.responded_at
	FROM campaign_invites i
	JOIN users iu ON iu.user_id = i.invited_user
	JOIN users ib ON ib.user_id = i.invited_by
`

func scanInvite(row pgx.Row) (*models.CampaignInvite, error) {
	i := &models.CampaignInvite{}
	err := row.Scan(
		&i.ID,
		&i.CampaignID,
		&i.InvitedUserID,
		&i.InvitedUserName,
		&i.InvitedByID,
		&i.InvitedByName,
		&i.Status,
		&i.CreatedAt,
		&i.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func loadInvite(ctx context.Context, q querier, id int64) (*models.CampaignInvite, error) {
	i, err := scanInvite(q.QueryRow(ctx, inviteSelect+`WHERE i.id = $1`, id))
	if err != nil {
		return nil, translate(err, "get invite")
	}
	return i, nil
}

func (s *InviteStore) queryInvites(ctx context.Context, where string, args ...any) ([]*models.CampaignInvite, error) {
	rows, err := s.db.Query(ctx, inviteSelect+where+` ORDER BY i.created_at DESC, i.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	invites := []*models.CampaignInvite{}
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite row: %w", err)
		}
		invites = append(invites, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return invites, nil
}

// CreateInvite loads the campaign, lets build produce the invite and stores it.
// A second invite for the same user fails with ErrInviteExists.
func (s *InviteStore) CreateInvite(ctx context.Context, campaignID int64, build func(*models.Campaign) (*models.CampaignInvite, error)) (*models.CampaignInvite, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM campaigns WHERE id = $1 FOR SHARE`, campaignID); err != nil {
		return nil, fmt.Errorf("lock campaign %d: %w", campaignID, err)
	}
	campaign, err := loadCampaign(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	invite, err := build(campaign)
	if err != nil {
		return nil, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO campaign_invites (campaign_id, invited_by, invited_user, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, invite.CampaignID, int64(invite.InvitedByID), int64(invite.InvitedUserID), string(invite.Status), invite.CreatedAt).Scan(&id)
	if err != nil {
		return nil, translate(err, "create invite")
	}

	created, err := loadInvite(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

func (s *InviteStore) GetInvite(ctx context.Context, id int64) (*models.CampaignInvite, error) {
	return loadInvite(ctx, s.db, id)
}

func (s *InviteStore) ListInvitesForCampaign(ctx context.Context, campaignID int64) ([]*models.CampaignInvite, error) {
	return s.queryInvites(ctx, `WHERE i.campaign_id = $1`, campaignID)
}

// ListInvitesForUser lists invites addressed to user, optionally by status.
func (s *InviteStore) ListInvitesForUser(ctx context.Context, user models.UserID, status *models.InviteStatus) ([]*models.CampaignInvite, error) {
	if status != nil {
		return s.queryInvites(ctx, `WHERE i.invited_user = $1 AND i.status = $2`, int64(user), string(*status))
	}
	return s.queryInvites(ctx, `WHERE i.invited_user = $1`, int64(user))
}

// RespondInvite locks the invite and runs respond on it. The new status and,
// on acceptance, the campaign membership are committed together.
func (s *InviteStore) RespondInvite(ctx context.Context, id int64, respond func(*models.CampaignInvite) error) (*models.CampaignInvite, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM campaign_invites WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return nil, translate(err, "lock invite")
	}
	invite, err := loadInvite(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := respond(invite); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE campaign_invites SET status = $2, responded_at = $3 WHERE id = $1
	`, id, string(invite.Status), invite.RespondedAt); err != nil {
		return nil, translate(err, "update invite")
	}
	if invite.Status == models.InviteAccepted {
		if _, err := tx.Exec(ctx, `
			INSERT INTO campaign_players (campaign_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (campaign_id, user_id) DO NOTHING
		`, invite.CampaignID, int64(invite.InvitedUserID)); err != nil {
			return nil, translate(err, "add campaign player")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return invite, nil
}
