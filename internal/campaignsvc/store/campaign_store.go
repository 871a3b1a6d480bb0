package store

import (
	"context"
	"fmt"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CampaignStore struct {
	db *pgxpool.Pool
}

func NewCampaignStore(db *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{db: db}
}

const campaignSelect = `
	SELECT c.id, c.name, c.description, c.owner_id, u.name, c.created_at,
	       COALESCE(array_agg(cp.user_id ORDER BY cp.joined_at, cp.user_id)
	                FILTER (WHERE cp.user_id IS NOT NULL), '{}')
	FROM campaigns c
	JOIN users u ON u.user_id = c.owner_id
	LEFT JOIN campaign_players cp ON cp.campaign_id = c.id
`

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	c := &models.Campaign{}
	var players []int64
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.OwnerID,
		&c.OwnerName,
		&c.CreatedAt,
		&players,
	)
	if err != nil {
		return nil, err
	}
	c.Players = toUserIDs(players)
	c.PlayersCount = len(c.Players)
	return c, nil
}

// loadCampaign reads a campaign with its player set through q, so it can run
// inside a transaction.
func loadCampaign(ctx context.Context, q querier, id int64) (*models.Campaign, error) {
	row := q.QueryRow(ctx, campaignSelect+`
	WHERE c.id = $1
	GROUP BY c.id, u.name`, id)
	c, err := scanCampaign(row)
	if err != nil {
		return nil, translate(err, "get campaign")
	}
	return c, nil
}

func (s *CampaignStore) CreateCampaign(ctx context.Context, owner models.UserID, in models.CampaignInput) (*models.Campaign, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO campaigns (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, in.Name, in.Description, int64(owner)).Scan(&id)
	if err != nil {
		return nil, translate(err, "create campaign")
	}
	return loadCampaign(ctx, s.db, id)
}

func (s *CampaignStore) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	return loadCampaign(ctx, s.db, id)
}

// ListCampaignsForUser returns the campaigns the user owns or plays in, newest first.
func (s *CampaignStore) ListCampaignsForUser(ctx context.Context, user models.UserID) ([]*models.Campaign, error) {
	rows, err := s.db.Query(ctx, campaignSelect+`
	WHERE c.owner_id = $1
	   OR EXISTS (SELECT 1 FROM campaign_players p WHERE p.campaign_id = c.id AND p.user_id = $1)
	GROUP BY c.id, u.name
	ORDER BY c.created_at DESC, c.id DESC`, int64(user))
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaign locks the campaign, lets authorize decide on the current row
// and then writes the new name and description.
func (s *CampaignStore) UpdateCampaign(ctx context.Context, id int64, in models.CampaignInput, authorize func(*models.Campaign) error) (*models.Campaign, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM campaigns WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, fmt.Errorf("lock campaign %d: %w", id, err)
	}
	campaign, err := loadCampaign(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(campaign); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE campaigns SET name = $2, description = $3 WHERE id = $1
	`, id, in.Name, in.Description); err != nil {
		return nil, translate(err, "update campaign")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	campaign.Name = in.Name
	campaign.Description = in.Description
	return campaign, nil
}

// DeleteCampaign removes the campaign; characters, logs, invites and the
// player set go with it.
func (s *CampaignStore) DeleteCampaign(ctx context.Context, id int64, authorize func(*models.Campaign) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM campaigns WHERE id = $1 FOR UPDATE`, id); err != nil {
		return fmt.Errorf("lock campaign %d: %w", id, err)
	}
	campaign, err := loadCampaign(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := authorize(campaign); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete campaign %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
