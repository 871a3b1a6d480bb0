package store

import (
	"context"
	"fmt"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LogStore struct {
	db *pgxpool.Pool
}

func NewLogStore(db *pgxpool.Pool) *LogStore {
	return &LogStore{db: db}
}

// insertLog appends entry through q and fills in its id and timestamp.
func insertLog(ctx context.Context, q querier, entry *models.CampaignLog) error {
	var actor *int64
	if entry.ActorID != nil {
		id := int64(*entry.ActorID)
		actor = &id
	}
	err := q.QueryRow(ctx, `
		INSERT INTO campaign_logs (campaign_id, user_id, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, entry.CampaignID, actor, entry.Message, entry.CreatedAt).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return translate(err, "insert campaign log")
	}
	return nil
}

// ListLogs returns the campaign's log, newest first. Entries written in the
// same instant fall back to insertion order.
func (s *LogStore) ListLogs(ctx context.Context, campaignID int64) ([]*models.CampaignLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.id, l.campaign_id, l.user_id, COALESCE(u.name, ''), l.message, l.created_at
		FROM campaign_logs l
		LEFT JOIN users u ON u.user_id = l.user_id
		WHERE l.campaign_id = $1
		ORDER BY l.created_at DESC, l.id DESC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.CampaignLog{}
	for rows.Next() {
		l := &models.CampaignLog{}
		var actor *int64
		if err := rows.Scan(&l.ID, &l.CampaignID, &actor, &l.ActorName, &l.Message, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign log row: %w", err)
		}
		l.ActorID = nullableUserID(actor)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return logs, nil
}
