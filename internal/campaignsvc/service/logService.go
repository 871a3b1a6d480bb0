package service

import (
	"context"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
)

type LogStore interface {
	ListLogs(ctx context.Context, campaignID int64) ([]*models.CampaignLog, error)
}

type LogService struct {
	store     LogStore
	campaigns CampaignReader
}

func NewLogService(store LogStore, campaigns CampaignReader) *LogService {
	return &LogService{store: store, campaigns: campaigns}
}

// ListForCampaign returns the campaign log newest first. Only the owner and
// players may read it.
func (s *LogService) ListForCampaign(ctx context.Context, campaignID int64, actor models.UserID) ([]*models.CampaignLog, error) {
	if _, err := requireMember(ctx, s.campaigns, campaignID, actor); err != nil {
		return nil, err
	}
	logs, err := s.store.ListLogs(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*models.CampaignLog{}
	}
	return logs, nil
}
