package service

import (
	"context"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
)

type CampaignStore interface {
	CampaignReader
	CreateCampaign(ctx context.Context, owner models.UserID, in models.CampaignInput) (*models.Campaign, error)
	ListCampaignsForUser(ctx context.Context, user models.UserID) ([]*models.Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, in models.CampaignInput, authorize func(*models.Campaign) error) (*models.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64, authorize func(*models.Campaign) error) error
}

type CampaignService struct {
	store CampaignStore
}

func NewCampaignService(store CampaignStore) *CampaignService {
	return &CampaignService{store: store}
}

// CreateCampaign makes actor the owner of a new campaign.
func (s *CampaignService) CreateCampaign(ctx context.Context, actor models.UserID, in models.CampaignInput) (*models.Campaign, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	return s.store.CreateCampaign(ctx, actor, in)
}

func (s *CampaignService) GetCampaign(ctx context.Context, id int64, actor models.UserID) (*models.Campaign, error) {
	return requireMember(ctx, s.store, id, actor)
}

func (s *CampaignService) ListCampaigns(ctx context.Context, actor models.UserID) ([]*models.Campaign, error) {
	campaigns, err := s.store.ListCampaignsForUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return campaigns, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id int64, actor models.UserID, in models.CampaignInput) (*models.Campaign, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	return s.store.UpdateCampaign(ctx, id, in, func(c *models.Campaign) error {
		return c.RequireOwner(actor, "update the campaign")
	})
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id int64, actor models.UserID) error {
	return s.store.DeleteCampaign(ctx, id, func(c *models.Campaign) error {
		return c.RequireOwner(actor, "delete the campaign")
	})
}
