package service

import (
	"context"
	"time"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/avvvet/tabletop-services/internal/comm"
)

type InviteStore interface {
	CreateInvite(ctx context.Context, campaignID int64, build func(*models.Campaign) (*models.CampaignInvite, error)) (*models.CampaignInvite, error)
	GetInvite(ctx context.Context, id int64) (*models.CampaignInvite, error)
	ListInvitesForCampaign(ctx context.Context, campaignID int64) ([]*models.CampaignInvite, error)
	ListInvitesForUser(ctx context.Context, user models.UserID, status *models.InviteStatus) ([]*models.CampaignInvite, error)
	RespondInvite(ctx context.Context, id int64, respond func(*models.CampaignInvite) error) (*models.CampaignInvite, error)
}

type InviteService struct {
	store     InviteStore
	campaigns CampaignReader
	events    EventPublisher
	now       func() time.Time
}

func NewInviteService(store InviteStore, campaigns CampaignReader, events EventPublisher) *InviteService {
	return &InviteService{
		store:     store,
		campaigns: campaigns,
		events:    events,
		now:       utcNow,
	}
}

// SendInvite invites invitee to the campaign. Only the owner may invite and
// a user can be invited to a campaign once.
func (s *InviteService) SendInvite(ctx context.Context, campaignID int64, invitee, actor models.UserID) (*models.CampaignInvite, error) {
	invite, err := s.store.CreateInvite(ctx, campaignID, func(campaign *models.Campaign) (*models.CampaignInvite, error) {
		return models.NewInvite(campaign, actor, invitee, s.now())
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, comm.TypeInviteSent, invite.CampaignID, actor, inviteData(invite))
	return invite, nil
}

// GetInvite returns one invite to its invitee or to a member of its campaign.
func (s *InviteService) GetInvite(ctx context.Context, inviteID int64, actor models.UserID) (*models.CampaignInvite, error) {
	invite, err := s.store.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.InvitedUserID == actor {
		return invite, nil
	}
	if _, err := requireMember(ctx, s.campaigns, invite.CampaignID, actor); err != nil {
		return nil, err
	}
	return invite, nil
}

func (s *InviteService) ListForCampaign(ctx context.Context, campaignID int64, actor models.UserID) ([]*models.CampaignInvite, error) {
	if _, err := requireMember(ctx, s.campaigns, campaignID, actor); err != nil {
		return nil, err
	}
	return s.store.ListInvitesForCampaign(ctx, campaignID)
}

// ListForUser lists the invites addressed to actor.
func (s *InviteService) ListForUser(ctx context.Context, actor models.UserID, status *models.InviteStatus) ([]*models.CampaignInvite, error) {
	return s.store.ListInvitesForUser(ctx, actor, status)
}

// Respond accepts or rejects a pending invite on behalf of the invitee.
// Acceptance adds the invitee to the campaign players in the same transaction.
func (s *InviteService) Respond(ctx context.Context, inviteID int64, response models.InviteStatus, actor models.UserID) (*models.CampaignInvite, error) {
	invite, err := s.store.RespondInvite(ctx, inviteID, func(i *models.CampaignInvite) error {
		return i.Respond(response, actor, s.now())
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, comm.TypeInviteResponded, invite.CampaignID, actor, inviteData(invite))
	return invite, nil
}

func inviteData(i *models.CampaignInvite) comm.InviteData {
	return comm.InviteData{
		InviteID:      i.ID,
		InvitedUserID: int64(i.InvitedUserID),
		InvitedByID:   int64(i.InvitedByID),
		Status:        string(i.Status),
	}
}
