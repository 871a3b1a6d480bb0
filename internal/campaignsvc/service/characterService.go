package service

import (
	"context"
	"time"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/avvvet/tabletop-services/internal/comm"
)

type CharacterStore interface {
	CreateCharacter(ctx context.Context, c *models.Character, authorize func(*models.Campaign) error) (*models.Character, error)
	GetCharacter(ctx context.Context, id int64) (*models.Character, error)
	ListCharactersByCampaign(ctx context.Context, campaignID int64, status *models.Status) ([]*models.Character, error)
	ListCharactersForUser(ctx context.Context, user models.UserID, status *models.Status) ([]*models.Character, error)
	UpdateCharacter(ctx context.Context, id int64, mutate func(*models.Character, *models.Campaign) (*models.Character, error)) (*models.Character, error)
	ChangeStatus(ctx context.Context, id int64, decide func(*models.Character, *models.Campaign) (*models.CampaignLog, error)) (*models.Character, *models.CampaignLog, error)
	DeleteCharacter(ctx context.Context, id int64, authorize func(*models.Character, *models.Campaign) error) error
	ListCharacterSkills(ctx context.Context, characterID int64) ([]*models.CharacterSkill, error)
	UpdateCharacterSkill(ctx context.Context, characterID, skillID int64, level int) (*models.CharacterSkill, error)
}

type CharacterService struct {
	store     CharacterStore
	campaigns CampaignReader
	events    EventPublisher
	now       func() time.Time
}

func NewCharacterService(store CharacterStore, campaigns CampaignReader, events EventPublisher) *CharacterService {
	return &CharacterService{
		store:     store,
		campaigns: campaigns,
		events:    events,
		now:       utcNow,
	}
}

// CreateCharacter creates a DRAFT sheet for actor in a campaign actor owns or plays in.
func (s *CharacterService) CreateCharacter(ctx context.Context, actor models.UserID, input models.NewCharacterInput) (*models.Character, error) {
	input.UserID = actor
	c, err := models.NewCharacter(input, s.now())
	if err != nil {
		return nil, err
	}
	return s.store.CreateCharacter(ctx, c, func(campaign *models.Campaign) error {
		if !campaign.IsMember(actor) {
			return &models.AuthorizationError{Message: "only the campaign owner or its players can create characters"}
		}
		return nil
	})
}

// GetCharacter returns the sheet if actor may view it.
func (s *CharacterService) GetCharacter(ctx context.Context, id int64, actor models.UserID) (*models.Character, error) {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	campaign, err := s.campaigns.GetCampaign(ctx, c.CampaignID)
	if err != nil {
		return nil, err
	}
	if !c.CanView(campaign, actor) {
		return nil, &models.AuthorizationError{Message: "you cannot view this character"}
	}
	return c, nil
}

func (s *CharacterService) ListForCampaign(ctx context.Context, campaignID int64, actor models.UserID, status *models.Status) ([]*models.Character, error) {
	if _, err := requireMember(ctx, s.campaigns, campaignID, actor); err != nil {
		return nil, err
	}
	characters, err := s.store.ListCharactersByCampaign(ctx, campaignID, status)
	if err != nil {
		return nil, err
	}
	if characters == nil {
		characters = []*models.Character{}
	}
	return characters, nil
}

// ListForUser lists every sheet visible to actor.
func (s *CharacterService) ListForUser(ctx context.Context, actor models.UserID, status *models.Status) ([]*models.Character, error) {
	characters, err := s.store.ListCharactersForUser(ctx, actor, status)
	if err != nil {
		return nil, err
	}
	if characters == nil {
		characters = []*models.Character{}
	}
	return characters, nil
}

// UpdateCharacter applies patch for the character's player or the campaign owner.
func (s *CharacterService) UpdateCharacter(ctx context.Context, id int64, actor models.UserID, patch models.CharacterPatch) (*models.Character, error) {
	return s.store.UpdateCharacter(ctx, id, func(c *models.Character, campaign *models.Campaign) (*models.Character, error) {
		if !c.CanEdit(campaign, actor) {
			return nil, &models.AuthorizationError{Message: "only the character's player or the campaign owner can edit this character"}
		}
		return c.Apply(patch)
	})
}

// ChangeStatus moves the character to target when actor is allowed to. The
// status and its campaign log entry are stored atomically; the returned entry
// is the one written.
func (s *CharacterService) ChangeStatus(ctx context.Context, characterID int64, target models.Status, actor models.UserID) (*models.CampaignLog, error) {
	var from models.Status
	c, entry, err := s.store.ChangeStatus(ctx, characterID, func(c *models.Character, campaign *models.Campaign) (*models.CampaignLog, error) {
		from = c.Status
		return models.ChangeStatus(c, campaign.OwnerID, target, actor, s.now())
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, comm.TypeCharacterStatusChanged, c.CampaignID, actor, comm.StatusChange{
		CharacterID:   c.ID,
		CharacterName: c.Name,
		From:          string(from),
		To:            string(c.Status),
		LogID:         entry.ID,
		Message:       entry.Message,
	})
	return entry, nil
}

// DeleteCharacter is reserved to the campaign owner.
func (s *CharacterService) DeleteCharacter(ctx context.Context, id int64, actor models.UserID) error {
	return s.store.DeleteCharacter(ctx, id, func(_ *models.Character, campaign *models.Campaign) error {
		return campaign.RequireOwner(actor, "delete characters")
	})
}

// ListSkills returns the character's skills with their derived totals.
func (s *CharacterService) ListSkills(ctx context.Context, characterID int64, actor models.UserID) ([]*models.CharacterSkill, error) {
	c, err := s.GetCharacter(ctx, characterID, actor)
	if err != nil {
		return nil, err
	}
	skills, err := s.store.ListCharacterSkills(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []*models.CharacterSkill{}
	}
	for _, cs := range skills {
		if err := cs.Compute(c); err != nil {
			return nil, err
		}
	}
	return skills, nil
}

// UpdateSkill sets one proficiency level. The level is checked before anything is read.
func (s *CharacterService) UpdateSkill(ctx context.Context, characterID, skillID int64, level int, actor models.UserID) (*models.CharacterSkill, error) {
	if err := models.ValidateProficiencyLevel(level); err != nil {
		return nil, err
	}
	c, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	campaign, err := s.campaigns.GetCampaign(ctx, c.CampaignID)
	if err != nil {
		return nil, err
	}
	if !c.CanEdit(campaign, actor) {
		return nil, &models.AuthorizationError{Message: "only the character's player or the campaign owner can edit skills"}
	}

	cs, err := s.store.UpdateCharacterSkill(ctx, characterID, skillID, level)
	if err != nil {
		return nil, err
	}
	if err := cs.Compute(c); err != nil {
		return nil, err
	}
	return cs, nil
}
