package service

import (
	"context"
	"errors"
	"sync"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/avvvet/tabletop-services/internal/comm"
)

const (
	gm       models.UserID = 1
	player   models.UserID = 2
	stranger models.UserID = 3
)

// memStore keeps campaigns, characters, logs and invites in memory and runs
// the same callback contract as the Postgres stores: a callback error leaves
// everything untouched.
type memStore struct {
	mu         sync.Mutex
	campaigns  map[int64]*models.Campaign
	characters map[int64]*models.Character
	skills     map[int64][]*models.CharacterSkill
	invites    map[int64]*models.CampaignInvite
	logs       []*models.CampaignLog
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{
		campaigns:  map[int64]*models.Campaign{},
		characters: map[int64]*models.Character{},
		skills:     map[int64][]*models.CharacterSkill{},
		invites:    map[int64]*models.CampaignInvite{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addCampaign(owner models.UserID, players ...models.UserID) *models.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &models.Campaign{ID: m.id(), Name: "Campaign", OwnerID: owner}
	for _, p := range players {
		c.AddPlayer(p)
	}
	m.campaigns[c.ID] = c
	return c
}

func (m *memStore) addCharacter(campaignID int64, user models.UserID, name string, status models.Status) *models.Character {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &models.Character{
		ID:            m.id(),
		CampaignID:    campaignID,
		UserID:        user,
		Name:          name,
		Level:         1,
		AbilityScores: models.DefaultAbilityScores(),
		Status:        status,
	}
	m.characters[c.ID] = c
	return c
}

func (m *memStore) GetCampaign(_ context.Context, id int64) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	cp.Players = append([]models.UserID(nil), c.Players...)
	return &cp, nil
}

func (m *memStore) CreateCampaign(_ context.Context, owner models.UserID, in models.CampaignInput) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &models.Campaign{ID: m.id(), Name: in.Name, Description: in.Description, OwnerID: owner}
	m.campaigns[c.ID] = c
	return c, nil
}

func (m *memStore) ListCampaignsForUser(_ context.Context, user models.UserID) ([]*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Campaign
	for _, c := range m.campaigns {
		if c.IsMember(user) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) UpdateCampaign(_ context.Context, id int64, in models.CampaignInput, authorize func(*models.Campaign) error) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := authorize(c); err != nil {
		return nil, err
	}
	c.Name, c.Description = in.Name, in.Description
	return c, nil
}

func (m *memStore) DeleteCampaign(_ context.Context, id int64, authorize func(*models.Campaign) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return models.ErrNotFound
	}
	if err := authorize(c); err != nil {
		return err
	}
	delete(m.campaigns, id)
	return nil
}

func (m *memStore) CreateCharacter(_ context.Context, c *models.Character, authorize func(*models.Campaign) error) (*models.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	campaign, ok := m.campaigns[c.CampaignID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := authorize(campaign); err != nil {
		return nil, err
	}
	for _, existing := range m.characters {
		if existing.CampaignID == c.CampaignID && existing.UserID == c.UserID {
			return nil, models.ErrCharacterExists
		}
	}
	created := *c
	created.ID = m.id()
	m.characters[created.ID] = &created
	out := created
	return &out, nil
}

func (m *memStore) GetCharacter(_ context.Context, id int64) (*models.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.characters[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListCharactersByCampaign(_ context.Context, campaignID int64, status *models.Status) ([]*models.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Character
	for _, c := range m.characters {
		if c.CampaignID == campaignID && (status == nil || c.Status == *status) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListCharactersForUser(_ context.Context, user models.UserID, status *models.Status) ([]*models.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Character
	for _, c := range m.characters {
		if c.UserID == user && (status == nil || c.Status == *status) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateCharacter(_ context.Context, id int64, mutate func(*models.Character, *models.Campaign) (*models.Character, error)) (*models.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.characters[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	updated, err := mutate(&cp, m.campaigns[c.CampaignID])
	if err != nil {
		return nil, err
	}
	updated.Status = c.Status
	m.characters[id] = updated
	return updated, nil
}

func (m *memStore) ChangeStatus(_ context.Context, id int64, decide func(*models.Character, *models.Campaign) (*models.CampaignLog, error)) (*models.Character, *models.CampaignLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.characters[id]
	if !ok {
		return nil, nil, models.ErrNotFound
	}
	cp := *c
	entry, err := decide(&cp, m.campaigns[c.CampaignID])
	if err != nil {
		return nil, nil, err
	}
	entry.ID = m.id()
	m.characters[id] = &cp
	m.logs = append(m.logs, entry)
	return &cp, entry, nil
}

func (m *memStore) DeleteCharacter(_ context.Context, id int64, authorize func(*models.Character, *models.Campaign) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.characters[id]
	if !ok {
		return models.ErrNotFound
	}
	if err := authorize(c, m.campaigns[c.CampaignID]); err != nil {
		return err
	}
	delete(m.characters, id)
	return nil
}

func (m *memStore) ListCharacterSkills(_ context.Context, characterID int64) ([]*models.CharacterSkill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CharacterSkill
	for _, cs := range m.skills[characterID] {
		cp := *cs
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) UpdateCharacterSkill(_ context.Context, characterID, skillID int64, level int) (*models.CharacterSkill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cs := range m.skills[characterID] {
		if cs.Skill.ID == skillID {
			cs.ProficiencyLevel = level
			cp := *cs
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) CreateInvite(_ context.Context, campaignID int64, build func(*models.Campaign) (*models.CampaignInvite, error)) (*models.CampaignInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	campaign, ok := m.campaigns[campaignID]
	if !ok {
		return nil, models.ErrNotFound
	}
	invite, err := build(campaign)
	if err != nil {
		return nil, err
	}
	for _, existing := range m.invites {
		if existing.CampaignID == campaignID && existing.InvitedUserID == invite.InvitedUserID {
			return nil, models.ErrInviteExists
		}
	}
	invite.ID = m.id()
	m.invites[invite.ID] = invite
	cp := *invite
	return &cp, nil
}

func (m *memStore) GetInvite(_ context.Context, id int64) (*models.CampaignInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.invites[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *memStore) ListInvitesForCampaign(_ context.Context, campaignID int64) ([]*models.CampaignInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.CampaignInvite{}
	for _, i := range m.invites {
		if i.CampaignID == campaignID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListInvitesForUser(_ context.Context, user models.UserID, status *models.InviteStatus) ([]*models.CampaignInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.CampaignInvite{}
	for _, i := range m.invites {
		if i.InvitedUserID == user && (status == nil || i.Status == *status) {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) RespondInvite(_ context.Context, id int64, respond func(*models.CampaignInvite) error) (*models.CampaignInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.invites[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *i
	if err := respond(&cp); err != nil {
		return nil, err
	}
	m.invites[id] = &cp
	if cp.Status == models.InviteAccepted {
		m.campaigns[cp.CampaignID].AddPlayer(cp.InvitedUserID)
	}
	out := cp
	return &out, nil
}

// ListLogs mirrors the database ordering: newest first, ties by id.
func (m *memStore) ListLogs(_ context.Context, campaignID int64) ([]*models.CampaignLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CampaignLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].CampaignID == campaignID {
			cp := *m.logs[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*comm.Event
	fail   bool
}

func (p *recordingPublisher) Publish(ctx context.Context, e *comm.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.fail {
		return errors.New("nats: connection closed")
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) published() []*comm.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*comm.Event(nil), p.events...)
}

func intPtr(v int) *int {
	return &v
}
