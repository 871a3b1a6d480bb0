package service

import (
	"context"
	"testing"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/avvvet/tabletop-services/internal/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteLifecycle(t *testing.T) {
	m := newMemStore()
	campaign := m.addCampaign(gm)
	events := &recordingPublisher{}
	s := NewInviteService(m, m, events)
	ctx := context.Background()

	_, err := s.SendInvite(ctx, campaign.ID, stranger, player)
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)

	invite, err := s.SendInvite(ctx, campaign.ID, player, gm)
	require.NoError(t, err)
	assert.Equal(t, models.InvitePending, invite.Status)

	_, err = s.SendInvite(ctx, campaign.ID, player, gm)
	assert.ErrorIs(t, err, models.ErrInviteExists)

	_, err = s.Respond(ctx, invite.ID, models.InviteAccepted, stranger)
	assert.ErrorIs(t, err, models.ErrNotInvitee)

	accepted, err := s.Respond(ctx, invite.ID, models.InviteAccepted, player)
	require.NoError(t, err)
	assert.Equal(t, models.InviteAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	stored, err := m.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPlayer(player))

	_, err = s.Respond(ctx, invite.ID, models.InviteRejected, player)
	assert.ErrorIs(t, err, models.ErrAlreadyResponded)

	published := events.published()
	require.Len(t, published, 2)
	assert.Equal(t, comm.TypeInviteSent, published[0].Type)
	assert.Equal(t, comm.TypeInviteResponded, published[1].Type)
}

func TestRejectDoesNotAddPlayer(t *testing.T) {
	m := newMemStore()
	campaign := m.addCampaign(gm)
	s := NewInviteService(m, m, nil)
	ctx := context.Background()

	invite, err := s.SendInvite(ctx, campaign.ID, player, gm)
	require.NoError(t, err)

	rejected, err := s.Respond(ctx, invite.ID, models.InviteRejected, player)
	require.NoError(t, err)
	assert.Equal(t, models.InviteRejected, rejected.Status)

	stored, err := m.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPlayer(player))

	// no implicit re-invite after a rejection
	_, err = s.SendInvite(ctx, campaign.ID, player, gm)
	assert.ErrorIs(t, err, models.ErrInviteExists)
}

func TestInviteListings(t *testing.T) {
	m := newMemStore()
	campaign := m.addCampaign(gm)
	s := NewInviteService(m, m, nil)
	ctx := context.Background()

	_, err := s.SendInvite(ctx, campaign.ID, player, gm)
	require.NoError(t, err)

	pending := models.InvitePending
	mine, err := s.ListForUser(ctx, player, &pending)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := s.ListForCampaign(ctx, campaign.ID, gm)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.ListForCampaign(ctx, campaign.ID, player)
	var authErr *models.AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestGetInviteVisibility(t *testing.T) {
	m := newMemStore()
	campaign := m.addCampaign(gm)
	s := NewInviteService(m, m, nil)
	ctx := context.Background()

	invite, err := s.SendInvite(ctx, campaign.ID, player, gm)
	require.NoError(t, err)

	got, err := s.GetInvite(ctx, invite.ID, player)
	require.NoError(t, err)
	assert.Equal(t, invite.ID, got.ID)

	got, err = s.GetInvite(ctx, invite.ID, gm)
	require.NoError(t, err)
	assert.Equal(t, player, got.InvitedUserID)

	_, err = s.GetInvite(ctx, invite.ID, stranger)
	var authErr *models.AuthorizationError
	assert.ErrorAs(t, err, &authErr)

	_, err = s.GetInvite(ctx, 999, player)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
