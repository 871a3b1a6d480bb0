package service

import (
	"context"
	"time"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/avvvet/tabletop-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// EventPublisher delivers committed domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, e *comm.Event) error
}

// CampaignReader loads a campaign with its player set.
type CampaignReader interface {
	GetCampaign(ctx context.Context, id int64) (*models.Campaign, error)
}

// publishTimeout bounds event delivery once it is detached from the request.
const publishTimeout = 5 * time.Second

// publish sends an event after its transaction has committed. A failure is
// logged and never undoes the write. The request context is detached so a
// client that disconnects after the commit does not drop the event.
func publish(ctx context.Context, events EventPublisher, eventType string, campaignID int64, actor models.UserID, data any) {
	if events == nil {
		return
	}
	e, err := comm.NewEvent(eventType, campaignID, int64(actor), data)
	if err != nil {
		log.Errorf("Error building %s event: %s", eventType, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := events.Publish(ctx, e); err != nil {
		log.WithFields(log.Fields{
			"event_id":    e.ID,
			"campaign_id": campaignID,
		}).Errorf("Error publishing %s event: %s", eventType, err)
	}
}

// requireMember loads the campaign and rejects actors that neither own nor play in it.
func requireMember(ctx context.Context, campaigns CampaignReader, campaignID int64, actor models.UserID) (*models.Campaign, error) {
	campaign, err := campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.IsMember(actor) {
		return nil, &models.AuthorizationError{Message: "you are not a member of this campaign"}
	}
	return campaign, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
