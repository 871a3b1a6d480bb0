package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avvvet/tabletop-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Conn is the part of *nats.Conn the broker needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

type Broker struct {
	Conn       Conn
	Topic      string
	InstanceID string
}

func NewBroker(nc Conn, topic, instanceID string) *Broker {
	return &Broker{
		Conn:       nc,
		Topic:      topic,
		InstanceID: instanceID,
	}
}

// Publish stamps the event with this instance and sends it on the events topic.
func (b *Broker) Publish(ctx context.Context, e *comm.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Source == "" {
		e.Source = b.InstanceID
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.ID, err)
	}

	if err := b.Conn.Publish(b.Topic, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", b.Topic, err)
		return err
	}

	log.WithFields(log.Fields{
		"event_id":    e.ID,
		"type":        e.Type,
		"campaign_id": e.CampaignID,
	}).Debug("event published")
	return nil
}
