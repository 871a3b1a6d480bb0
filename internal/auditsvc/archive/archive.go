package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avvvet/tabletop-services/internal/comm"
	"github.com/avvvet/tabletop-services/internal/db"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one archived campaign event.
type Record struct {
	EventID    string    `bson:"event_id"`
	Type       string    `bson:"type"`
	CampaignID int64     `bson:"campaign_id"`
	ActorID    int64     `bson:"actor_id"`
	Source     string    `bson:"source"`
	OccurredAt time.Time `bson:"occurred_at"`
	ReceivedAt time.Time `bson:"received_at"`
	Payload    bson.M    `bson:"payload"`
}

// Collection is the part of *mongo.Collection the archive writes through.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type Archive struct {
	coll    Collection
	timeout time.Duration
	now     func() time.Time
}

func New(coll Collection) *Archive {
	return &Archive{
		coll:    coll,
		timeout: 10 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Setup prepares the archive collection: event ids are unique and records
// expire retention after they were received.
func Setup(ctx context.Context, database *mongo.Database, collection string, retention time.Duration) (*mongo.Collection, error) {
	if err := db.CreateUniqueIndex(ctx, database, collection, "event_id"); err != nil {
		return nil, err
	}
	if err := db.CreateTTLIndexForCollection(ctx, database, collection, "received_at", retention); err != nil {
		return nil, err
	}
	return database.Collection(collection), nil
}

// Store archives e. A redelivered event is recognised by its id and skipped.
func (a *Archive) Store(ctx context.Context, e *comm.Event) error {
	if e.ID == "" {
		return fmt.Errorf("event without id (type %q)", e.Type)
	}

	record := Record{
		EventID:    e.ID,
		Type:       e.Type,
		CampaignID: e.CampaignID,
		ActorID:    e.ActorID,
		Source:     e.Source,
		OccurredAt: e.OccurredAt,
		ReceivedAt: a.now(),
	}
	if len(e.Data) > 0 && string(e.Data) != "null" {
		if err := bson.UnmarshalExtJSON(e.Data, false, &record.Payload); err != nil {
			return fmt.Errorf("decode payload of event %s: %w", e.ID, err)
		}
	}

	if _, err := a.coll.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Debugf("event %s already archived", e.ID)
			return nil
		}
		return fmt.Errorf("archive event %s: %w", e.ID, err)
	}
	return nil
}

// HandleMessage is the NATS handler for the campaign events topic.
func (a *Archive) HandleMessage(msg *nats.Msg) {
	e := &comm.Event{}
	if err := json.Unmarshal(msg.Data, e); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.Store(ctx, e); err != nil {
		log.WithFields(log.Fields{
			"event_id": e.ID,
			"type":     e.Type,
		}).Errorf("Error [Archive.Store] %s", err)
		return
	}
	log.WithFields(log.Fields{
		"event_id":    e.ID,
		"type":        e.Type,
		"campaign_id": e.CampaignID,
	}).Info("event archived")
}

// QueueSubscribe consumes the topic as part of queueGroup, so that several
// audit instances share the stream.
func (a *Archive) QueueSubscribe(nc *nats.Conn, topic, queueGroup string) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(topic, queueGroup, a.HandleMessage)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
