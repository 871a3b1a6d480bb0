package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DatabaseName returns the database named in the path of a MongoDB URI.
func DatabaseName(mongoURI string) (string, error) {
	uri, err := url.Parse(mongoURI)
	if err != nil {
		return "", fmt.Errorf("parse mongodb uri: %w", err)
	}
	name := strings.TrimPrefix(uri.Path, "/")
	if name == "" {
		return "", fmt.Errorf("mongodb uri %q names no database", uri.Redacted())
	}
	return name, nil
}

// ConnectToDB connects and pings the server, then returns the database named
// in the URI path.
func ConnectToDB(ctx context.Context, mongoURI string) (*mongo.Database, error) {
	dbName, err := DatabaseName(mongoURI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client.Database(dbName), nil
}

// CreateTTLIndexForCollection expires documents once field is older than ttl.
func CreateTTLIndexForCollection(ctx context.Context, db *mongo.Database, collectionName, field string, ttl time.Duration) error {
	collection := db.Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("create ttl index on %s.%s: %w", collectionName, field, err)
	}
	return nil
}

// CreateUniqueIndex enforces uniqueness of field in the collection.
func CreateUniqueIndex(ctx context.Context, db *mongo.Database, collectionName, field string) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("create unique index on %s.%s: %w", collectionName, field, err)
	}
	return nil
}
