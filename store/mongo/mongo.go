// Package mongo provides a MongoDB-backed implementation of booking.Store.
//
// The collection is one document {_id: booking.CollectionKey, data, version}.
// A versioned write filters on the expected version; the first write upserts
// and loses to a concurrent first write on the _id duplicate key.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oneearth/travel-engine/booking"
)

const DefaultCollection = "booking_collections"

type document struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	key    string
}

// New connects to uri and pings the server within timeout.
func New(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := NewWithCollection(client.Database(database).Collection(DefaultCollection), booking.CollectionKey)
	s.client = client
	return s, nil
}

// NewWithCollection uses an existing collection handle.
func NewWithCollection(coll *mongo.Collection, key string) *Store {
	return &Store{coll: coll, key: key}
}

// Close disconnects the client when the store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) Read(ctx context.Context) (booking.Snapshot, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return booking.Snapshot{}, nil
	}
	if err != nil {
		return booking.Snapshot{}, fmt.Errorf("failed to read collection: %w", err)
	}
	return booking.Snapshot{Data: []byte(doc.Data), Version: doc.Version}, nil
}

func (s *Store) Write(ctx context.Context, data []byte, expectedVersion int64) error {
	filter := bson.M{"_id": s.key, "version": expectedVersion}
	update := bson.M{"$set": bson.M{
		"data":       string(data),
		"version":    expectedVersion + 1,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(expectedVersion == 0)

	res, err := s.coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		return booking.ErrConcurrentModification
	}
	if err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return booking.ErrConcurrentModification
	}
	return nil
}

// Reset deletes the collection document (dev only).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.key})
	return err
}
