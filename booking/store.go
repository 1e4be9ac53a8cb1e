/*
store.go - Persistence contract for the booking collection

PURPOSE:
  Defines the interface between the ledger and whatever holds the bytes.
  The whole collection lives under one fixed key as one serialized blob;
  the ledger reads it, computes the next value and writes it back.

VERSIONING:
  Every Read returns the version of the blob it saw (0 when nothing has been
  written yet). Write succeeds only if the stored version still equals the
  expected one, then bumps it. A mismatch is ErrConcurrentModification.
  This is what keeps two processes from silently clobbering each other's
  read-modify-write cycles.

IMPLEMENTATIONS:
  - booking/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go:  SQLite
  - store/redis/redis.go:    Redis (WATCH/MULTI)
  - store/mongo/mongo.go:    MongoDB (conditional upsert)
*/
package booking

import (
	"context"
	"encoding/json"
)

// CollectionKey is the fixed key the booking collection is stored under.
const CollectionKey = "one_earth_bookings"

// Snapshot is one read of the stored collection.
type Snapshot struct {
	Data    []byte // nil or empty when nothing is stored
	Version int64
}

// Store holds the serialized booking collection.
type Store interface {
	// Read returns the current blob and its version.
	Read(ctx context.Context) (Snapshot, error)

	// Write replaces the blob if the stored version equals expectedVersion.
	// Returns ErrConcurrentModification otherwise.
	Write(ctx context.Context, data []byte, expectedVersion int64) error
}

func decodeCollection(data []byte) ([]Booking, error) {
	if len(data) == 0 {
		return []Booking{}, nil
	}
	var bookings []Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}

func encodeCollection(bookings []Booking) ([]byte, error) {
	if bookings == nil {
		bookings = []Booking{}
	}
	return json.Marshal(bookings)
}
