package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneearth/travel-engine/booking"
)

func TestSnapshotFrom(t *testing.T) {
	tests := []struct {
		name    string
		vals    []any
		want    booking.Snapshot
		wantErr bool
	}{
		{"missing key", []any{nil, nil}, booking.Snapshot{}, false},
		{"stored", []any{`[]`, "3"}, booking.Snapshot{Data: []byte(`[]`), Version: 3}, false},
		{"bad version", []any{`[]`, "three"}, booking.Snapshot{}, true},
		{"bad data type", []any{42, "1"}, booking.Snapshot{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := snapshotFrom(tt.vals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Integration tests run against a real server when REDIS_ADDR is set.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	s := NewWithClient(client, "test:"+t.Name())
	require.NoError(t, s.Reset(context.Background()))
	t.Cleanup(func() { s.Reset(context.Background()) })
	return s
}

func TestStore_Integration_VersionedWrites(t *testing.T) {
	ctx := context.Background()
	s := newIntegrationStore(t)

	snap, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.Version)

	require.NoError(t, s.Write(ctx, []byte(`[]`), 0))
	assert.ErrorIs(t, s.Write(ctx, []byte(`[1]`), 0), booking.ErrConcurrentModification)
	require.NoError(t, s.Write(ctx, []byte(`[2]`), 1))

	snap, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(snap.Data))
	assert.Equal(t, int64(2), snap.Version)
}
