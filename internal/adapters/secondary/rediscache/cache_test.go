package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/core/domain"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, time.Second), mr
}

func TestCache_GetMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	var snap domain.FlightSnapshot
	found, err := cache.Get(context.Background(), FlightStatusKey(uuid.New()), &snap)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_UpsertThenGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	id := uuid.New()
	snap := domain.FlightSnapshot{
		FlightID: id.String(),
		FlightNo: "BA117",
		Status:   string(domain.FlightBoarding),
	}

	require.NoError(t, cache.Upsert(ctx, FlightStatusKey(id), snap, time.Hour))

	var got domain.FlightSnapshot
	found, err := cache.Get(ctx, FlightStatusKey(id), &got)

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, snap.FlightNo, got.FlightNo)
	assert.Equal(t, string(domain.FlightBoarding), got.Status)
}

func TestCache_UpsertOverwritesPrevious(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	id := uuid.New()
	key := FlightStatusKey(id)

	require.NoError(t, cache.Upsert(ctx, key, domain.FlightSnapshot{FlightID: id.String(), Status: string(domain.FlightScheduled)}, time.Hour))
	require.NoError(t, cache.Upsert(ctx, key, domain.FlightSnapshot{FlightID: id.String(), Status: string(domain.FlightDeparted)}, time.Hour))

	var got domain.FlightSnapshot
	found, err := cache.Get(ctx, key, &got)

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, string(domain.FlightDeparted), got.Status)
}

func TestCache_EntryExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	key := BaggageKey("BAG-001")
	require.NoError(t, cache.Upsert(ctx, key, domain.BaggageSnapshot{TagID: "BAG-001"}, 10*time.Minute))

	mr.FastForward(11 * time.Minute)

	var got domain.BaggageSnapshot
	found, err := cache.Get(ctx, key, &got)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, cache.Upsert(ctx, FlightStatusKey(id), domain.FlightSnapshot{FlightID: id.String()}, time.Hour))
	require.NoError(t, cache.Upsert(ctx, FlightSearchKey("BA117"), domain.FlightSnapshot{FlightID: id.String()}, time.Hour))

	require.NoError(t, cache.Invalidate(ctx, FlightStatusKey(id), FlightSearchKey("BA117")))

	var got domain.FlightSnapshot
	found, err := cache.Get(ctx, FlightStatusKey(id), &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = cache.Get(ctx, FlightSearchKey("BA117"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_CorruptEntryTreatedAsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	key := BaggageKey("BAG-002")
	mr.Set(key, "{not json")

	var got domain.BaggageSnapshot
	found, err := cache.Get(ctx, key, &got)

	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(key))
}
