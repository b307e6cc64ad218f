package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pulsera/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestReadingStore(t *testing.T) (*miniredis.Miniredis, *ReadingStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return mr, NewReadingStore(NewRedisKV(client), zap.NewNop())
}

func TestReadingStore_Latest_NoData(t *testing.T) {
	_, s := setupTestReadingStore(t)

	reading, err := s.Latest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", reading.UserID)
	assert.Equal(t, models.StatusNoData, reading.Status)
}

func TestReadingStore_History_Empty(t *testing.T) {
	_, s := setupTestReadingStore(t)

	history, err := s.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestReadingStore_RecordAndReadBack(t *testing.T) {
	_, s := setupTestReadingStore(t)
	ctx := context.Background()

	score := 0.3
	hr := 72
	reading := models.Reading{
		UserID:    "user-1",
		Status:    models.StatusNormal,
		Score:     &score,
		HeartRate: &hr,
		Timestamp: time.Now().Unix(),
	}
	require.NoError(t, s.Record(ctx, reading))

	latest, err := s.Latest(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNormal, latest.Status)
	require.NotNil(t, latest.HeartRate)
	assert.Equal(t, 72, *latest.HeartRate)

	history, err := s.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusNormal, history[0].Status)
}

func TestReadingStore_Record_AppendsHistoryInOrder(t *testing.T) {
	_, s := setupTestReadingStore(t)
	ctx := context.Background()

	for i, status := range []string{models.StatusNormal, models.StatusElevated, models.StatusCritical} {
		require.NoError(t, s.Record(ctx, models.Reading{
			UserID:    "user-1",
			Status:    status,
			Timestamp: int64(1000 + i),
		}))
	}

	history, err := s.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.StatusNormal, history[0].Status)
	assert.Equal(t, models.StatusCritical, history[2].Status)

	latest, err := s.Latest(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCritical, latest.Status)
}

func TestReadingStore_Record_RequiresUserID(t *testing.T) {
	_, s := setupTestReadingStore(t)

	err := s.Record(context.Background(), models.Reading{Status: models.StatusNormal})
	assert.Error(t, err)
}

func TestReadingStore_CorruptCacheTreatedAsNoData(t *testing.T) {
	mr, s := setupTestReadingStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("pulsera:health:user-1:latest", "{not json"))
	require.NoError(t, mr.Set("pulsera:health:user-1:history", "{not json"))

	latest, err := s.Latest(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoData, latest.Status)

	history, err := s.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryKV_RoundTrip(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	data, err := json.Marshal(map[string]string{"k": "v"})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "key", string(data), time.Minute))

	val, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, val)
}
