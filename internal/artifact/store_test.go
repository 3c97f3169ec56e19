package artifact_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/narrator/internal/artifact"
	"github.com/nikhilbhutani/narrator/internal/models"
)

func sampleArtifact() *models.AudioArtifact {
	return &models.AudioArtifact{
		ID:          uuid.New(),
		Audio:       []byte{0x49, 0x44, 0x33, 0x00, 0xff},
		ContentType: "audio/mpeg",
		Format:      "mp3",
		SampleRate:  16000,
		VoiceID:     "en-US-AriaNeural",
		Model:       "gpt-4o-mini",
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_PutGetExpire(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := artifact.NewMemoryStore(time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	a := sampleArtifact()
	require.NoError(t, store.Put(ctx, a))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, a.ID)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
	assert.Zero(t, store.Len())
}

func TestMemoryStore_PruneOnPut(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := artifact.NewMemoryStore(time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleArtifact()))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Put(ctx, sampleArtifact()))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_MissingID(t *testing.T) {
	t.Parallel()

	store := artifact.NewMemoryStore(0)
	assert.Error(t, store.Put(context.Background(), &models.AudioArtifact{}))

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestRedisStore_RoundTripAndTTL(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := artifact.NewRedisStore(client, 10*time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	a := sampleArtifact()
	require.NoError(t, store.Put(ctx, a))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Audio, got.Audio)
	assert.Equal(t, a.VoiceID, got.VoiceID)
	assert.Equal(t, a.Model, got.Model)
	assert.Equal(t, a.SampleRate, got.SampleRate)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, 10*time.Minute, mr.TTL("narrator:artifact:"+a.ID.String()))

	mr.FastForward(11 * time.Minute)
	_, err = store.Get(ctx, a.ID)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := artifact.NewRedisStore(client, 0)
	ctx := context.Background()

	a := sampleArtifact()
	require.NoError(t, store.Put(ctx, a))
	require.NoError(t, store.Delete(ctx, a.ID))

	_, err := store.Get(ctx, a.ID)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}
