// Package artifact holds synthesized audio between the narration request
// and the playback or download requests that follow it.
package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/narrator/internal/models"
)

const DefaultTTL = 15 * time.Minute

var ErrNotFound = errors.New("artifact not found")

// Store keeps artifacts for a limited time. Get returns ErrNotFound for
// unknown or expired IDs.
type Store interface {
	Put(ctx context.Context, a *models.AudioArtifact) error
	Get(ctx context.Context, id uuid.UUID) (*models.AudioArtifact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
