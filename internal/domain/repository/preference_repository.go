package repository

import (
	"context"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrPreferencesNotFound is returned when no preference record exists yet.
var ErrPreferencesNotFound = errors.New("preferences not found")

// PreferenceRepository persists per-recipient notification preferences.
type PreferenceRepository interface {
	// Find retrieves the stored record for a recipient.
	Find(ctx context.Context, recipientID uuid.UUID) (*entity.Preferences, error)

	// CreateIfAbsent inserts prefs unless a record already exists, then returns
	// whichever record is stored. The read-check-write is atomic.
	CreateIfAbsent(ctx context.Context, prefs *entity.Preferences) (*entity.Preferences, error)

	// Update replaces the stored record.
	Update(ctx context.Context, prefs *entity.Preferences) error
}
