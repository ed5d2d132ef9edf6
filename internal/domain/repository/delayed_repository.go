package repository

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
)

// DelayedRepository persists the per-recipient quiet-hours queue.
type DelayedRepository interface {
	// Create persists a pending item.
	Create(ctx context.Context, item *entity.DelayedNotification) error

	// FindDue returns pending items with DeliverAt at or before now, oldest first.
	// An item whose stored event cannot be decoded is returned with a nil Event.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.DelayedNotification, error)

	// UpdateStatus moves an item from one status to another. It reports false
	// when the item was no longer in the from status, which is how a drain
	// claims an item (pending to processing) before sending it.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.DelayedStatus, reason entity.Reason, at time.Time) (bool, error)
}
