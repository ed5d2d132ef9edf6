package repository

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
)

// DigestRepository persists digest queue items. Items are never deleted.
type DigestRepository interface {
	// Enqueue appends an item.
	Enqueue(ctx context.Context, item *entity.DigestItem) error

	// FindPending returns unprocessed items of a type for a recipient, oldest first.
	FindPending(ctx context.Context, recipientID uuid.UUID, digestType entity.DigestType) ([]*entity.DigestItem, error)

	// MarkProcessed flags the still-unprocessed items among ids and returns
	// the ones it flagged. Only the caller that flagged an item may send it.
	MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) ([]uuid.UUID, error)

	// FindRecipientsWithPending lists recipients that have unprocessed items of a type.
	FindRecipientsWithPending(ctx context.Context, digestType entity.DigestType) ([]uuid.UUID, error)

	// HasProcessedSince reports whether any item of a type was processed for the recipient since the given time.
	HasProcessedSince(ctx context.Context, recipientID uuid.UUID, digestType entity.DigestType, since time.Time) (bool, error)
}
