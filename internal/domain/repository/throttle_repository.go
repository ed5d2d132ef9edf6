package repository

import (
	"context"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrThrottleRecordNotFound is returned when a signal has never been sent.
var ErrThrottleRecordNotFound = errors.New("throttle record not found")

// ThrottleRepository persists the last-sent state per (recipient, kind, subject).
type ThrottleRepository interface {
	// Find retrieves the record for the key.
	Find(ctx context.Context, recipientID uuid.UUID, kind entity.ThrottleKind, subject string) (*entity.ThrottleRecord, error)

	// Upsert writes the record, last write wins.
	Upsert(ctx context.Context, record *entity.ThrottleRecord) error
}
