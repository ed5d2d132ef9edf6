package repository

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
)

// HistoryRepository is the append-only delivery log.
type HistoryRepository interface {
	// Append writes one entry.
	Append(ctx context.Context, entry *entity.HistoryEntry) error

	// BatchAppend writes several entries at once.
	BatchAppend(ctx context.Context, entries []*entity.HistoryEntry) error

	// HasSentSince reports whether a sent entry with the dedup key exists for the recipient since the given time.
	HasSentSince(ctx context.Context, recipientID uuid.UUID, dedupKey string, since time.Time) (bool, error)

	// ListByRecipient returns the most recent entries for a recipient.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*entity.HistoryEntry, error)
}
