package repository

import (
	"context"
	"time"

	"kinwatch/internal/domain/entity"
)

// StealthQueueRepository stores sealed captures. It deliberately has no
// family-facing read method.
type StealthQueueRepository interface {
	// Create writes a sealed entry.
	Create(ctx context.Context, entry *entity.StealthQueueEntry) error

	// DeleteExpired removes entries whose ExpiresAt is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AdminAuditRepository appends to the admin-only audit trail.
type AdminAuditRepository interface {
	// Create appends an entry.
	Create(ctx context.Context, entry *entity.AdminAuditEntry) error
}
