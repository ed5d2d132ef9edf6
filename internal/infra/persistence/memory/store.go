// Package memory contains an in-process implementation of the persistence
// layer. It backs the "memory" storage driver and the usecase tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
)

type throttleKey struct {
	recipientID uuid.UUID
	kind        entity.ThrottleKind
	subject     string
}

// Store holds every collection behind one lock.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	families    map[uuid.UUID]*entity.Family
	recipients  map[uuid.UUID]*entity.Recipient
	preferences map[uuid.UUID]*entity.Preferences
	throttles   map[throttleKey]*entity.ThrottleRecord
	stealthQ    []*entity.StealthQueueEntry
	audit       []*entity.AdminAuditEntry
	digest      []*entity.DigestItem
	delayed     []*entity.DelayedNotification
	history     []*entity.HistoryEntry
	endpoints   map[uuid.UUID]*entity.PushEndpoint
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		families:    make(map[uuid.UUID]*entity.Family),
		recipients:  make(map[uuid.UUID]*entity.Recipient),
		preferences: make(map[uuid.UUID]*entity.Preferences),
		throttles:   make(map[throttleKey]*entity.ThrottleRecord),
		endpoints:   make(map[uuid.UUID]*entity.PushEndpoint),
	}
}

// snapshot captures the collections a transaction may touch.
type snapshot struct {
	families    map[uuid.UUID]*entity.Family
	preferences map[uuid.UUID]*entity.Preferences
	stealthQ    []*entity.StealthQueueEntry
	audit       []*entity.AdminAuditEntry
}

func (s *Store) takeSnapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return snapshot{
		families:    maps.Clone(s.families),
		preferences: maps.Clone(s.preferences),
		stealthQ:    slices.Clone(s.stealthQ),
		audit:       slices.Clone(s.audit),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.families = snap.families
	s.preferences = snap.preferences
	s.stealthQ = snap.stealthQ
	s.audit = snap.audit
}

// transactionManager serialises transactions and restores the touched
// collections when the callback fails. Stored values are replaced, never
// mutated in place, so a shallow snapshot is enough.
type transactionManager struct {
	store *Store
}

// NewTransactionManager is the constructor for the in-memory TransactionManager.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

// Execute runs fn with repositories bound to the store.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) (err error) {
	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	snap := tm.store.takeSnapshot()
	defer func() {
		if r := recover(); r != nil {
			tm.store.restore(snap)
			panic(r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&repositoryFactory{store: tm.store}); err != nil {
		tm.store.restore(snap)

		return err
	}

	return nil
}

type repositoryFactory struct {
	store *Store
}

func (f *repositoryFactory) NewFamilyRepository() repository.FamilyRepository {
	return NewFamilyRepository(f.store)
}

func (f *repositoryFactory) NewPreferenceRepository() repository.PreferenceRepository {
	return NewPreferenceRepository(f.store)
}

func (f *repositoryFactory) NewAdminAuditRepository() repository.AdminAuditRepository {
	return NewAdminAuditRepository(f.store)
}

func (f *repositoryFactory) NewStealthQueueRepository() repository.StealthQueueRepository {
	return NewStealthQueueRepository(f.store)
}

// StealthQueue returns a copy of the sealed queue. Only tests and admin tooling read it.
func (s *Store) StealthQueue() []entity.StealthQueueEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.StealthQueueEntry, 0, len(s.stealthQ))
	for _, e := range s.stealthQ {
		out = append(out, *e)
	}

	return out
}

// AdminAudit returns a copy of the admin audit trail.
func (s *Store) AdminAudit() []entity.AdminAuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.AdminAuditEntry, 0, len(s.audit))
	for _, e := range s.audit {
		out = append(out, *e)
	}

	return out
}

// History returns a copy of the delivery log in append order.
func (s *Store) History() []entity.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.HistoryEntry, 0, len(s.history))
	for _, e := range s.history {
		out = append(out, *e)
	}

	return out
}

// DigestItems returns a copy of every digest item.
func (s *Store) DigestItems() []entity.DigestItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.DigestItem, 0, len(s.digest))
	for _, e := range s.digest {
		out = append(out, *e)
	}

	return out
}

// DelayedItems returns a copy of the delayed queue.
func (s *Store) DelayedItems() []entity.DelayedNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.DelayedNotification, 0, len(s.delayed))
	for _, e := range s.delayed {
		out = append(out, *e)
	}

	return out
}
