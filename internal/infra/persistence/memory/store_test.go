package memory

import (
	"context"
	"testing"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	family := &entity.Family{ID: uuid.New()}
	require.NoError(t, NewFamilyRepository(store).Create(ctx, family))

	errBoom := errors.New("boom")
	err := NewTransactionManager(store).Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		loaded, err := repoFactory.NewFamilyRepository().FindByIDForUpdate(ctx, family.ID)
		require.NoError(t, err)

		end := storeNow.Add(time.Hour)
		loaded.ApplyStealthWindow(entity.StealthWindow{Active: true, TicketID: "T-1", WindowStart: storeNow, WindowEnd: end})
		require.NoError(t, repoFactory.NewFamilyRepository().UpdateStealth(ctx, loaded))
		require.NoError(t, repoFactory.NewAdminAuditRepository().Create(ctx, &entity.AdminAuditEntry{
			ID: uuid.New(), Action: entity.AuditStealthActivated, FamilyID: family.ID, CreatedAt: storeNow,
		}))

		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	stored, err := NewFamilyRepository(store).FindByID(ctx, family.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasStealthState())
	assert.Empty(t, store.AdminAudit())
}

func TestTransactionManager_RollsBackOnPanic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = NewTransactionManager(store).Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			require.NoError(t, repoFactory.NewFamilyRepository().Create(ctx, &entity.Family{ID: uuid.New()}))
			panic("unexpected")
		})
	})

	assert.Empty(t, store.families)
}

func TestTransactionManager_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewTransactionManager(NewStore()).Execute(ctx, func(repository.RepositoryFactory) error {
		called = true

		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDelayedRepository_UpdateStatusOnlyOnce(t *testing.T) {
	store := NewStore()
	repo := NewDelayedRepository(store)
	ctx := context.Background()

	early := &entity.DelayedNotification{Status: entity.DelayedPending, DeliverAt: storeNow.Add(-2 * time.Hour)}
	late := &entity.DelayedNotification{Status: entity.DelayedPending, DeliverAt: storeNow.Add(-time.Hour)}
	future := &entity.DelayedNotification{Status: entity.DelayedPending, DeliverAt: storeNow.Add(time.Hour)}
	for _, item := range []*entity.DelayedNotification{late, future, early} {
		require.NoError(t, repo.Create(ctx, item))
	}

	due, err := repo.FindDue(ctx, storeNow, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)

	ok, err := repo.UpdateStatus(ctx, early.ID, entity.DelayedPending, entity.DelayedProcessing, "", storeNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, early.ID, entity.DelayedPending, entity.DelayedProcessing, "", storeNow)
	require.NoError(t, err)
	assert.False(t, ok, "a claimed item cannot be claimed again")

	ok, err = repo.UpdateStatus(ctx, early.ID, entity.DelayedProcessing, entity.DelayedDelivered, entity.ReasonSent, storeNow)
	require.NoError(t, err)
	assert.True(t, ok)

	due, err = repo.FindDue(ctx, storeNow, 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, late.ID, due[0].ID)
}

func TestPushEndpointRepository_DeleteByToken(t *testing.T) {
	store := NewStore()
	repo := NewPushEndpointRepository(store)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	require.NoError(t, repo.Create(ctx, &entity.PushEndpoint{RecipientID: owner, Token: "tok", DeviceID: "a", IsActive: true}))
	require.NoError(t, repo.Create(ctx, &entity.PushEndpoint{RecipientID: other, Token: "tok", DeviceID: "b", IsActive: true}))

	require.NoError(t, repo.DeleteByToken(ctx, owner, "tok"))
	assert.ErrorIs(t, repo.DeleteByToken(ctx, owner, "tok"), repository.ErrEndpointNotFound)

	remaining, err := repo.FindByRecipient(ctx, other)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDigestRepository_MarkProcessedReturnsOnlyNewlyMarked(t *testing.T) {
	store := NewStore()
	repo := NewDigestRepository(store)
	ctx := context.Background()
	recipientID := uuid.New()

	first := &entity.DigestItem{ID: uuid.New(), RecipientID: recipientID, DigestType: entity.DigestHourly}
	second := &entity.DigestItem{ID: uuid.New(), RecipientID: recipientID, DigestType: entity.DigestHourly}
	require.NoError(t, repo.Enqueue(ctx, first))
	require.NoError(t, repo.Enqueue(ctx, second))

	marked, err := repo.MarkProcessed(ctx, []uuid.UUID{first.ID}, storeNow)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, marked)

	marked, err = repo.MarkProcessed(ctx, []uuid.UUID{first.ID, second.ID}, storeNow)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, marked)

	pending, err := repo.FindPending(ctx, recipientID, entity.DigestHourly)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
