package impl

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/domain/service"
	mockRepo "kinwatch/internal/mocks/repository"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func familyEvent(family *entity.Family, child *entity.Recipient, category entity.Category, severity entity.Severity) *entity.FamilyEvent {
	return &entity.FamilyEvent{
		FamilyID:  family.ID,
		ChildID:   child.ID,
		ChildName: child.DisplayName,
		Category:  category,
		Severity:  severity,
	}
}

func resultFor(t *testing.T, out *entity.FanOutResult, recipientID uuid.UUID) *entity.DeliveryResult {
	t.Helper()
	idx := slices.IndexFunc(out.Results, func(r *entity.DeliveryResult) bool { return r.RecipientID == recipientID })
	require.GreaterOrEqual(t, idx, 0, "no result for recipient")

	return out.Results[idx]
}

func TestDispatchService_CriticalFlag_CoParentIndependence(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	family, guardians, child := env.seedFamily(t, 2)
	a, b := guardians[0], guardians[1]
	env.addEndpoint(t, a.ID, "tok-a")
	env.updatePrefs(t, b.ID, &entity.PreferencesUpdate{CriticalEnabled: ptr(false)})

	env.push.EXPECT().
		SendMulticast(mock.Anything, []string{"tok-a"}, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	out, err := env.dispatch.DispatchFamilyEvent(ctx, familyEvent(family, child, entity.CategoryCriticalFlag, entity.SeverityCritical))
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, 0, out.Errors)

	resA := resultFor(t, out, a.ID)
	assert.True(t, resA.Sent)
	assert.Equal(t, entity.RouteImmediate, resA.Route)

	resB := resultFor(t, out, b.ID)
	assert.False(t, resB.Sent)
	assert.Equal(t, entity.RouteSkipped, resB.Route)
	assert.Equal(t, entity.ReasonCriticalDisabled, resB.Reason)

	histA := env.historyFor(a.ID)
	require.Len(t, histA, 1)
	assert.Equal(t, entity.StatusSent, histA[0].Status)

	histB := env.historyFor(b.ID)
	require.Len(t, histB, 1)
	assert.Equal(t, entity.StatusSkipped, histB[0].Status)
	assert.Equal(t, entity.ReasonCriticalDisabled, histB[0].Reason)
	assert.Empty(t, histB[0].Channel)

	assert.Empty(t, env.historyFor(child.ID), "family events go to guardians only")
}

func TestDispatchService_CategoryDisabledForOneGuardian(t *testing.T) {
	env := newServiceEnv(t, testNow)
	family, guardians, child := env.seedFamily(t, 2)
	a, b := guardians[0], guardians[1]
	env.addEndpoint(t, a.ID, "tok-a")
	env.addEndpoint(t, b.ID, "tok-b")
	env.updatePrefs(t, b.ID, &entity.PreferencesUpdate{Categories: map[entity.Category]bool{entity.CategoryContentFlag: false}})

	env.push.EXPECT().
		SendMulticast(mock.Anything, []string{"tok-a"}, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	out, err := env.dispatch.DispatchFamilyEvent(context.Background(), familyEvent(family, child, entity.CategoryContentFlag, entity.SeverityMedium))
	require.NoError(t, err)

	assert.Equal(t, entity.RouteImmediate, resultFor(t, out, a.ID).Route)
	assert.Equal(t, entity.ReasonCategoryDisabled, resultFor(t, out, b.ID).Reason)
}

func TestDispatchService_SyncThresholdAlreadyNotified(t *testing.T) {
	env := newServiceEnv(t, testNow.Add(-time.Hour))
	ctx := context.Background()
	_, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]
	env.addEndpoint(t, g.ID, "tok-1")

	signal := &entity.ThrottleSignal{Kind: entity.ThrottleSyncThreshold, Subject: child.ID.String(), ThresholdHrs: 4}
	require.NoError(t, env.throttle.Record(ctx, g.ID, signal))
	env.clock.Set(testNow)

	res, err := env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: g.ID,
		FamilyID:    g.FamilyID,
		ChildID:     child.ID,
		ChildName:   "Sam",
		Category:    entity.CategorySyncTimeout,
		Severity:    entity.SeverityMedium,
		Signal:      &entity.ThrottleSignal{Kind: entity.ThrottleSyncThreshold, Subject: child.ID.String(), ThresholdHrs: 4},
	})
	require.NoError(t, err)

	assert.False(t, res.Sent)
	assert.Equal(t, entity.ReasonThresholdAlreadyNotified, res.Reason)
	env.push.AssertNotCalled(t, "SendMulticast", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchService_SyncThresholdDerivedFromOfflineHours(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	_, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]
	env.addEndpoint(t, g.ID, "tok-1")
	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	event := func(hours string) *entity.NotificationEvent {
		return &entity.NotificationEvent{
			RecipientID: g.ID,
			FamilyID:    g.FamilyID,
			ChildID:     child.ID,
			Category:    entity.CategorySyncTimeout,
			Severity:    entity.SeverityMedium,
			Params:      map[string]string{"offline_hours": hours},
			Signal:      &entity.ThrottleSignal{Kind: entity.ThrottleSyncThreshold, Subject: child.ID.String()},
		}
	}

	res, err := env.dispatch.Dispatch(ctx, event("5"))
	require.NoError(t, err)
	assert.True(t, res.Sent)

	env.clock.Advance(time.Hour)
	res, err = env.dispatch.Dispatch(ctx, event("6"))
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonThresholdAlreadyNotified, res.Reason, "6h still maps to the 4h threshold")
}

func TestDispatchService_StealthSuppressesOnlyAffectedGuardian(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	family, guardians, child := env.seedFamily(t, 2)
	a, b := guardians[0], guardians[1]
	env.addEndpoint(t, a.ID, "tok-a")
	env.addEndpoint(t, b.ID, "tok-b")

	_, err := env.stealth.Activate(ctx, &usecase.ActivateStealthInput{
		FamilyID: family.ID, TicketID: "T-1", AffectedUserIDs: []uuid.UUID{a.ID},
	})
	require.NoError(t, err)

	env.push.EXPECT().
		SendMulticast(mock.Anything, []string{"tok-b"}, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	out, err := env.dispatch.DispatchFamilyEvent(ctx, familyEvent(family, child, entity.CategoryLocationTransition, entity.SeverityMedium))
	require.NoError(t, err)

	resA := resultFor(t, out, a.ID)
	assert.True(t, resA.Suppressed)
	assert.False(t, resA.Sent)
	assert.Equal(t, entity.ReasonSuppressedStealth, resA.Reason)
	assert.Empty(t, env.historyFor(a.ID), "suppression leaves no trace in family-visible history")

	queue := env.store.StealthQueue()
	require.Len(t, queue, 1)
	assert.Equal(t, a.ID, queue[0].TargetUserID)
	assert.Equal(t, entity.CategoryLocationTransition, queue[0].NotificationType)

	resB := resultFor(t, out, b.ID)
	assert.False(t, resB.Suppressed)
	assert.True(t, resB.Sent)
}

func TestDispatchService_StealthNeverSuppressesCriticalSafety(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	family, guardians, child := env.seedFamily(t, 1)
	a := guardians[0]
	env.addEndpoint(t, a.ID, "tok-a")

	_, err := env.stealth.Activate(ctx, &usecase.ActivateStealthInput{
		FamilyID: family.ID, TicketID: "T-1", AffectedUserIDs: []uuid.UUID{a.ID},
	})
	require.NoError(t, err)

	env.push.EXPECT().
		SendMulticast(mock.Anything, []string{"tok-a"}, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	out, err := env.dispatch.DispatchFamilyEvent(ctx, familyEvent(family, child, entity.CategorySelfHarmAlert, entity.SeverityCritical))
	require.NoError(t, err)
	assert.True(t, resultFor(t, out, a.ID).Sent)
	assert.Empty(t, env.store.StealthQueue())
}

func TestDispatchService_QuietHoursDelayAndDrain(t *testing.T) {
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	env := newServiceEnv(t, night)
	ctx := context.Background()
	_, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]
	env.addEndpoint(t, g.ID, "tok-1")
	env.updatePrefs(t, g.ID, &entity.PreferencesUpdate{
		QuietHours: &entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"},
	})

	res, err := env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: g.ID,
		FamilyID:    g.FamilyID,
		ChildID:     child.ID,
		Category:    entity.CategoryContentFlag,
		Severity:    entity.SeverityMedium,
	})
	require.NoError(t, err)
	assert.True(t, res.Delayed)
	assert.Equal(t, entity.RouteDelayed, res.Route)
	assert.Equal(t, entity.ReasonQuietHoursDelayed, res.Reason)

	delayed := env.store.DelayedItems()
	require.Len(t, delayed, 1)
	morning := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, morning, delayed[0].DeliverAt)

	history := env.historyFor(g.ID)
	require.Len(t, history, 1)
	assert.Equal(t, entity.StatusDelayed, history[0].Status)

	report, err := env.dispatch.ProcessDelayedQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due, "nothing is due before the window ends")

	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()
	env.clock.Set(morning)

	report, err = env.dispatch.ProcessDelayedQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, entity.DelayedDelivered, env.store.DelayedItems()[0].Status)

	report, err = env.dispatch.ProcessDelayedQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due, "a second run finds nothing pending")
}

func TestDispatchService_DelayedItemSuppressedWhenStealthStarts(t *testing.T) {
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	env := newServiceEnv(t, night)
	ctx := context.Background()
	family, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]
	env.updatePrefs(t, g.ID, &entity.PreferencesUpdate{
		QuietHours: &entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"},
	})

	_, err := env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: g.ID, FamilyID: family.ID, ChildID: child.ID,
		Category: entity.CategoryContentFlag, Severity: entity.SeverityMedium,
	})
	require.NoError(t, err)

	_, err = env.stealth.Activate(ctx, &usecase.ActivateStealthInput{
		FamilyID: family.ID, TicketID: "T-1", AffectedUserIDs: []uuid.UUID{g.ID},
	})
	require.NoError(t, err)

	env.clock.Set(time.Date(2026, 3, 11, 7, 30, 0, 0, time.UTC))
	report, err := env.dispatch.ProcessDelayedQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Suppressed)
	assert.Equal(t, entity.DelayedSuppressed, env.store.DelayedItems()[0].Status)
}

func TestDispatchService_QuietHoursImmuneCategory(t *testing.T) {
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	env := newServiceEnv(t, night)
	_, guardians, _ := env.seedFamily(t, 1)
	g := guardians[0]
	env.addEndpoint(t, g.ID, "tok-1")
	env.updatePrefs(t, g.ID, &entity.PreferencesUpdate{
		QuietHours: &entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"},
	})
	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	res, err := env.dispatch.Dispatch(context.Background(), &entity.NotificationEvent{
		RecipientID: g.ID,
		FamilyID:    g.FamilyID,
		Category:    entity.CategoryLoginAlert,
		Severity:    entity.SeverityMedium,
		Params:      map[string]string{"device": "Pixel 9"},
	})
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Empty(t, env.store.DelayedItems())
}

func TestDispatchService_RoutesToDigest(t *testing.T) {
	env := newServiceEnv(t, testNow)
	_, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]

	res, err := env.dispatch.Dispatch(context.Background(), &entity.NotificationEvent{
		RecipientID: g.ID, FamilyID: g.FamilyID, ChildID: child.ID, ChildName: "Sam",
		Category: entity.CategoryLimitReached, Severity: entity.SeverityLow,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RouteDailyDigest, res.Route)
	assert.Equal(t, entity.ReasonQueuedDailyDigest, res.Reason)

	items := env.store.DigestItems()
	require.Len(t, items, 1)
	assert.Equal(t, entity.DigestDaily, items[0].DigestType)
	assert.Equal(t, "Sam", items[0].ChildName)
}

func TestDispatchService_DailyOnce(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	_, guardians, _ := env.seedFamily(t, 1)
	g := guardians[0]
	env.addEndpoint(t, g.ID, "tok-1")
	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Twice()

	event := func() *entity.NotificationEvent {
		return &entity.NotificationEvent{
			RecipientID: g.ID, FamilyID: g.FamilyID,
			Category: entity.CategoryLimitReached, Severity: entity.SeverityMedium,
			DailyOnceKey: "limit_reached:screen",
		}
	}

	res, err := env.dispatch.Dispatch(ctx, event())
	require.NoError(t, err)
	assert.True(t, res.Sent)

	env.clock.Advance(3 * time.Hour)
	res, err = env.dispatch.Dispatch(ctx, event())
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonAlreadySentToday, res.Reason)

	env.clock.Set(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC))
	res, err = env.dispatch.Dispatch(ctx, event())
	require.NoError(t, err)
	assert.True(t, res.Sent, "the key resets at local midnight")
}

func TestDispatchService_ThrottleRecordedOnlyAfterSuccess(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	_, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]

	event := func() *entity.NotificationEvent {
		return &entity.NotificationEvent{
			RecipientID: g.ID, FamilyID: g.FamilyID, ChildID: child.ID,
			Category: entity.CategoryStatusTransition, Severity: entity.SeverityMedium,
			Signal: &entity.ThrottleSignal{Kind: entity.ThrottleStatusTransition, Subject: child.ID.String(), Discriminator: "ok->warning"},
		}
	}

	res, err := env.dispatch.Dispatch(ctx, event())
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Equal(t, entity.ReasonNoTokens, res.Reason)

	env.addEndpoint(t, g.ID, "tok-1")
	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	res, err = env.dispatch.Dispatch(ctx, event())
	require.NoError(t, err)
	assert.True(t, res.Sent, "a failed send does not block the retry")

	res, err = env.dispatch.Dispatch(ctx, event())
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonThrottled, res.Reason)
}

func TestDispatchService_StatusThrottleIsPerChild(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	_, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]
	sibling := uuid.New()
	env.addEndpoint(t, g.ID, "tok-1")

	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Twice()

	event := func(childID uuid.UUID) *entity.NotificationEvent {
		return &entity.NotificationEvent{
			RecipientID: g.ID, FamilyID: g.FamilyID, ChildID: childID,
			Category: entity.CategoryStatusTransition, Severity: entity.SeverityMedium,
			Signal: &entity.ThrottleSignal{Kind: entity.ThrottleStatusTransition, Discriminator: "ok->warning"},
		}
	}

	res, err := env.dispatch.Dispatch(ctx, event(child.ID))
	require.NoError(t, err)
	assert.True(t, res.Sent)

	res, err = env.dispatch.Dispatch(ctx, event(sibling))
	require.NoError(t, err)
	assert.True(t, res.Sent, "a sibling's transition is not throttled by another child's")

	res, err = env.dispatch.Dispatch(ctx, event(child.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonThrottled, res.Reason)
}

func TestDispatchService_ResolveSignalKeepsSharedSignal(t *testing.T) {
	env := newServiceEnv(t, testNow)
	srv := env.dispatch.(*dispatchService)
	shared := &entity.ThrottleSignal{Kind: entity.ThrottleSyncThreshold}
	childID := uuid.New()

	event := &entity.NotificationEvent{ChildID: childID, Signal: shared, Params: map[string]string{paramOfflineHours: "5"}}
	srv.resolveSignal(event)

	assert.Equal(t, childID.String(), event.Signal.Subject)
	assert.Positive(t, event.Signal.ThresholdHrs)
	assert.Empty(t, shared.Subject)
	assert.Zero(t, shared.ThresholdHrs)

	login := &entity.ThrottleSignal{Kind: entity.ThrottleLoginFingerprint, Discriminator: "fp-1"}
	event = &entity.NotificationEvent{ChildID: childID, Signal: login}
	srv.resolveSignal(event)
	assert.Same(t, login, event.Signal)
}

func TestDispatchService_DegradedPreferences(t *testing.T) {
	prefRepo := mockRepo.NewMockPreferenceRepository(t)
	env := newServiceEnv(t, testNow, withPreferenceRepo(prefRepo))
	ctx := context.Background()
	_, guardians, _ := env.seedFamily(t, 1)
	g := guardians[0]
	env.addEndpoint(t, g.ID, "tok-1")

	prefRepo.EXPECT().
		Find(mock.Anything, g.ID).
		Return(nil, errors.New("firestore unavailable"))
	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Twice()

	res, err := env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: g.ID, FamilyID: g.FamilyID,
		Category: entity.CategoryLoginAlert, Severity: entity.SeverityMedium,
	})
	require.NoError(t, err)
	assert.True(t, res.Sent, "required categories are delivered with safe defaults")

	res, err = env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: g.ID, FamilyID: g.FamilyID,
		Category: entity.CategoryContentFlag, Severity: entity.SeverityMedium,
	})
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Equal(t, entity.ReasonPreferencesUnavailable, res.Reason)

	res, err = env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: g.ID, FamilyID: g.FamilyID,
		Category: entity.CategoryContentFlag, Severity: entity.SeverityCritical,
	})
	require.NoError(t, err)
	assert.True(t, res.Sent, "a critical content flag is delivered on safe defaults")
}

func TestDispatchService_FanOutIsolatesFailures(t *testing.T) {
	env := newServiceEnv(t, testNow)
	family, guardians, child := env.seedFamily(t, 3)
	env.addEndpoint(t, guardians[0].ID, "tok-ok")
	env.addEndpoint(t, guardians[1].ID, "tok-boom")
	env.addEndpoint(t, guardians[2].ID, "tok-ok-2")

	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, tokens []string, title, body string, data map[string]string) (*service.MulticastResult, error) {
			if slices.Contains(tokens, "tok-boom") {
				panic("provider client crashed")
			}

			return multicastResult(tokens), nil
		})

	out, err := env.dispatch.DispatchFamilyEvent(context.Background(), familyEvent(family, child, entity.CategoryCriticalFlag, entity.SeverityCritical))
	require.NoError(t, err)

	assert.Equal(t, 1, out.Errors)
	require.Len(t, out.Results, 2)
	for _, res := range out.Results {
		assert.True(t, res.Sent)
		assert.NotEqual(t, guardians[1].ID, res.RecipientID)
	}
}

func TestDispatchService_NoRecipients(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()

	out, err := env.dispatch.DispatchFamilyEvent(ctx, &entity.FamilyEvent{
		FamilyID: uuid.New(),
		Category: entity.CategoryContentFlag,
		Severity: entity.SeverityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonNoRecipients, out.Reason)
	assert.Empty(t, out.Results)

	res, err := env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: uuid.New(), FamilyID: uuid.New(),
		Category: entity.CategoryContentFlag, Severity: entity.SeverityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonNoRecipients, res.Reason)
}

func TestDispatchService_InvalidEvent(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()

	_, err := env.dispatch.Dispatch(ctx, &entity.NotificationEvent{RecipientID: uuid.New(), FamilyID: uuid.New(), Category: "bogus", Severity: entity.SeverityLow})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidEvent)

	_, err = env.dispatch.DispatchFamilyEvent(ctx, &entity.FamilyEvent{FamilyID: uuid.New(), Category: entity.CategoryContentFlag, Severity: "urgent"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidEvent)
}

func TestDispatchService_OverlappingDelayedDrainsSendOnce(t *testing.T) {
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	meet := newRendezvous(2)
	env := newServiceEnv(t, night, withDelayedRepo(func(inner repository.DelayedRepository) repository.DelayedRepository {
		return &overlappingDelayedRepo{DelayedRepository: inner, meet: meet}
	}))
	ctx := context.Background()
	_, guardians, child := env.seedFamily(t, 1)
	g := guardians[0]
	env.addEndpoint(t, g.ID, "tok-1")
	env.updatePrefs(t, g.ID, &entity.PreferencesUpdate{
		QuietHours: &entity.QuietHours{Enabled: true, Start: "22:00", End: "07:00"},
	})

	res, err := env.dispatch.Dispatch(ctx, &entity.NotificationEvent{
		RecipientID: g.ID, FamilyID: g.FamilyID, ChildID: child.ID,
		Category: entity.CategoryContentFlag, Severity: entity.SeverityMedium,
	})
	require.NoError(t, err)
	require.True(t, res.Delayed)

	var sends atomic.Int32
	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, tokens []string, title, body string, data map[string]string) (*service.MulticastResult, error) {
			sends.Add(1)

			return pushDelivers()(ctx, tokens, title, body, data)
		}).
		Maybe()
	env.clock.Set(time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC))

	reports := make([]*usecase.DelayedRunReport, 2)
	var wg sync.WaitGroup
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := env.dispatch.ProcessDelayedQueue(ctx)
			assert.NoError(t, err)
			reports[i] = report
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), sends.Load())
	require.NotNil(t, reports[0])
	require.NotNil(t, reports[1])
	assert.Equal(t, 1, reports[0].Due)
	assert.Equal(t, 1, reports[1].Due, "both drains saw the item")
	assert.Equal(t, 1, reports[0].Delivered+reports[1].Delivered)
	assert.Equal(t, 1, reports[0].Skipped+reports[1].Skipped)
	assert.Equal(t, entity.DelayedDelivered, env.store.DelayedItems()[0].Status)
}

func TestDispatchService_UnreadableDelayedPayloadDoesNotBlockQueue(t *testing.T) {
	env := newServiceEnv(t, testNow)
	ctx := context.Background()
	_, guardians, child := env.seedFamily(t, 2)
	broken, healthy := guardians[0], guardians[1]
	env.addEndpoint(t, healthy.ID, "tok-ok")

	require.NoError(t, env.delayedRepo.Create(ctx, &entity.DelayedNotification{
		ID: uuid.New(), RecipientID: broken.ID, FamilyID: broken.FamilyID,
		Category: entity.CategoryContentFlag, DeliverAt: testNow.Add(-2 * time.Hour), Status: entity.DelayedPending,
	}))
	require.NoError(t, env.delayedRepo.Create(ctx, &entity.DelayedNotification{
		ID: uuid.New(), RecipientID: healthy.ID, FamilyID: healthy.FamilyID,
		Category: entity.CategoryContentFlag, DeliverAt: testNow.Add(-time.Hour), Status: entity.DelayedPending,
		Event: &entity.NotificationEvent{
			ID: uuid.New(), RecipientID: healthy.ID, FamilyID: healthy.FamilyID, ChildID: child.ID,
			Category: entity.CategoryContentFlag, Severity: entity.SeverityMedium, BypassQuietHours: true,
		},
	}))

	env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers()).
		Once()

	report, err := env.dispatch.ProcessDelayedQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Due)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)

	for _, item := range env.store.DelayedItems() {
		if item.RecipientID == broken.ID {
			assert.Equal(t, entity.DelayedFailed, item.Status)
			assert.Equal(t, entity.ReasonPayloadUnreadable, item.Reason)
		} else {
			assert.Equal(t, entity.DelayedDelivered, item.Status)
		}
	}
}
