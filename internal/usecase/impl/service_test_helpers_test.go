package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"kinwatch/config"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/policy"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/infra/content"
	"kinwatch/internal/infra/persistence/memory"
	mockService "kinwatch/internal/mocks/service"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Email:        &config.EmailConfig{AppURL: "https://app.example.test"},
		Notification: (&config.NotificationConfig{FanOutConcurrency: 4}).WithDefaults(),
	}
}

// fakeClock is a settable clock shared by every service of a test env.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// serviceEnv wires every service against the in-memory store and mocked providers.
type serviceEnv struct {
	store  *memory.Store
	clock  *fakeClock
	cfg    *config.Config
	push   *mockService.MockPushService
	email  *mockService.MockEmailService
	sms    *mockService.MockSMSService
	logger *slog.Logger

	familyRepo    repository.FamilyRepository
	recipientRepo repository.RecipientRepository
	endpointRepo  repository.PushEndpointRepository
	delayedRepo   repository.DelayedRepository
	digestRepo    repository.DigestRepository
	prefRepo      repository.PreferenceRepository

	stealth     usecase.StealthUsecase
	preferences usecase.PreferenceUsecase
	throttle    usecase.ThrottleUsecase
	devices     usecase.DeviceUsecase
	delivery    usecase.DeliveryUsecase
	digest      usecase.DigestUsecase
	dispatch    usecase.DispatchUsecase
	jobs        usecase.JobsUsecase
}

type envOption func(*serviceEnv)

// withFamilyRepo swaps the family repository seen by the stealth gate.
func withFamilyRepo(repo repository.FamilyRepository) envOption {
	return func(e *serviceEnv) { e.familyRepo = repo }
}

// withDelayedRepo wraps the delayed queue repository.
func withDelayedRepo(wrap func(repository.DelayedRepository) repository.DelayedRepository) envOption {
	return func(e *serviceEnv) { e.delayedRepo = wrap(e.delayedRepo) }
}

// withDigestRepo wraps the digest queue repository.
func withDigestRepo(wrap func(repository.DigestRepository) repository.DigestRepository) envOption {
	return func(e *serviceEnv) { e.digestRepo = wrap(e.digestRepo) }
}

// withPreferenceRepo swaps the preference repository read by the preference service.
func withPreferenceRepo(repo repository.PreferenceRepository) envOption {
	return func(e *serviceEnv) { e.prefRepo = repo }
}

func newServiceEnv(t *testing.T, now time.Time, opts ...envOption) *serviceEnv {
	t.Helper()

	store := memory.NewStore()
	env := &serviceEnv{
		store:         store,
		clock:         newFakeClock(now),
		cfg:           newTestConfig(),
		push:          mockService.NewMockPushService(t),
		email:         mockService.NewMockEmailService(t),
		sms:           mockService.NewMockSMSService(t),
		logger:        newDiscardLogger(),
		familyRepo:    memory.NewFamilyRepository(store),
		recipientRepo: memory.NewRecipientRepository(store),
		endpointRepo:  memory.NewPushEndpointRepository(store),
		delayedRepo:   memory.NewDelayedRepository(store),
		digestRepo:    memory.NewDigestRepository(store),
		prefRepo:      memory.NewPreferenceRepository(store),
	}
	for _, opt := range opts {
		opt(env)
	}
	env.wire()

	return env
}

func (e *serviceEnv) wire() {
	txManager := memory.NewTransactionManager(e.store)
	historyRepo := memory.NewHistoryRepository(e.store)

	e.stealth = NewStealthService(StealthServiceParams{
		TxManager:     txManager,
		FamilyRepo:    e.familyRepo,
		StealthQueue:  memory.NewStealthQueueRepository(e.store),
		Clock:         e.clock,
		FailurePolicy: policy.DefaultFailurePolicy(),
		Config:        e.cfg,
		Logger:        e.logger,
	})
	e.preferences = NewPreferenceService(PreferenceServiceParams{
		TxManager:     txManager,
		PrefRepo:      e.prefRepo,
		RecipientRepo: e.recipientRepo,
		Clock:         e.clock,
		Logger:        e.logger,
	})
	e.throttle = NewThrottleService(ThrottleServiceParams{
		ThrottleRepo: memory.NewThrottleRepository(e.store),
		Clock:        e.clock,
		Config:       e.cfg,
		Logger:       e.logger,
	})
	e.devices = NewDeviceService(e.endpointRepo, e.logger)
	e.delivery = NewDeliveryService(DeliveryServiceParams{
		EndpointRepo: e.endpointRepo,
		HistoryRepo:  historyRepo,
		Devices:      e.devices,
		Push:         e.push,
		Email:        e.email,
		SMS:          e.sms,
		Clock:        e.clock,
		Config:       e.cfg,
		Logger:       e.logger,
	})
	e.digest = NewDigestService(DigestServiceParams{
		DigestRepo:    e.digestRepo,
		HistoryRepo:   historyRepo,
		EndpointRepo:  e.endpointRepo,
		RecipientRepo: e.recipientRepo,
		Preferences:   e.preferences,
		Stealth:       e.stealth,
		Delivery:      e.delivery,
		Clock:         e.clock,
		Logger:        e.logger,
	})
	e.dispatch = NewDispatchService(DispatchServiceParams{
		FamilyRepo:    e.familyRepo,
		RecipientRepo: e.recipientRepo,
		DelayedRepo:   e.delayedRepo,
		HistoryRepo:   historyRepo,
		Stealth:       e.stealth,
		Preferences:   e.preferences,
		Throttle:      e.throttle,
		Digest:        e.digest,
		Delivery:      e.delivery,
		Content:       content.NewBuilder(),
		FailurePolicy: policy.DefaultFailurePolicy(),
		Clock:         e.clock,
		Config:        e.cfg,
		Logger:        e.logger,
	})
	e.jobs = NewJobsService(JobsServiceParams{
		Digest:   e.digest,
		Dispatch: e.dispatch,
		Stealth:  e.stealth,
		Clock:    e.clock,
		Logger:   e.logger,
	})
}

type recipientOption func(*entity.Recipient)

func withEmail(addr string) recipientOption {
	return func(r *entity.Recipient) {
		r.Email = addr
		r.EmailVerified = true
	}
}

func withPhone(phone string) recipientOption {
	return func(r *entity.Recipient) {
		r.Phone = phone
		r.PhoneVerified = true
	}
}

func withTimezone(tz string) recipientOption {
	return func(r *entity.Recipient) { r.Timezone = tz }
}

// seedFamily stores a family with the given number of guardians and one child.
func (e *serviceEnv) seedFamily(t *testing.T, guardians int) (*entity.Family, []*entity.Recipient, *entity.Recipient) {
	t.Helper()
	ctx := context.Background()

	family := &entity.Family{ID: uuid.New(), CreatedAt: e.clock.Now(), UpdatedAt: e.clock.Now()}
	var members []*entity.Recipient
	for range guardians {
		g := &entity.Recipient{ID: uuid.New(), FamilyID: family.ID, Role: entity.RoleGuardian, DisplayName: "Guardian", Timezone: "UTC"}
		family.GuardianIDs = append(family.GuardianIDs, g.ID)
		members = append(members, g)
	}
	child := &entity.Recipient{ID: uuid.New(), FamilyID: family.ID, Role: entity.RoleChild, DisplayName: "Sam", Timezone: "UTC"}
	family.ChildIDs = []uuid.UUID{child.ID}

	require.NoError(t, memory.NewFamilyRepository(e.store).Create(ctx, family))
	for _, r := range append(members, child) {
		require.NoError(t, e.recipientRepo.Upsert(ctx, r))
	}

	return family, members, child
}

func (e *serviceEnv) updateRecipient(t *testing.T, r *entity.Recipient, opts ...recipientOption) {
	t.Helper()
	for _, opt := range opts {
		opt(r)
	}
	require.NoError(t, e.recipientRepo.Upsert(context.Background(), r))
}

func (e *serviceEnv) addEndpoint(t *testing.T, recipientID uuid.UUID, token string) *entity.PushEndpoint {
	t.Helper()
	ep, err := e.devices.RegisterEndpoint(context.Background(), recipientID, &usecase.EndpointInfo{
		Token:    token,
		DeviceID: "device-" + token,
		Platform: "ios",
	})
	require.NoError(t, err)

	return ep
}

func (e *serviceEnv) updatePrefs(t *testing.T, recipientID uuid.UUID, update *entity.PreferencesUpdate) {
	t.Helper()
	_, err := e.preferences.UpdatePreferences(context.Background(), recipientID, update)
	require.NoError(t, err)
}

func (e *serviceEnv) historyFor(recipientID uuid.UUID) []entity.HistoryEntry {
	var out []entity.HistoryEntry
	for _, h := range e.store.History() {
		if h.RecipientID == recipientID {
			out = append(out, h)
		}
	}

	return out
}

// multicastResult marks every token delivered except those listed as invalid.
func multicastResult(tokens []string, invalid ...string) *service.MulticastResult {
	res := &service.MulticastResult{}
	for i, tok := range tokens {
		if slices.Contains(invalid, tok) {
			res.FailureCount++
			res.PerEndpoint = append(res.PerEndpoint, service.EndpointResult{Token: tok, Err: errors.New("registration-token-not-registered"), Invalid: true})

			continue
		}
		res.SuccessCount++
		res.PerEndpoint = append(res.PerEndpoint, service.EndpointResult{Token: tok, MessageID: fmt.Sprintf("msg-%d", i)})
	}

	return res
}

func ptr[T any](v T) *T {
	return &v
}

// pushDelivers answers SendMulticast with every token delivered except the invalid ones.
func pushDelivers(invalid ...string) func(context.Context, []string, string, string, map[string]string) (*service.MulticastResult, error) {
	return func(_ context.Context, tokens []string, _, _ string, _ map[string]string) (*service.MulticastResult, error) {
		return multicastResult(tokens, invalid...), nil
	}
}

// rendezvous holds every caller of Wait until n of them have arrived, so
// tests can force overlapping reads.
type rendezvous struct {
	wg sync.WaitGroup
}

func newRendezvous(n int) *rendezvous {
	r := &rendezvous{}
	r.wg.Add(n)

	return r
}

func (r *rendezvous) Wait() {
	r.wg.Done()
	r.wg.Wait()
}

type overlappingDelayedRepo struct {
	repository.DelayedRepository
	meet *rendezvous
}

func (r *overlappingDelayedRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.DelayedNotification, error) {
	items, err := r.DelayedRepository.FindDue(ctx, now, limit)
	r.meet.Wait()

	return items, err
}

type overlappingDigestRepo struct {
	repository.DigestRepository
	meet *rendezvous
}

func (r *overlappingDigestRepo) FindPending(ctx context.Context, recipientID uuid.UUID, digestType entity.DigestType) ([]*entity.DigestItem, error) {
	items, err := r.DigestRepository.FindPending(ctx, recipientID, digestType)
	r.meet.Wait()

	return items, err
}
