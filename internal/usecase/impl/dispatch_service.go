package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"kinwatch/config"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/domain/policy"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// paramOfflineHours carries the observed offline duration of a sync-timeout event.
const paramOfflineHours = "offline_hours"

type dispatchService struct {
	familyRepo     repository.FamilyRepository
	recipientRepo  repository.RecipientRepository
	delayedRepo    repository.DelayedRepository
	historyRepo    repository.HistoryRepository
	stealth        usecase.StealthUsecase
	preferences    usecase.PreferenceUsecase
	throttle       usecase.ThrottleUsecase
	digest         usecase.DigestUsecase
	delivery       usecase.DeliveryUsecase
	content        service.ContentBuilder
	failurePolicy  policy.FailurePolicy
	clock          service.Clock
	fanOutLimit    int
	batchSize      int
	syncThresholds []int
	logger         *slog.Logger
}

// DispatchServiceParams holds dependencies for DispatchService, injected by Fx.
type DispatchServiceParams struct {
	fx.In

	FamilyRepo    repository.FamilyRepository
	RecipientRepo repository.RecipientRepository
	DelayedRepo   repository.DelayedRepository
	HistoryRepo   repository.HistoryRepository
	Stealth       usecase.StealthUsecase
	Preferences   usecase.PreferenceUsecase
	Throttle      usecase.ThrottleUsecase
	Digest        usecase.DigestUsecase
	Delivery      usecase.DeliveryUsecase
	Content       service.ContentBuilder
	FailurePolicy policy.FailurePolicy
	Clock         service.Clock
	Config        *config.Config
	Logger        *slog.Logger
}

// NewDispatchService creates the per-recipient decision pipeline.
func NewDispatchService(params DispatchServiceParams) usecase.DispatchUsecase {
	cfg := params.Config.Notification.WithDefaults()

	return &dispatchService{
		familyRepo:     params.FamilyRepo,
		recipientRepo:  params.RecipientRepo,
		delayedRepo:    params.DelayedRepo,
		historyRepo:    params.HistoryRepo,
		stealth:        params.Stealth,
		preferences:    params.Preferences,
		throttle:       params.Throttle,
		digest:         params.Digest,
		delivery:       params.Delivery,
		content:        params.Content,
		failurePolicy:  params.FailurePolicy,
		clock:          params.Clock,
		fanOutLimit:    cfg.FanOutConcurrency,
		batchSize:      cfg.DelayedBatchSize,
		syncThresholds: cfg.SyncThresholdHours,
		logger:         params.Logger,
	}
}

func (srv *dispatchService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Dispatch runs stealth, preferences, routing, dedup, throttle and delivery
// for one recipient. Business outcomes come back in the result; only malformed
// input and infrastructure faults are returned as errors.
func (srv *dispatchService) Dispatch(ctx context.Context, event *entity.NotificationEvent) (*entity.DeliveryResult, error) {
	if err := validateNotificationEvent(event); err != nil {
		return nil, err
	}
	now := srv.clock.Now()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now
	}
	srv.resolveSignal(event)

	result := &entity.DeliveryResult{RecipientID: event.RecipientID}

	if srv.stealth.ShouldSuppress(ctx, event.FamilyID, event.Category, event.RecipientID) {
		if event.Category.IsLocation() {
			if err := srv.stealth.Capture(ctx, event); err != nil {
				srv.log(ctx).Error("Failed to capture suppressed event", slog.String("eventID", event.ID.String()), slog.Any("error", err))
			}
		}
		result.Suppressed = true
		result.Reason = entity.ReasonSuppressedStealth

		return result, nil
	}

	recipient, err := srv.recipientRepo.FindByID(ctx, event.RecipientID)
	if errors.Is(err, repository.ErrRecipientNotFound) {
		result.Reason = entity.ReasonNoRecipients

		return result, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recipient")
	}

	prefs, ok := srv.loadPreferences(ctx, recipient, event.Category, event.Severity, now)
	if !ok {
		result.Route = entity.RouteSkipped
		result.Reason = entity.ReasonPreferencesUnavailable
		srv.recordDecision(ctx, event, entity.StatusSkipped, result.Reason)

		return result, nil
	}

	decision := policy.Route(event.Category, event.Severity, prefs, now, policy.WithQuietHoursBypass(event.BypassQuietHours))
	result.Route = decision.Route

	switch {
	case decision.Route == entity.RouteSkipped:
		result.Reason = decision.Reason
		srv.recordDecision(ctx, event, entity.StatusSkipped, decision.Reason)

		return result, nil

	case decision.IsDigest():
		if _, err := srv.digest.Enqueue(ctx, event, decision.DigestType()); err != nil {
			return nil, err
		}
		result.Reason = decision.Reason

		return result, nil

	case decision.Route == entity.RouteDelayed:
		item := &entity.DelayedNotification{
			ID:          uuid.New(),
			RecipientID: recipient.ID,
			FamilyID:    event.FamilyID,
			Category:    event.Category,
			Event:       event,
			DeliverAt:   decision.DeliverAt,
			Status:      entity.DelayedPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := srv.delayedRepo.Create(ctx, item); err != nil {
			return nil, errors.Wrap(err, "failed to persist delayed notification")
		}
		result.Delayed = true
		result.Reason = entity.ReasonQuietHoursDelayed
		srv.recordDecision(ctx, event, entity.StatusDelayed, result.Reason)

		return result, nil
	}

	return srv.deliverNow(ctx, recipient, prefs, event), nil
}

// loadPreferences applies the failure policy when the read fails.
func (srv *dispatchService) loadPreferences(ctx context.Context, recipient *entity.Recipient, category entity.Category, severity entity.Severity, now time.Time) (*entity.Preferences, bool) {
	prefs, err := srv.preferences.GetPreferences(ctx, recipient.ID)
	if err == nil {
		return prefs, true
	}

	fallback, ok := srv.failurePolicy.FallbackPreferences(recipient, category, severity, now)
	srv.log(ctx).Warn("Preferences unavailable, applying failure policy",
		slog.String("recipientID", recipient.ID.String()),
		slog.String("category", string(category)),
		slog.Bool("delivering", ok),
		slog.Any("error", err),
	)

	return fallback, ok
}

// deliverNow handles the immediate route: daily-once dedup, throttle, content
// and channel delivery, then records the throttle state on success.
func (srv *dispatchService) deliverNow(ctx context.Context, recipient *entity.Recipient, prefs *entity.Preferences, event *entity.NotificationEvent) *entity.DeliveryResult {
	result := &entity.DeliveryResult{RecipientID: recipient.ID, Route: entity.RouteImmediate}

	if event.DailyOnceKey != "" {
		local := srv.clock.Now().In(prefs.Location())
		startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
		sent, err := srv.historyRepo.HasSentSince(ctx, recipient.ID, event.DailyOnceKey, startOfDay)
		if err != nil {
			srv.log(ctx).Warn("Daily dedup check failed, continuing", slog.String("recipientID", recipient.ID.String()), slog.Any("error", err))
		} else if sent {
			result.Route = entity.RouteSkipped
			result.Reason = entity.ReasonAlreadySentToday
			srv.recordDecision(ctx, event, entity.StatusSkipped, result.Reason)

			return result
		}
	}

	if allowed, reason := srv.throttle.Allow(ctx, recipient.ID, event.Signal); !allowed {
		result.Route = entity.RouteSkipped
		result.Reason = reason
		srv.recordDecision(ctx, event, entity.StatusSkipped, reason)

		return result
	}

	content := srv.content.Build(event)
	result = srv.delivery.Deliver(ctx, recipient, prefs, event, content)

	if result.Sent {
		if err := srv.throttle.Record(ctx, recipient.ID, event.Signal); err != nil {
			srv.log(ctx).Error("Failed to record throttle state", slog.String("recipientID", recipient.ID.String()), slog.Any("error", err))
		}
	}

	return result
}

// resolveSignal fills what the producer left out of the throttle signal:
// per-child kinds default their subject to the event's child, and a sync
// signal without a threshold derives it from the reported offline hours.
// The signal is shared across a fan-out, so it is copied rather than written.
func (srv *dispatchService) resolveSignal(event *entity.NotificationEvent) {
	sig := event.Signal
	if sig == nil {
		return
	}
	resolved := *sig

	perChild := sig.Kind == entity.ThrottleStatusTransition || sig.Kind == entity.ThrottleSyncThreshold
	if perChild && resolved.Subject == "" && event.ChildID != uuid.Nil {
		resolved.Subject = event.ChildID.String()
	}

	if sig.Kind == entity.ThrottleSyncThreshold && sig.ThresholdHrs <= 0 {
		if hours, err := strconv.ParseFloat(event.Params[paramOfflineHours], 64); err == nil {
			resolved.ThresholdHrs = policy.CrossedThreshold(srv.syncThresholds, time.Duration(hours*float64(time.Hour)))
		}
	}

	if resolved != *sig {
		event.Signal = &resolved
	}
}

func (srv *dispatchService) recordDecision(ctx context.Context, event *entity.NotificationEvent, status entity.DeliveryStatus, reason entity.Reason) {
	entry := &entity.HistoryEntry{
		ID:          uuid.New(),
		RecipientID: event.RecipientID,
		FamilyID:    event.FamilyID,
		EventID:     event.ID,
		Category:    event.Category,
		Severity:    event.Severity,
		Status:      status,
		Reason:      reason,
		CreatedAt:   srv.clock.Now(),
	}
	if err := srv.historyRepo.Append(ctx, entry); err != nil {
		srv.log(ctx).Error("Failed to write decision history", slog.String("recipientID", event.RecipientID.String()), slog.Any("error", err))
	}
}

// DispatchFamilyEvent fans the event out to its recipients concurrently. One
// recipient's failure, or panic, never affects another.
func (srv *dispatchService) DispatchFamilyEvent(ctx context.Context, fe *entity.FamilyEvent) (*entity.FanOutResult, error) {
	if err := validateFamilyEvent(fe); err != nil {
		return nil, err
	}
	if fe.EventID == uuid.Nil {
		fe.EventID = uuid.New()
	}
	if fe.OccurredAt.IsZero() {
		fe.OccurredAt = srv.clock.Now()
	}

	out := &entity.FanOutResult{EventID: fe.EventID}

	recipients, err := srv.resolveRecipients(ctx, fe)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		out.Reason = entity.ReasonNoRecipients
		srv.log(ctx).Info("Family event has no recipients", slog.String("eventID", fe.EventID.String()), slog.String("familyID", fe.FamilyID.String()))

		return out, nil
	}

	results := make([]*entity.DeliveryResult, len(recipients))
	failed := make([]bool, len(recipients))

	var g errgroup.Group
	g.SetLimit(srv.fanOutLimit)
	for i, recipientID := range recipients {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					failed[i] = true
					srv.log(ctx).Error("Recipient dispatch panicked", slog.String("recipientID", recipientID.String()), slog.String("panic", fmt.Sprint(r)))
				}
			}()

			res, err := srv.Dispatch(ctx, fe.ForRecipient(recipientID))
			if err != nil {
				failed[i] = true
				srv.log(ctx).Error("Recipient dispatch failed", slog.String("recipientID", recipientID.String()), slog.Any("error", err))

				return nil
			}
			results[i] = res

			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if failed[i] {
			out.Errors++

			continue
		}
		out.Results = append(out.Results, res)
	}

	srv.log(ctx).Info("Family event dispatched",
		slog.String("eventID", fe.EventID.String()),
		slog.String("category", string(fe.Category)),
		slog.Int("recipients", len(recipients)),
		slog.Int("errors", out.Errors),
	)

	return out, nil
}

// resolveRecipients returns the explicit recipient list, or every guardian of the family.
func (srv *dispatchService) resolveRecipients(ctx context.Context, fe *entity.FamilyEvent) ([]uuid.UUID, error) {
	if len(fe.RecipientIDs) > 0 {
		return fe.RecipientIDs, nil
	}

	family, err := srv.familyRepo.FindByID(ctx, fe.FamilyID)
	if errors.Is(err, repository.ErrFamilyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load family")
	}

	return family.GuardianIDs, nil
}

// ProcessDelayedQueue delivers due quiet-hours items. Each item is claimed
// (pending to processing) before anything is sent, so overlapping drains
// deliver it at most once. Items are re-checked against stealth.
func (srv *dispatchService) ProcessDelayedQueue(ctx context.Context) (*usecase.DelayedRunReport, error) {
	now := srv.clock.Now()
	items, err := srv.delayedRepo.FindDue(ctx, now, srv.batchSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load due delayed notifications")
	}

	report := &usecase.DelayedRunReport{Due: len(items)}
	for _, item := range items {
		claimed, err := srv.delayedRepo.UpdateStatus(ctx, item.ID, entity.DelayedPending, entity.DelayedProcessing, "", srv.clock.Now())
		if err != nil {
			srv.log(ctx).Error("Failed to claim delayed notification", slog.String("id", item.ID.String()), slog.Any("error", err))

			continue
		}
		if !claimed {
			report.Skipped++

			continue
		}

		status, reason := srv.deliverDelayed(ctx, item)
		if _, err := srv.delayedRepo.UpdateStatus(ctx, item.ID, entity.DelayedProcessing, status, reason, srv.clock.Now()); err != nil {
			srv.log(ctx).Error("Failed to settle delayed notification",
				slog.String("id", item.ID.String()),
				slog.String("status", string(status)),
				slog.Any("error", err),
			)
		}
		switch status {
		case entity.DelayedDelivered:
			report.Delivered++
		case entity.DelayedSuppressed:
			report.Suppressed++
		default:
			report.Failed++
		}
	}

	if report.Due > 0 {
		srv.log(ctx).Info("Delayed queue processed",
			slog.Int("due", report.Due),
			slog.Int("delivered", report.Delivered),
			slog.Int("failed", report.Failed),
			slog.Int("suppressed", report.Suppressed),
		)
	}

	return report, nil
}

func (srv *dispatchService) deliverDelayed(ctx context.Context, item *entity.DelayedNotification) (entity.DelayedStatus, entity.Reason) {
	event := item.Event
	if event == nil {
		srv.log(ctx).Warn("Delayed notification payload unreadable, dropping",
			slog.String("id", item.ID.String()),
			slog.String("recipientID", item.RecipientID.String()),
		)

		return entity.DelayedFailed, entity.ReasonPayloadUnreadable
	}

	if srv.stealth.ShouldSuppress(ctx, item.FamilyID, item.Category, item.RecipientID) {
		if item.Category.IsLocation() {
			if err := srv.stealth.Capture(ctx, event); err != nil {
				srv.log(ctx).Error("Failed to capture suppressed event", slog.String("eventID", event.ID.String()), slog.Any("error", err))
			}
		}

		return entity.DelayedSuppressed, entity.ReasonSuppressedStealth
	}

	recipient, err := srv.recipientRepo.FindByID(ctx, item.RecipientID)
	if err != nil {
		srv.log(ctx).Warn("Delayed notification recipient unavailable", slog.String("recipientID", item.RecipientID.String()), slog.Any("error", err))

		return entity.DelayedFailed, entity.ReasonRecipientNotFound
	}

	prefs, ok := srv.loadPreferences(ctx, recipient, item.Category, event.Severity, srv.clock.Now())
	if !ok {
		return entity.DelayedFailed, entity.ReasonPreferencesUnavailable
	}

	res := srv.deliverNow(ctx, recipient, prefs, event)
	if res.Sent {
		return entity.DelayedDelivered, entity.ReasonSent
	}

	return entity.DelayedFailed, res.Reason
}

func validateNotificationEvent(event *entity.NotificationEvent) error {
	switch {
	case event == nil:
		return domainerrors.ErrInvalidEvent.WithDetails("event is required")
	case event.RecipientID == uuid.Nil:
		return domainerrors.ErrInvalidEvent.WithDetails("recipient_id is required")
	case event.FamilyID == uuid.Nil:
		return domainerrors.ErrInvalidEvent.WithDetails("family_id is required")
	case !event.Category.IsValid():
		return domainerrors.ErrInvalidEvent.WithDetails("unknown category: " + string(event.Category))
	case !event.Severity.IsValid():
		return domainerrors.ErrInvalidEvent.WithDetails("unknown severity: " + string(event.Severity))
	}

	return nil
}

func validateFamilyEvent(fe *entity.FamilyEvent) error {
	switch {
	case fe == nil:
		return domainerrors.ErrInvalidEvent.WithDetails("event is required")
	case fe.FamilyID == uuid.Nil:
		return domainerrors.ErrInvalidEvent.WithDetails("family_id is required")
	case !fe.Category.IsValid():
		return domainerrors.ErrInvalidEvent.WithDetails("unknown category: " + string(fe.Category))
	case !fe.Severity.IsValid():
		return domainerrors.ErrInvalidEvent.WithDetails("unknown severity: " + string(fe.Severity))
	}

	return nil
}
