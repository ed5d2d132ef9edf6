package impl

import (
	"context"
	"log/slog"
	"slices"
	"time"

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
)

type digestService struct {
	digestRepo    repository.DigestRepository
	historyRepo   repository.HistoryRepository
	endpointRepo  repository.PushEndpointRepository
	recipientRepo repository.RecipientRepository
	preferences   usecase.PreferenceUsecase
	stealth       usecase.StealthUsecase
	delivery      usecase.DeliveryUsecase
	clock         service.Clock
	logger        *slog.Logger
}

// DigestServiceParams holds dependencies for DigestService, injected by Fx.
type DigestServiceParams struct {
	fx.In

	DigestRepo    repository.DigestRepository
	HistoryRepo   repository.HistoryRepository
	EndpointRepo  repository.PushEndpointRepository
	RecipientRepo repository.RecipientRepository
	Preferences   usecase.PreferenceUsecase
	Stealth       usecase.StealthUsecase
	Delivery      usecase.DeliveryUsecase
	Clock         service.Clock
	Logger        *slog.Logger
}

// NewDigestService creates the digest batching service.
func NewDigestService(params DigestServiceParams) usecase.DigestUsecase {
	return &digestService{
		digestRepo:    params.DigestRepo,
		historyRepo:   params.HistoryRepo,
		endpointRepo:  params.EndpointRepo,
		recipientRepo: params.RecipientRepo,
		preferences:   params.Preferences,
		stealth:       params.Stealth,
		delivery:      params.Delivery,
		clock:         params.Clock,
		logger:        params.Logger,
	}
}

func (srv *digestService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Enqueue appends one item for a routed event.
func (srv *digestService) Enqueue(ctx context.Context, event *entity.NotificationEvent, digestType entity.DigestType) (*entity.DigestItem, error) {
	if !digestType.IsValid() {
		return nil, domainerrors.ErrInvalidDigestType
	}

	item := &entity.DigestItem{
		ID:            uuid.New(),
		RecipientID:   event.RecipientID,
		FamilyID:      event.FamilyID,
		SourceEventID: event.ID,
		ChildID:       event.ChildID,
		ChildName:     event.ChildName,
		Severity:      event.Severity,
		Category:      event.Category,
		QueuedAt:      srv.clock.Now(),
		DigestType:    digestType,
	}
	if err := srv.digestRepo.Enqueue(ctx, item); err != nil {
		return nil, errors.Wrap(err, "failed to enqueue digest item")
	}

	return item, nil
}

// ProcessUserDigest drains one recipient's queue. Items are marked processed
// after any attempt, successful or not, so a digest is sent at most once.
func (srv *digestService) ProcessUserDigest(ctx context.Context, recipientID uuid.UUID, digestType entity.DigestType) (*entity.DigestResult, error) {
	if !digestType.IsValid() {
		return nil, domainerrors.ErrInvalidDigestType
	}

	result := &entity.DigestResult{RecipientID: recipientID, DigestType: digestType}

	items, err := srv.digestRepo.FindPending(ctx, recipientID, digestType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pending digest items")
	}
	if len(items) == 0 {
		result.Reason = entity.ReasonNoPendingItems

		return result, nil
	}

	// Items are marked before the send: a digest is delivered at most once,
	// and a concurrent drain only gets the items it marked itself.
	items, err = srv.claim(ctx, items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		result.Reason = entity.ReasonNoPendingItems

		return result, nil
	}

	result.ItemCount = len(items)
	result.Groups = policy.GroupDigestItems(items)

	recipient, err := srv.recipientRepo.FindByID(ctx, recipientID)
	if err != nil {
		srv.log(ctx).Warn("Digest recipient unavailable", slog.String("recipientID", recipientID.String()), slog.Any("error", err))
		result.Reason = entity.ReasonNoRecipients

		return result, nil
	}

	if srv.stealth.ShouldSuppress(ctx, recipient.FamilyID, entity.CategoryDigest, recipientID) {
		result.Reason = entity.ReasonSuppressedStealth

		return result, nil
	}

	prefs, err := srv.preferences.GetPreferences(ctx, recipientID)
	if err != nil {
		srv.log(ctx).Warn("Digest preferences unavailable, using defaults", slog.String("recipientID", recipientID.String()), slog.Any("error", err))
		prefs = entity.DefaultPreferences(recipient, srv.clock.Now())
	}

	if !srv.hasDeliverableChannel(ctx, recipient, prefs) {
		result.Reason = entity.ReasonNoTokens
		srv.recordNoTokens(ctx, recipient, digestType, result)

		return result, nil
	}

	msg := policy.BuildDigestMessage(result.Groups, digestType)
	event := &entity.NotificationEvent{
		ID:          uuid.New(),
		RecipientID: recipientID,
		FamilyID:    recipient.FamilyID,
		Category:    entity.CategoryDigest,
		Severity:    msg.Badge,
		Priority:    entity.PriorityNormal,
		OccurredAt:  srv.clock.Now(),
	}
	content := service.Content{
		Title: msg.Title,
		Body:  msg.Body,
		Data: map[string]string{
			"type":        string(entity.CategoryDigest),
			"digest_type": string(digestType),
		},
	}

	delivery := srv.delivery.Deliver(ctx, recipient, prefs, event, content)
	result.Delivery = delivery
	result.Sent = delivery.Sent
	result.Reason = delivery.Reason

	srv.log(ctx).Info("Digest processed",
		slog.String("recipientID", recipientID.String()),
		slog.String("digestType", string(digestType)),
		slog.Int("items", result.ItemCount),
		slog.Bool("sent", result.Sent),
	)

	return result, nil
}

func (srv *digestService) claim(ctx context.Context, items []*entity.DigestItem) ([]*entity.DigestItem, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	marked, err := srv.digestRepo.MarkProcessed(ctx, ids, srv.clock.Now())
	if err != nil {
		return nil, errors.Wrap(err, "failed to mark digest items processed")
	}

	return slices.DeleteFunc(items, func(item *entity.DigestItem) bool {
		return !slices.Contains(marked, item.ID)
	}), nil
}

func (srv *digestService) hasDeliverableChannel(ctx context.Context, recipient *entity.Recipient, prefs *entity.Preferences) bool {
	channels := prefs.ChannelsFor(entity.CategoryDigest)
	if recipient.HasEmail() && (channels.Email || recipient.EmailVerified) {
		return true
	}
	if !channels.Push {
		return false
	}
	endpoints, err := srv.endpointRepo.FindActiveByRecipient(ctx, recipient.ID)
	if err != nil {
		// let delivery decide; it records its own outcome
		return true
	}

	return len(endpoints) > 0
}

func (srv *digestService) recordNoTokens(ctx context.Context, recipient *entity.Recipient, digestType entity.DigestType, result *entity.DigestResult) {
	badge := entity.SeverityLow
	for _, g := range result.Groups {
		badge = entity.MaxSeverity(badge, g.MaxSeverity)
	}
	entry := &entity.HistoryEntry{
		ID:          uuid.New(),
		RecipientID: recipient.ID,
		FamilyID:    recipient.FamilyID,
		Category:    entity.CategoryDigest,
		Severity:    badge,
		Status:      entity.StatusFailed,
		Reason:      entity.ReasonNoTokens,
		CreatedAt:   srv.clock.Now(),
	}
	if err := srv.historyRepo.Append(ctx, entry); err != nil {
		srv.log(ctx).Error("Failed to write digest history", slog.String("recipientID", recipient.ID.String()), slog.Any("error", err))
	}
	srv.log(ctx).Warn("Digest dropped, recipient has no deliverable channel",
		slog.String("recipientID", recipient.ID.String()),
		slog.String("digestType", string(digestType)),
		slog.Int("items", result.ItemCount),
	)
}

// RunHourlyDigest drains every recipient with pending hourly items.
func (srv *digestService) RunHourlyDigest(ctx context.Context) (*usecase.DigestRunReport, error) {
	recipients, err := srv.digestRepo.FindRecipientsWithPending(ctx, entity.DigestHourly)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hourly digest recipients")
	}

	report := &usecase.DigestRunReport{DigestType: entity.DigestHourly}
	srv.drain(ctx, recipients, entity.DigestHourly, report)

	return report, nil
}

// RunDailyDigest drains daily queues, then sweeps hourly items of recipients
// that had nothing processed by the hourly pass since the start of the day.
func (srv *digestService) RunDailyDigest(ctx context.Context) (*usecase.DigestRunReport, error) {
	recipients, err := srv.digestRepo.FindRecipientsWithPending(ctx, entity.DigestDaily)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list daily digest recipients")
	}

	report := &usecase.DigestRunReport{DigestType: entity.DigestDaily}
	srv.drain(ctx, recipients, entity.DigestDaily, report)

	hourly, err := srv.digestRepo.FindRecipientsWithPending(ctx, entity.DigestHourly)
	if err != nil {
		return report, errors.Wrap(err, "failed to list hourly items for the daily sweep")
	}

	now := srv.clock.Now()
	var missed []uuid.UUID
	for _, id := range hourly {
		processed, err := srv.digestRepo.HasProcessedSince(ctx, id, entity.DigestHourly, srv.localStartOfDay(ctx, id, now))
		if err != nil {
			srv.log(ctx).Error("Failed to check hourly digest progress", slog.String("recipientID", id.String()), slog.Any("error", err))
			report.Errors++

			continue
		}
		if !processed {
			missed = append(missed, id)
		}
	}
	if len(missed) > 0 {
		srv.log(ctx).Warn("Daily digest sweeping hourly items the hourly pass missed", slog.Int("recipients", len(missed)))
		srv.drain(ctx, missed, entity.DigestHourly, report)
	}

	return report, nil
}

// localStartOfDay is midnight of the recipient's current day in their own
// timezone, falling back to the clock's location when preferences are unavailable.
func (srv *digestService) localStartOfDay(ctx context.Context, recipientID uuid.UUID, now time.Time) time.Time {
	loc := now.Location()
	if prefs, err := srv.preferences.GetPreferences(ctx, recipientID); err == nil {
		loc = prefs.Location()
	}
	local := now.In(loc)

	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// drain processes recipients one by one; a failure never stops the loop.
func (srv *digestService) drain(ctx context.Context, recipients []uuid.UUID, digestType entity.DigestType, report *usecase.DigestRunReport) {
	for _, id := range recipients {
		report.Recipients++
		result, err := srv.ProcessUserDigest(ctx, id, digestType)
		if err != nil {
			srv.log(ctx).Error("Failed to process digest", slog.String("recipientID", id.String()), slog.String("digestType", string(digestType)), slog.Any("error", err))
			report.Errors++

			continue
		}
		if result.Sent {
			report.Sent++
		} else if result.Reason != entity.ReasonNoPendingItems {
			report.Failed++
		}
	}
}
