package impl

import (
	"context"
	"log/slog"

	"kinwatch/config"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/repository"
	"kinwatch/internal/domain/service"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const (
	missedSubjectPrefix = "You may have missed this: "
	missedBodyPrefix    = "We could not reach your device. "
	dataKeyActionURL    = "action_url"
)

type deliveryService struct {
	endpointRepo repository.PushEndpointRepository
	historyRepo  repository.HistoryRepository
	devices      usecase.DeviceUsecase
	push         service.PushService
	email        service.EmailService
	sms          service.SMSService
	clock        service.Clock
	appURL       string
	logger       *slog.Logger
}

// DeliveryServiceParams holds dependencies for DeliveryService, injected by Fx.
type DeliveryServiceParams struct {
	fx.In

	EndpointRepo repository.PushEndpointRepository
	HistoryRepo  repository.HistoryRepository
	Devices      usecase.DeviceUsecase
	Push         service.PushService
	Email        service.EmailService
	SMS          service.SMSService
	Clock        service.Clock
	Config       *config.Config
	Logger       *slog.Logger
}

// NewDeliveryService creates the multi-channel delivery orchestrator.
func NewDeliveryService(params DeliveryServiceParams) usecase.DeliveryUsecase {
	appURL := ""
	if params.Config != nil && params.Config.Email != nil {
		appURL = params.Config.Email.AppURL
	}

	return &deliveryService{
		endpointRepo: params.EndpointRepo,
		historyRepo:  params.HistoryRepo,
		devices:      params.Devices,
		push:         params.Push,
		email:        params.Email,
		sms:          params.SMS,
		clock:        params.Clock,
		appURL:       appURL,
		logger:       params.Logger,
	}
}

func (srv *deliveryService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// channelAttempt pairs an outcome with the reason written to history.
type channelAttempt struct {
	outcome entity.ChannelOutcome
	reason  entity.Reason
	// reached is false when no destination existed and no provider call was made
	reached bool
}

// Deliver attempts push, then email as fallback or standalone, then SMS when
// eligible. Each channel is tried at most once and every attempt is logged.
func (srv *deliveryService) Deliver(
	ctx context.Context,
	recipient *entity.Recipient,
	prefs *entity.Preferences,
	event *entity.NotificationEvent,
	content service.Content,
) *entity.DeliveryResult {
	channels := prefs.ChannelsFor(event.Category)
	result := &entity.DeliveryResult{RecipientID: recipient.ID, Route: entity.RouteImmediate}
	var attempts []channelAttempt

	pushSucceeded := false
	if channels.Push {
		result.PrimaryChannel = entity.ChannelPush
		attempt := srv.sendPush(ctx, recipient.ID, content)
		pushSucceeded = attempt.outcome.Status == entity.StatusSent
		attempts = append(attempts, attempt)
	}

	emailWanted := channels.Email || recipient.EmailVerified
	switch {
	case channels.Push && !pushSucceeded && emailWanted && recipient.HasEmail():
		attempt := srv.sendEmail(ctx, recipient, event, content, true)
		attempts = append(attempts, attempt)
		result.FallbackUsed = true
		result.FallbackChannel = entity.ChannelEmail
	case channels.Email && recipient.HasEmail():
		attempts = append(attempts, srv.sendEmail(ctx, recipient, event, content, false))
		if result.PrimaryChannel == "" {
			result.PrimaryChannel = entity.ChannelEmail
		}
	}

	if smsEligible(event, channels, recipient) {
		attempts = append(attempts, srv.sendSMS(ctx, recipient, event, content))
		if result.PrimaryChannel == "" {
			result.PrimaryChannel = entity.ChannelSMS
		}
	}

	reached := false
	result.AllDelivered = len(attempts) > 0
	for _, a := range attempts {
		result.Channels = append(result.Channels, a.outcome)
		reached = reached || a.reached
		if a.outcome.Status == entity.StatusSent {
			result.Sent = true
		} else {
			result.AllDelivered = false
		}
	}

	switch {
	case result.Sent:
		result.Reason = entity.ReasonSent
	case !reached:
		result.Reason = entity.ReasonNoTokens
	default:
		result.Reason = entity.ReasonSendFailed
	}

	srv.recordHistory(ctx, recipient, event, attempts)

	srv.log(ctx).Info("Delivery finished",
		slog.String("recipientID", recipient.ID.String()),
		slog.String("category", string(event.Category)),
		slog.Bool("sent", result.Sent),
		slog.String("reason", string(result.Reason)),
		slog.Bool("fallbackUsed", result.FallbackUsed),
	)

	return result
}

func (srv *deliveryService) sendPush(ctx context.Context, recipientID uuid.UUID, content service.Content) channelAttempt {
	attempt := channelAttempt{outcome: entity.ChannelOutcome{Channel: entity.ChannelPush, Status: entity.StatusFailed}}

	endpoints, err := srv.endpointRepo.FindActiveByRecipient(ctx, recipientID)
	if err != nil {
		srv.log(ctx).Warn("Failed to load push endpoints", slog.String("recipientID", recipientID.String()), slog.Any("error", err))
	}
	tokens := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if e.Token != "" {
			tokens = append(tokens, e.Token)
		}
	}
	if len(tokens) == 0 {
		attempt.reason = entity.ReasonNoTokens
		attempt.outcome.FailureReason = string(entity.ReasonNoTokens)

		return attempt
	}

	attempt.reached = true
	res, err := srv.push.SendMulticast(ctx, tokens, content.Title, content.Body, content.Data)
	if err != nil {
		srv.log(ctx).Warn("Push provider request failed", slog.String("recipientID", recipientID.String()), slog.Any("error", err))
		attempt.reason = entity.ReasonProviderError
		attempt.outcome.FailureReason = err.Error()

		return attempt
	}

	if invalid := res.InvalidTokens(); len(invalid) > 0 {
		removed := srv.devices.RemoveInvalidTokens(ctx, recipientID, invalid)
		srv.log(ctx).Info("Removed invalid push endpoints", slog.String("recipientID", recipientID.String()), slog.Int("removed", removed))
	}

	if res.SuccessCount > 0 {
		attempt.outcome.Status = entity.StatusSent
		attempt.outcome.MessageID = res.FirstMessageID()
		attempt.reason = entity.ReasonSent

		return attempt
	}

	attempt.reason = entity.ReasonSendFailed
	if len(res.InvalidTokens()) == len(tokens) {
		attempt.reason = entity.ReasonEndpointInvalid
	}
	attempt.outcome.FailureReason = string(attempt.reason)

	return attempt
}

func (srv *deliveryService) sendEmail(ctx context.Context, recipient *entity.Recipient, event *entity.NotificationEvent, content service.Content, fallback bool) channelAttempt {
	attempt := channelAttempt{
		outcome: entity.ChannelOutcome{Channel: entity.ChannelEmail, Status: entity.StatusFailed, Fallback: fallback},
		reached: true,
	}

	msg := service.EmailMessage{
		To:        recipient.Email,
		Category:  event.Category,
		Subject:   content.Title,
		Body:      content.Body,
		ActionURL: srv.actionURL(content),
	}
	if fallback {
		msg.Subject = missedSubjectPrefix + content.Title
		msg.Body = missedBodyPrefix + content.Body
	}

	res, err := srv.email.Send(ctx, msg)
	if err != nil {
		srv.log(ctx).Warn("Email send failed", slog.String("recipientID", recipient.ID.String()), slog.Bool("fallback", fallback), slog.Any("error", err))
		attempt.reason = entity.ReasonSendFailed
		attempt.outcome.FailureReason = err.Error()

		return attempt
	}

	attempt.outcome.Status = entity.StatusSent
	attempt.outcome.MessageID = res.MessageID
	attempt.reason = entity.ReasonSent

	return attempt
}

func (srv *deliveryService) sendSMS(ctx context.Context, recipient *entity.Recipient, event *entity.NotificationEvent, content service.Content) channelAttempt {
	attempt := channelAttempt{
		outcome: entity.ChannelOutcome{Channel: entity.ChannelSMS, Status: entity.StatusFailed},
		reached: true,
	}

	res, err := srv.sms.Send(ctx, service.SMSMessage{
		To:       recipient.Phone,
		Category: event.Category,
		Body:     content.Title + ": " + content.Body,
	})
	if err != nil {
		srv.log(ctx).Warn("SMS send failed", slog.String("recipientID", recipient.ID.String()), slog.Any("error", err))
		attempt.reason = entity.ReasonSendFailed
		attempt.outcome.FailureReason = err.Error()

		return attempt
	}

	attempt.outcome.Status = entity.StatusSent
	attempt.outcome.MessageID = res.MessageID
	attempt.reason = entity.ReasonSent

	return attempt
}

func (srv *deliveryService) actionURL(content service.Content) string {
	if u := content.Data[dataKeyActionURL]; u != "" {
		return u
	}

	return srv.appURL
}

func (srv *deliveryService) recordHistory(ctx context.Context, recipient *entity.Recipient, event *entity.NotificationEvent, attempts []channelAttempt) {
	if len(attempts) == 0 {
		attempts = []channelAttempt{{
			outcome: entity.ChannelOutcome{Status: entity.StatusFailed},
			reason:  entity.ReasonNoTokens,
		}}
	}

	now := srv.clock.Now()
	entries := make([]*entity.HistoryEntry, 0, len(attempts))
	for _, a := range attempts {
		entry := &entity.HistoryEntry{
			ID:          uuid.New(),
			RecipientID: recipient.ID,
			FamilyID:    event.FamilyID,
			EventID:     event.ID,
			Category:    event.Category,
			Severity:    event.Severity,
			Channel:     a.outcome.Channel,
			Status:      a.outcome.Status,
			Reason:      a.reason,
			MessageID:   a.outcome.MessageID,
			CreatedAt:   now,
		}
		if a.outcome.Status == entity.StatusSent {
			entry.DedupKey = event.DailyOnceKey
		}
		entries = append(entries, entry)
	}

	if err := srv.historyRepo.BatchAppend(ctx, entries); err != nil {
		srv.log(ctx).Error("Failed to write delivery history", slog.String("recipientID", recipient.ID.String()), slog.Any("error", err))
	}
}

// smsEligible applies the narrow SMS rule: explicit critical priority, an
// allow-listed category, never a security category, and a verified phone.
func smsEligible(event *entity.NotificationEvent, channels entity.Channels, recipient *entity.Recipient) bool {
	return event.Priority == entity.PriorityCritical &&
		event.Category.AllowsSMS() &&
		!event.Category.IsSecurity() &&
		channels.SMS &&
		recipient.CanReceiveSMS()
}
