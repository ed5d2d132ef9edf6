// Package handler contains the worker's Pub/Sub push endpoint.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"kinwatch/config"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/constants"
	"kinwatch/internal/domain/entity"
	domainerrors "kinwatch/internal/domain/errors"
	"kinwatch/internal/infra/pubsub"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PushHandler turns Pub/Sub push deliveries into family event fan-outs.
//
// Status codes drive redelivery: 2xx acks, anything else is retried by
// Pub/Sub. Malformed payloads are acked so they do not loop forever.
type PushHandler struct {
	logger   *slog.Logger
	dispatch usecase.DispatchUsecase
	verify   func(*http.Request) error
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config   *config.Config
	Logger   *slog.Logger
	Dispatch usecase.DispatchUsecase
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	h := &PushHandler{
		logger:   params.Logger,
		dispatch: params.Dispatch,
	}

	// Only real Google push subscriptions sign requests
	cfg := params.Config
	if cfg.PubSub != nil && cfg.PubSub.Provider == constants.PubSubProviderGoogle && cfg.Env.Env != constants.EnvDevelop {
		audience := cfg.PubSub.PushAudience
		h.verify = func(req *http.Request) error {
			return verifyPubSubToken(req, audience)
		}
	}

	return h
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)

	if h.verify != nil {
		if err := h.verify(c.Request()); err != nil {
			logger.Warn("Rejected Pub/Sub push", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PubSubPushMessage
	if err := c.Bind(&pushMsg); err != nil {
		logger.Error("Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	if topic := pushMsg.Message.Attributes["topic"]; topic != "" && topic != constants.NotificationFamilyEventTopic {
		logger.Warn("Ignoring push message for another topic", slog.String("topic", topic))

		return c.NoContent(http.StatusNoContent)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		logger.Error("Failed to decode message data", slog.String("messageID", pushMsg.Message.MessageID), slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	var event entity.FamilyEvent
	if err := json.Unmarshal(data, &event); err != nil {
		logger.Error("Failed to parse family event", slog.String("messageID", pushMsg.Message.MessageID), slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	event.RequestID = h.extractRequestID(ctx, &pushMsg, &event)
	reqLogger := h.logger.With(slog.String("requestID", event.RequestID))
	ctx = deliverycontext.WithRequestID(ctx, event.RequestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("Processing family event",
		slog.String("eventID", event.EventID.String()),
		slog.String("familyID", event.FamilyID.String()),
		slog.String("category", string(event.Category)),
	)

	result, err := h.dispatch.DispatchFamilyEvent(ctx, &event)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidEvent) {
			reqLogger.Error("Dropping invalid family event", slog.String("eventID", event.EventID.String()), slog.Any("error", err))

			return c.NoContent(http.StatusOK)
		}

		// Nothing was delivered yet, so a redelivery cannot double-send
		reqLogger.Error("Family event dispatch failed, requesting redelivery", slog.String("eventID", event.EventID.String()), slog.Any("error", err))

		return c.NoContent(http.StatusServiceUnavailable)
	}

	reqLogger.Info("Family event processed",
		slog.String("eventID", event.EventID.String()),
		slog.Int("recipients", len(result.Results)+result.Errors),
		slog.Int("errors", result.Errors),
		slog.String("reason", string(result.Reason)),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID prefers the message attribute, then the payload, then the
// inbound request, and finally mints one.
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *pubsub.PubSubPushMessage, event *entity.FamilyEvent) string {
	if requestID := pushMsg.Message.Attributes["request_id"]; requestID != "" {
		return requestID
	}
	if event.RequestID != "" {
		return event.RequestID
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.NewString()
}

// verifyPubSubToken validates the OIDC token Google attaches to push requests.
// https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request, audience string) error {
	token, found := strings.CutPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !found || token == "" {
		return errors.New("missing bearer token")
	}

	if audience == "" {
		scheme := "https"
		if req.TLS == nil {
			scheme = "http"
		}
		audience = fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)
	}

	payload, err := idtoken.Validate(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
