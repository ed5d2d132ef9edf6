package notification

import (
	"context"
	"log/slog"

	"kinwatch/config"
	"kinwatch/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

// fcmMaxTokens is the FCM limit for one multicast request.
const fcmMaxTokens = 500

// multicastClient is the part of *messaging.Client the service uses.
type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type firebaseService struct {
	client multicastClient
	// invalid reports errors that mean the token will never work again.
	invalid func(error) bool
	logger  *slog.Logger
}

// FirebaseParams defines the dependencies of the push provider.
type FirebaseParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// ErrPushNotConfigured is returned by every send when Firebase is not configured.
var ErrPushNotConfigured = errors.New("push provider not configured")

type unconfiguredPush struct{}

func (unconfiguredPush) SendMulticast(context.Context, []string, string, string, map[string]string) (*service.MulticastResult, error) {
	return nil, ErrPushNotConfigured
}

// NewFirebaseService creates the FCM push provider. Without a credentials
// path the application default credentials are used; with neither a project
// nor credentials the push channel fails every send.
func NewFirebaseService(params FirebaseParams) (service.PushService, error) {
	ctx := context.Background()

	if cfg := params.Config.Firebase; cfg == nil || (cfg.ProjectID == "" && cfg.CredentialsPath == "") {
		params.Logger.Warn("Firebase not configured, push channel disabled")

		return unconfiguredPush{}, nil
	}

	var fbConfig *firebase.Config
	var opts []option.ClientOption
	if cfg := params.Config.Firebase; cfg != nil {
		if cfg.ProjectID != "" {
			fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
		}
		if cfg.CredentialsPath != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
		}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	return newFirebaseService(client, params.Logger), nil
}

func newFirebaseService(client multicastClient, logger *slog.Logger) *firebaseService {
	return &firebaseService{
		client:  client,
		invalid: isInvalidTokenError,
		logger:  logger,
	}
}

// SendMulticast sends the message to every token, splitting into FCM-sized
// chunks. Results keep the order of tokens.
func (s *firebaseService) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*service.MulticastResult, error) {
	result := &service.MulticastResult{PerEndpoint: make([]service.EndpointResult, 0, len(tokens))}
	if len(tokens) == 0 {
		return result, nil
	}

	for start := 0; start < len(tokens); start += fcmMaxTokens {
		chunk := tokens[start:min(start+fcmMaxTokens, len(tokens))]

		response, err := s.client.SendEachForMulticast(ctx, buildMulticast(chunk, title, body, data))
		if err != nil {
			if start == 0 {
				return nil, errors.Wrap(err, "failed to send multicast notification")
			}
			// earlier chunks already went out; report the rest as failed
			s.logger.Warn("FCM chunk failed", slog.Int("offset", start), slog.Any("error", err))
			for _, token := range chunk {
				result.PerEndpoint = append(result.PerEndpoint, service.EndpointResult{Token: token, Err: err})
			}
			result.FailureCount += len(chunk)

			continue
		}

		result.SuccessCount += response.SuccessCount
		result.FailureCount += response.FailureCount
		for idx, sendResponse := range response.Responses {
			endpoint := service.EndpointResult{Token: chunk[idx]}
			if sendResponse.Success {
				endpoint.MessageID = sendResponse.MessageID
			} else {
				endpoint.Err = sendResponse.Error
				endpoint.Invalid = sendResponse.Error != nil && s.invalid(sendResponse.Error)
			}
			result.PerEndpoint = append(result.PerEndpoint, endpoint)
		}
	}

	return result, nil
}

// buildMulticast raises delivery priority for critical notifications so they
// wake the device.
func buildMulticast(tokens []string, title, body string, data map[string]string) *messaging.MulticastMessage {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if data["severity"] == "critical" {
		message.Android = &messaging.AndroidConfig{Priority: "high"}
		message.APNS = &messaging.APNSConfig{Headers: map[string]string{"apns-priority": "10"}}
	}

	return message
}

func isInvalidTokenError(err error) bool {
	return messaging.IsInvalidArgument(err) || messaging.IsUnregistered(err)
}
