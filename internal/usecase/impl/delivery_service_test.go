package impl

import (
	"context"
	"strings"
	"testing"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deliveryFixture struct {
	env       *serviceEnv
	guardian  *entity.Recipient
	familyID  uuid.UUID
	content   service.Content
	eventBase entity.NotificationEvent
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	env := newServiceEnv(t, testNow)
	family, guardians, child := env.seedFamily(t, 1)

	return &deliveryFixture{
		env:      env,
		guardian: guardians[0],
		familyID: family.ID,
		content:  service.Content{Title: "Urgent: review needed", Body: "Sam may need your attention right away."},
		eventBase: entity.NotificationEvent{
			ID:          uuid.New(),
			RecipientID: guardians[0].ID,
			FamilyID:    family.ID,
			ChildID:     child.ID,
			ChildName:   "Sam",
			Category:    entity.CategoryCriticalFlag,
			Severity:    entity.SeverityCritical,
			Priority:    entity.PriorityNormal,
		},
	}
}

func (f *deliveryFixture) deliver(t *testing.T, mutate ...func(*entity.NotificationEvent)) *entity.DeliveryResult {
	t.Helper()
	event := f.eventBase
	for _, m := range mutate {
		m(&event)
	}
	prefs, err := f.env.preferences.GetPreferences(context.Background(), f.guardian.ID)
	require.NoError(t, err)

	return f.env.delivery.Deliver(context.Background(), f.guardian, prefs, &event, f.content)
}

func TestDeliveryService_PushOnly(t *testing.T) {
	f := newDeliveryFixture(t)
	f.env.addEndpoint(t, f.guardian.ID, "tok-1")
	f.env.push.EXPECT().
		SendMulticast(mock.Anything, []string{"tok-1"}, f.content.Title, f.content.Body, mock.Anything).
		RunAndReturn(pushDelivers())

	res := f.deliver(t, func(e *entity.NotificationEvent) { e.DailyOnceKey = "daily-summary" })

	assert.True(t, res.Sent)
	assert.Equal(t, entity.ReasonSent, res.Reason)
	assert.Equal(t, entity.ChannelPush, res.PrimaryChannel)
	assert.False(t, res.FallbackUsed)
	assert.True(t, res.AllDelivered)

	history := f.env.historyFor(f.guardian.ID)
	require.Len(t, history, 1)
	assert.Equal(t, entity.ChannelPush, history[0].Channel)
	assert.Equal(t, entity.StatusSent, history[0].Status)
	assert.Equal(t, "msg-0", history[0].MessageID)
	assert.Equal(t, "daily-summary", history[0].DedupKey)
}

func TestDeliveryService_EmailFallbackWhenNoEndpoints(t *testing.T) {
	f := newDeliveryFixture(t)
	f.env.updateRecipient(t, f.guardian, withEmail("g@example.test"))
	f.env.email.EXPECT().
		Send(mock.Anything, mock.MatchedBy(func(msg service.EmailMessage) bool {
			return msg.To == "g@example.test" &&
				strings.HasPrefix(msg.Subject, "You may have missed this: ") &&
				msg.ActionURL == "https://app.example.test"
		})).
		Return(&service.SendResult{MessageID: "email-1"}, nil)

	res := f.deliver(t)

	assert.True(t, res.Sent)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, entity.ChannelEmail, res.FallbackChannel)
	assert.Equal(t, entity.ChannelPush, res.PrimaryChannel)
	assert.False(t, res.AllDelivered)
	assert.True(t, res.SucceededOn(entity.ChannelEmail))

	history := f.env.historyFor(f.guardian.ID)
	require.Len(t, history, 2)
	assert.Equal(t, entity.ReasonNoTokens, history[0].Reason)
	assert.Equal(t, entity.StatusFailed, history[0].Status)
	assert.Equal(t, entity.StatusSent, history[1].Status)
}

func TestDeliveryService_NoDestination(t *testing.T) {
	f := newDeliveryFixture(t)

	res := f.deliver(t)

	assert.False(t, res.Sent)
	assert.Equal(t, entity.ReasonNoTokens, res.Reason)

	history := f.env.historyFor(f.guardian.ID)
	require.Len(t, history, 1)
	assert.Equal(t, entity.StatusFailed, history[0].Status)
	assert.Equal(t, entity.ReasonNoTokens, history[0].Reason)
}

func TestDeliveryService_ProviderErrorFallsBackToEmail(t *testing.T) {
	f := newDeliveryFixture(t)
	f.env.updateRecipient(t, f.guardian, withEmail("g@example.test"))
	f.env.addEndpoint(t, f.guardian.ID, "tok-1")
	f.env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("fcm unavailable"))
	f.env.email.EXPECT().
		Send(mock.Anything, mock.Anything).
		Return(&service.SendResult{MessageID: "email-1"}, nil)

	res := f.deliver(t)

	assert.True(t, res.Sent)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, entity.ReasonProviderError, f.env.historyFor(f.guardian.ID)[0].Reason)
}

func TestDeliveryService_RemovesInvalidEndpoints(t *testing.T) {
	f := newDeliveryFixture(t)
	f.env.addEndpoint(t, f.guardian.ID, "tok-good")
	f.env.addEndpoint(t, f.guardian.ID, "tok-bad")
	f.env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers("tok-bad"))

	res := f.deliver(t)
	assert.True(t, res.Sent)

	remaining, err := f.env.devices.ListEndpoints(context.Background(), f.guardian.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "tok-good", remaining[0].Token)
}

func TestDeliveryService_AllEndpointsInvalid(t *testing.T) {
	f := newDeliveryFixture(t)
	f.env.addEndpoint(t, f.guardian.ID, "tok-bad")
	f.env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers("tok-bad"))

	res := f.deliver(t)

	assert.False(t, res.Sent)
	assert.Equal(t, entity.ReasonSendFailed, res.Reason)
	assert.Equal(t, entity.ReasonEndpointInvalid, f.env.historyFor(f.guardian.ID)[0].Reason)

	remaining, err := f.env.devices.ListEndpoints(context.Background(), f.guardian.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeliveryService_SMSRules(t *testing.T) {
	tests := []struct {
		name     string
		category entity.Category
		priority entity.Priority
		wantSMS  bool
	}{
		{name: "critical flag with critical priority", category: entity.CategoryCriticalFlag, priority: entity.PriorityCritical, wantSMS: true},
		{name: "normal priority", category: entity.CategoryCriticalFlag, priority: entity.PriorityNormal, wantSMS: false},
		{name: "category not allow-listed", category: entity.CategoryContentFlag, priority: entity.PriorityCritical, wantSMS: false},
		{name: "security category never texts", category: entity.CategoryLoginAlert, priority: entity.PriorityCritical, wantSMS: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeliveryFixture(t)
			f.env.updateRecipient(t, f.guardian, withPhone("+15550100"))
			f.env.updatePrefs(t, f.guardian.ID, &entity.PreferencesUpdate{
				Channels: &entity.Channels{Push: true, Email: false, SMS: true},
			})
			f.env.addEndpoint(t, f.guardian.ID, "tok-1")
			f.env.push.EXPECT().
				SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				RunAndReturn(pushDelivers())
			if tt.wantSMS {
				f.env.sms.EXPECT().
					Send(mock.Anything, mock.MatchedBy(func(msg service.SMSMessage) bool { return msg.To == "+15550100" })).
					Return(&service.SendResult{MessageID: "sms-1"}, nil)
			}

			res := f.deliver(t, func(e *entity.NotificationEvent) {
				e.Category = tt.category
				e.Priority = tt.priority
			})

			assert.True(t, res.Sent)
			assert.Equal(t, tt.wantSMS, res.SucceededOn(entity.ChannelSMS))
		})
	}
}

func TestDeliveryService_UnverifiedPhoneNeverTexts(t *testing.T) {
	f := newDeliveryFixture(t)
	f.guardian.Phone = "+15550100"
	f.env.updateRecipient(t, f.guardian)
	f.env.updatePrefs(t, f.guardian.ID, &entity.PreferencesUpdate{
		Channels: &entity.Channels{Push: true, SMS: true},
	})
	f.env.addEndpoint(t, f.guardian.ID, "tok-1")
	f.env.push.EXPECT().
		SendMulticast(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(pushDelivers())

	res := f.deliver(t, func(e *entity.NotificationEvent) { e.Priority = entity.PriorityCritical })

	assert.True(t, res.Sent)
	assert.False(t, res.SucceededOn(entity.ChannelSMS))
}
