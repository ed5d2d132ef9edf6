package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalHTTPPublisher_PublishFamilyEvent(t *testing.T) {
	event := &entity.FamilyEvent{
		RequestID: "req-1",
		EventID:   uuid.New(),
		FamilyID:  uuid.New(),
		Category:  entity.CategoryCriticalFlag,
		Severity:  entity.SeverityCritical,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-1", r.Header.Get("X-Request-Id"))

		var push PubSubPushMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&push))
		assert.Equal(t, event.EventID.String(), push.Message.MessageID)
		assert.Equal(t, "critical_flag", push.Message.Attributes["category"])

		raw, err := base64.StdEncoding.DecodeString(push.Message.Data)
		require.NoError(t, err)
		var decoded entity.FamilyEvent
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, event.FamilyID, decoded.FamilyID)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	publisher := NewLocalHTTPPublisher(srv.URL, discardLogger())
	require.NoError(t, publisher.PublishFamilyEvent(context.Background(), event))
}

func TestLocalHTTPPublisher_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewLocalHTTPPublisher(srv.URL, discardLogger()).PublishFamilyEvent(context.Background(), &entity.FamilyEvent{})
	assert.ErrorContains(t, err, "500")
}

type countingDispatcher struct {
	usecase.DispatchUsecase
	calls atomic.Int32
}

func (d *countingDispatcher) DispatchFamilyEvent(context.Context, *entity.FamilyEvent) (*entity.FanOutResult, error) {
	time.Sleep(10 * time.Millisecond)
	d.calls.Add(1)

	return &entity.FanOutResult{}, nil
}

func TestInlinePublisher_CloseWaitsForInFlight(t *testing.T) {
	dispatcher := &countingDispatcher{}
	publisher := NewInlinePublisher(dispatcher, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, publisher.PublishFamilyEvent(ctx, &entity.FamilyEvent{EventID: uuid.New()}))
	require.NoError(t, publisher.PublishFamilyEvent(ctx, &entity.FamilyEvent{EventID: uuid.New()}))
	cancel()

	require.NoError(t, publisher.Close())
	assert.Equal(t, int32(2), dispatcher.calls.Load())

	assert.ErrorIs(t, publisher.PublishFamilyEvent(context.Background(), &entity.FamilyEvent{}), ErrPublisherClosed)
}
