package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var got postmarkEmail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "token-1", r.Header.Get("X-Postmark-Server-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"ErrorCode":0,"Message":"OK","MessageID":"pm-123"}`))
	}))
	defer srv.Close()

	client := NewClient("token-1", "alerts@kinwatch.test", srv.URL+"/", WithRateLimit(5))
	res, err := client.Send(context.Background(), service.EmailMessage{
		To:        "parent@example.test",
		Category:  entity.CategoryCriticalFlag,
		Subject:   "Alert",
		Body:      "Sam <needs> attention",
		ActionURL: "https://app.example.test/alerts",
	})
	require.NoError(t, err)

	assert.Equal(t, "pm-123", res.MessageID)
	assert.Equal(t, "critical_flag", got.Tag)
	assert.Contains(t, got.HtmlBody, "Sam &lt;needs&gt; attention")
	assert.Contains(t, got.TextBody, "Open: https://app.example.test/alerts")
}

func TestClient_Send_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":406,"Message":"Inactive recipient"}`))
	}))
	defer srv.Close()

	_, err := NewClient("token-1", "from@test", srv.URL).Send(context.Background(), service.EmailMessage{To: "x@test"})
	assert.ErrorContains(t, err, "Inactive recipient")

	_, err = NewClient("", "from@test", srv.URL).Send(context.Background(), service.EmailMessage{To: "x@test"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
