package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550001111", r.PostForm.Get("To"))
		assert.Equal(t, "+15559990000", r.PostForm.Get("From"))
		assert.Equal(t, maxBodyRunes, utf8.RuneCountInString(r.PostForm.Get("Body")))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42"}`))
	}))
	defer srv.Close()

	client := NewClient("AC1", "secret", "+15559990000", srv.URL)
	res, err := client.Send(context.Background(), service.SMSMessage{
		To:       "+15550001111",
		Category: entity.CategoryCriticalFlag,
		Body:     strings.Repeat("á", 500),
	})
	require.NoError(t, err)
	assert.Equal(t, "SM42", res.MessageID)
}

func TestClient_Send_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	_, err := NewClient("AC1", "secret", "+1555", srv.URL).Send(context.Background(), service.SMSMessage{To: "bogus"})
	assert.ErrorContains(t, err, "21211")

	_, err = NewClient("AC1", "", "+1555", srv.URL).Send(context.Background(), service.SMSMessage{To: "+1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
