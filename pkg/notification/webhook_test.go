package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shiftboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *model.Notification {
	return &model.Notification{
		ID:          "n1",
		Type:        "offer.accepted",
		RecipientID: "poster-1",
		OfferID:     "o1",
		ActorID:     "w1",
		Data:        map[string]interface{}{"poster_id": "poster-1"},
		CreatedAt:   time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	var got webhookMessage
	var eventHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		eventHeader = r.Header.Get("X-Shiftboard-Event")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	require.True(t, n.Enabled())
	require.NoError(t, n.Send(context.Background(), sample()))

	assert.Equal(t, "offer.accepted", eventHeader)
	assert.Equal(t, "offer.accepted", got.Event)
	assert.Equal(t, "poster-1", got.RecipientID)
	assert.Equal(t, "o1", got.OfferID)
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookNotifier_DisabledIsNoop(t *testing.T) {
	n := NewWebhookNotifier("")
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Send(context.Background(), sample()))
}
