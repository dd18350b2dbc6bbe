package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oilrush/internal/economy"
)

func TestClientSendsTokenAndIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/boosters/worker_crew/buy", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "k-1", r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"booster": map[string]any{"type": "worker_crew", "level": 1},
			"cost":    5000,
			"profile": map[string]any{"id": "u1", "multiplier": 1.1},
		})
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL+"/").BuyBooster(context.Background(), "tok", economy.BoosterWorkerCrew, "k-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), out.Cost)
	assert.Equal(t, 1, out.Booster.Level)
	assert.InDelta(t, 1.1, out.Profile.Multiplier, 1e-9)
}

func TestClientDecodesCaseOpeningWithoutPayoutType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reward":{"case_id":"basic_case","rarity":"epic","kind":"booster","label":"Turbo Boost","payout":{"type":"turbo_boost"}},"price":5000,"money_delta":-5000,"booster":{"type":"turbo_boost","level":1},"profile":{"id":"u1"}}`))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL).OpenCase(context.Background(), "tok", "basic_case", "")
	require.NoError(t, err)
	assert.Equal(t, economy.RarityEpic, out.Reward.Rarity)
	assert.Equal(t, "Turbo Boost", out.Reward.Label)
	require.NotNil(t, out.Booster)
	assert.Equal(t, economy.BoosterTurboBoost, out.Booster.Type)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token: expired"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Dashboard(context.Background(), "old")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.EqualError(t, err, "api status 401: invalid token: expired")
}

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadSession()
	assert.Error(t, err)

	require.NoError(t, SaveSession(Session{AccessToken: "tok", Email: "a@oil.test", UserID: "u1"}))
	s, err := LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)

	require.NoError(t, ClearSession())
	require.NoError(t, ClearSession())
	_, err = LoadSession()
	assert.Error(t, err)
}
