package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oilrush/internal/economy"
	"oilrush/internal/supabase"
)

func newSupabaseStore(t *testing.T, h http.HandlerFunc) *Supabase {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSupabase(supabase.NewClient(srv.URL, "anon", supabase.WithServiceKey("service")))
}

func TestSupabaseGetProfile(t *testing.T) {
	s := newSupabaseStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		if r.URL.Query().Get("id") == "eq.ghost" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"p1","coins":5,"money":700,"barrels":12,"daily_income":4000,"multiplier":1.1,
			"last_login":"2026-01-01T10:00:00Z","titles":["ceo"],"referral_code":"ABCD2345","referred_by":null,
			"version":7,"created_at":"2025-12-01T00:00:00Z"}]`))
	})

	p, err := s.GetProfile(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, economy.Balances{Coins: 5, Money: 700, Barrels: 12}, p.Balances)
	assert.Equal(t, int64(7), p.Version)
	assert.Equal(t, 10, p.LastLogin.Hour())
	assert.Empty(t, p.ReferredBy)

	_, err = s.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabaseCommitOutcomes(t *testing.T) {
	var outcome string
	var got map[string]mutationPayload
	s := newSupabaseStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/apply_economy_mutation", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(outcome)
	})
	m := Mutation{
		Profile:         economy.Profile{ID: "p1", Balances: economy.Balances{Money: 100}},
		ExpectedVersion: 3,
		DeleteBoosters:  []string{"b1"},
		UpsertWells:     []economy.Well{{ID: "w1", Type: economy.WellStarter, Level: 1}},
	}

	outcome = mutationApplied
	require.NoError(t, s.Commit(context.Background(), m))
	assert.Equal(t, int64(3), got["p_mutation"].ExpectedVersion)
	assert.Equal(t, "starter", got["p_mutation"].UpsertWells[0].WellType)
	assert.Equal(t, "p1", got["p_mutation"].UpsertWells[0].ProfileID)
	assert.Equal(t, []string{"b1"}, got["p_mutation"].DeleteBoosters)

	outcome = mutationVersionConflict
	assert.ErrorIs(t, s.Commit(context.Background(), m), ErrVersionConflict)

	outcome = mutationDuplicateRequest
	assert.ErrorIs(t, s.Commit(context.Background(), m), ErrDuplicateRequest)

	outcome = "exploded"
	assert.Error(t, s.Commit(context.Background(), m))
}

func TestSupabaseCreateProfileConflict(t *testing.T) {
	s := newSupabaseStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/create_profile", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"duplicate key"}`))
	})

	err := s.CreateProfile(context.Background(), economy.Profile{ID: "p1"}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSupabaseRemoteFailurePassesThrough(t *testing.T) {
	s := newSupabaseStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database is down"}`))
	})

	_, err := s.ListWells(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, supabase.IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "database is down")
}
