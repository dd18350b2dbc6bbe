package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSendsAnonKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "driller@example.com", body["email"])
		_ = json.NewEncoder(w).Encode(Session{AccessToken: "tok", User: User{ID: "u1", Email: body["email"]}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "anon")
	s, err := c.Login(context.Background(), "driller@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Equal(t, "u1", s.User.ID)
}

func TestStatusErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "anon").RPC(context.Background(), "create_profile", map[string]any{"p_profile": map[string]any{"id": "u1"}}, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "duplicate key value")
}

func TestRESTUsesServiceKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/wells", r.URL.Path)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("profile_id"))
		assert.Equal(t, "service", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"w1"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon", WithServiceKey("service"))
	var rows []map[string]any
	err := c.Select(context.Background(), "wells", url.Values{"profile_id": {"eq.p1"}}, &rows)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "w1", rows[0]["id"])
}

func TestRemoteVerifyRejectsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "anon").VerifyAccessToken(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func signToken(t *testing.T, secret string, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier("s3cret")
	now := time.Now()

	good := signToken(t, "s3cret", accessClaims{
		Email: "driller@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}, jwt.SigningMethodHS256)
	user, err := v.VerifyAccessToken(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u1", Email: "driller@example.com"}, user)

	tests := map[string]string{
		"wrong secret": signToken(t, "other", accessClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", Audience: jwt.ClaimStrings{"authenticated"}, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}, jwt.SigningMethodHS256),
		"expired": signToken(t, "s3cret", accessClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", Audience: jwt.ClaimStrings{"authenticated"}, ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		}}, jwt.SigningMethodHS256),
		"anon audience": signToken(t, "s3cret", accessClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", Audience: jwt.ClaimStrings{"anon"}, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}, jwt.SigningMethodHS256),
		"no subject": signToken(t, "s3cret", accessClaims{RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{"authenticated"}, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}, jwt.SigningMethodHS256),
		"wrong alg": signToken(t, "s3cret", accessClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", Audience: jwt.ClaimStrings{"authenticated"}, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}, jwt.SigningMethodHS512),
		"garbage": "not.a.token",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyAccessToken(context.Background(), tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
