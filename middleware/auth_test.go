package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulletin/pkg/logger"
	"bulletin/pkg/token"
)

func init() {
	logger.Init()
}

var testSecret = []byte("test-secret")

type fakeChecker struct {
	revoked bool
	err     error
}

func (f *fakeChecker) IsRevoked(_ context.Context, _ string) (bool, error) {
	return f.revoked, f.err
}

func authedRequest(t *testing.T, checker *fakeChecker, tokenString string) *httptest.ResponseRecorder {
	t.Helper()
	var gotUsername string
	handler := Auth(testSecret, checker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUsername, _ = r.Context().Value(UsernameKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/boards/1/articles", nil)
	if tokenString != "" {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		assert.Equal(t, "alice", gotUsername)
	}
	return rec
}

func TestAuthAcceptsValidToken(t *testing.T) {
	signed, err := token.Generate(testSecret, "alice", time.Now(), time.Hour)
	require.NoError(t, err)

	rec := authedRequest(t, &fakeChecker{}, signed)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	rec := authedRequest(t, &fakeChecker{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	rec := authedRequest(t, &fakeChecker{}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	signed, err := token.Generate(testSecret, "alice", time.Now(), time.Hour)
	require.NoError(t, err)

	rec := authedRequest(t, &fakeChecker{revoked: true}, signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthReadsCookie(t *testing.T) {
	signed, err := token.Generate(testSecret, "alice", time.Now(), time.Hour)
	require.NoError(t, err)

	handler := Auth(testSecret, &fakeChecker{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: signed})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
