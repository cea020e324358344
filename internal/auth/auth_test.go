package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testUserID = "6f1c2d4e-8a9b-4c3d-9e2f-1a2b3c4d5e6f"
)

func TestIssueAndVerify(t *testing.T) {
	token, err := NewIssuer(testSecret, "tosembanda").Issue(testUserID, time.Hour)
	require.NoError(t, err)

	id, err := NewVerifier(testSecret, "tosembanda").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, id.UserID)
}

func TestVerifyRejects(t *testing.T) {
	good, err := NewIssuer(testSecret, "tosembanda").Issue(testUserID, time.Hour)
	require.NoError(t, err)

	expiredIssuer := NewIssuer(testSecret, "tosembanda")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(testUserID, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *Verifier
		token    string
	}{
		{name: "wrong secret", verifier: NewVerifier("other", ""), token: good},
		{name: "wrong issuer", verifier: NewVerifier(testSecret, "someone-else"), token: good},
		{name: "expired", verifier: NewVerifier(testSecret, ""), token: expired},
		{name: "garbage", verifier: NewVerifier(testSecret, ""), token: "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueRejectsNonUUIDSubject(t *testing.T) {
	_, err := NewIssuer(testSecret, "").Issue("alice", time.Hour)
	require.ErrorIs(t, err, ErrInvalidSubject)
}

func TestMiddleware(t *testing.T) {
	token, err := NewIssuer(testSecret, "").Issue(testUserID, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen Identity
	var ok bool
	h := Middleware(NewVerifier(testSecret, ""), logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = FromContext(r.Context())
	}))

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(httptest.NewRecorder(), req)

		require.True(t, ok)
		assert.Equal(t, testUserID, seen.UserID)
	})

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws/conversations/x?access_token="+token, nil)
		h.ServeHTTP(httptest.NewRecorder(), req)

		require.True(t, ok)
	})

	t.Run("invalid token passes through without identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, ok)
	})

	t.Run("no token", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
		assert.False(t, ok)
	})
}
