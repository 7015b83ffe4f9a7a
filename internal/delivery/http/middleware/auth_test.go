package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invitease/internal/domain"
)

type fakeVerifier struct {
	claims *domain.TokenClaims
	err    error
	seen   string
}

func (f *fakeVerifier) Verify(token string) (*domain.TokenClaims, error) {
	f.seen = token
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func TestRequireAuth(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name       string
		header     string
		verifier   *fakeVerifier
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "valid token",
			header:     "Bearer good-token",
			verifier:   &fakeVerifier{claims: &domain.TokenClaims{AccountID: "snd-1", Contact: "+4477", Role: "sender"}},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "missing header",
			header:     "",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty token",
			header:     "Bearer   ",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejected token",
			header:     "Bearer bad-token",
			verifier:   &fakeVerifier{err: errors.New("expired")},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			var gotClaims *domain.TokenClaims
			next := func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotClaims, _ = ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}

			handler := RequireAuth(tt.verifier, logger)(next)
			req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			if tt.wantNext {
				require.NotNil(t, gotClaims)
				assert.Equal(t, "snd-1", gotClaims.AccountID)
				assert.Equal(t, "good-token", tt.verifier.seen)
			}
		})
	}
}

func TestIdentityFromContext(t *testing.T) {
	tests := []struct {
		name   string
		claims *domain.TokenClaims
		want   domain.Identity
	}{
		{
			name:   "sender role",
			claims: &domain.TokenClaims{AccountID: "snd-1", Contact: "+4477", Role: "sender"},
			want:   domain.Identity{SenderID: "snd-1", Contact: "+4477"},
		},
		{
			name:   "receiver role",
			claims: &domain.TokenClaims{AccountID: "rcv-1", Contact: "+4477", Role: "receiver"},
			want:   domain.Identity{ReceiverID: "rcv-1", Contact: "+4477"},
		},
		{
			name:   "unknown role keeps contact only",
			claims: &domain.TokenClaims{AccountID: "x-1", Contact: "+4477", Role: "other"},
			want:   domain.Identity{Contact: "+4477"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := SetClaims(context.Background(), tt.claims)
			identity, ok := IdentityFromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, tt.want, identity)
		})
	}

	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
}
