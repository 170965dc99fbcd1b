package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"claimguard/pkg/requestcontext"
)

type stubValidator map[string]*JWTClaims

func (s stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func TestRequireActor(t *testing.T) {
	validator := stubValidator{"good": {ActorID: "sup-1", Role: "supervisor"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotID, gotRole string
	handler := RequireActor(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.ActorID(r.Context())
		gotRole = requestcontext.ActorRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotRole = "", ""
			r := httptest.NewRequest(http.MethodGet, "/v1/claims", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "sup-1", gotID)
				assert.Equal(t, "supervisor", gotRole)
			} else {
				assert.Empty(t, gotID)
				assert.Contains(t, w.Body.String(), "unauthorized")
			}
		})
	}
}
