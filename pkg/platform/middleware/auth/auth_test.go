package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"neokyc/pkg/requestcontext"
)

type stubValidator map[string]*Claims

func (s stubValidator) ValidateToken(token string) (*Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func TestRequireAdmin(t *testing.T) {
	validator := stubValidator{
		"good":   {Subject: "admin", Role: RoleAdmin},
		"viewer": {Subject: "bob", Role: "viewer"},
	}
	var actor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireAdmin(validator, slog.New(slog.NewTextHandler(io.Discard, nil)))(next)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"non-admin role", "Bearer viewer", http.StatusForbidden},
		{"admin", "Bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor = ""
			r := httptest.NewRequest(http.MethodGet, "/admin/pending", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "admin", actor)
			} else {
				assert.Empty(t, actor)
				assert.Contains(t, w.Body.String(), `"error":`)
			}
		})
	}
}
