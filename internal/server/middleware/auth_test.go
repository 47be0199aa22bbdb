package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticClaims string

func (c staticClaims) GetSubject() (string, error) { return string(c), nil }

type staticValidator map[string]string

func (v staticValidator) ValidateToken(token string) (SubjectGetter, error) {
	subject, ok := v[token]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return staticClaims(subject), nil
}

func TestAuthMiddleware(t *testing.T) {
	validator := staticValidator{"good-token": "batch-runner", "anonymous": ""}

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantSubject string
	}{
		{"valid token", "Bearer good-token", http.StatusOK, "batch-runner"},
		{"lowercase scheme", "bearer good-token", http.StatusOK, "batch-runner"},
		{"extra spaces", "Bearer   good-token", http.StatusOK, "batch-runner"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"no scheme", "good-token", http.StatusUnauthorized, ""},
		{"only scheme", "Bearer", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"empty subject", "Bearer anonymous", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubject string
			handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSubject = Subject(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/budget", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantSubject, gotSubject)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), "unauthorized")
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestSubject_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Subject(req.Context()))
}
