package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cragcast/cragcast/internal/api/middleware"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"none supplied", "", false},
		{"client id kept", "ios-7f3a9c21", true},
		{"trace style id kept", "00-0af7651916cd43dd:b7ad", true},
		{"header injection replaced", "abc\r\nX-Evil: 1", false},
		{"spaces replaced", "my request", false},
		{"oversized replaced", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/locations", http.NoBody)
			if tt.incoming != "" {
				req.Header["X-Request-Id"] = []string{tt.incoming}
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
				return
			}
			assert.True(t, strings.HasPrefix(seen, "req_"), seen)
			assert.Len(t, seen, len("req_")+22)
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	ids := map[string]bool{}
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ids[middleware.GetRequestID(r.Context())] = true
	}))
	for i := 0; i < 50; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	}
	assert.Len(t, ids, 50)
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, middleware.GetRequestID(httptest.NewRequest(http.MethodGet, "/", http.NoBody).Context()))
}
