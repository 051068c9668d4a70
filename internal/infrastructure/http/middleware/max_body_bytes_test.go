package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	})
}

func TestMaxBodyBytes(t *testing.T) {
	const limit = 16

	tests := []struct {
		name          string
		body          string
		contentLength int64
		wantStatus    int
	}{
		{"within limit", `{"text":"milk"}`, -2, http.StatusOK},
		{"declared too large", strings.Repeat("a", 32), -2, http.StatusRequestEntityTooLarge},
		{"chunked too large", strings.Repeat("a", 32), -1, http.StatusRequestEntityTooLarge},
		{"understated length", strings.Repeat("a", 32), 4, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader(tt.body))
			if tt.contentLength != -2 {
				req.ContentLength = tt.contentLength
			}
			w := httptest.NewRecorder()

			MaxBodyBytes(limit)(echoBody(t)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
			}
		})
	}
}

func TestMaxBodyBytes_NoBodyPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	w := httptest.NewRecorder()

	MaxBodyBytes(1)(echoBody(t)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
