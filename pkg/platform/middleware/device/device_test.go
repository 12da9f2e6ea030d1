package device

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"credo/pkg/requestcontext"
)

func serve(t *testing.T, label LabelFunc, userAgent string) string {
	t.Helper()
	var captured string
	handler := Device(label)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.Device(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "10.0.0.1", userAgent))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return captured
}

func TestDeviceMiddleware(t *testing.T) {
	upper := func(ua string) string { return strings.ToUpper(ua) }

	t.Run("labels the user agent from context", func(t *testing.T) {
		assert.Equal(t, "CURL/8.0", serve(t, upper, "curl/8.0"))
	})

	t.Run("label function sees empty user agent", func(t *testing.T) {
		unknown := func(ua string) string {
			if ua == "" {
				return "Unknown Device"
			}
			return ua
		}
		assert.Equal(t, "Unknown Device", serve(t, unknown, ""))
	})

	t.Run("nil label function leaves context untouched", func(t *testing.T) {
		assert.Empty(t, serve(t, nil, "curl/8.0"))
	})
}
