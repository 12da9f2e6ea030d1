// Package device labels the client device of each request.
package device

import (
	"net/http"

	"credo/pkg/requestcontext"
)

// LabelFunc turns a User-Agent string into a short display label.
type LabelFunc func(userAgent string) string

// Device stores a device label derived from the User-Agent. It must run after
// the metadata middleware, which places the User-Agent in the context.
func Device(label LabelFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if label != nil {
				ctx = requestcontext.WithDevice(ctx, label(requestcontext.UserAgent(ctx)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
