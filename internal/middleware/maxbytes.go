package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps credential payloads (64 KiB).
const DefaultMaxBodyBytes = 64 << 10

// MaxBytes limits the request body size. A declared Content-Length over the limit is
// refused with 413 before the handler runs; otherwise the handler sees *http.MaxBytesError
// once the limit is crossed while decoding.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(`{"message":"Request body too large"}` + "\n"))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
