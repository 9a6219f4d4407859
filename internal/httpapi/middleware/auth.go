package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const unauthorizedBody = `{"error":"Unauthorized. Provide X-Test-Key header or ?key= parameter"}`

func readTestKey(r *http.Request) string {
	if k := r.Header.Get("X-Test-Key"); k != "" {
		return strings.TrimSpace(k)
	}
	return r.URL.Query().Get("key")
}

// RequireTestKey only permits requests that present key in the X-Test-Key
// header or the key query parameter. An empty key allows all requests.
func RequireTestKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := readTestKey(r)
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(unauthorizedBody))
		})
	}
}
