package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/phrazzld/deckforge/internal/api/shared"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key header does not match one of
// keys. With no keys configured every request is let through.
func APIKey(keys []string) func(http.Handler) http.Handler {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !keyAllowed(allowed, r.Header.Get(APIKeyHeader)) {
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
					"Invalid or missing API Key", nil, shared.WithElevatedLogLevel())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// keyAllowed compares presented against every key so the time taken does
// not depend on which key matched.
func keyAllowed(allowed [][]byte, presented string) bool {
	if presented == "" {
		return false
	}
	p := []byte(presented)
	match := 0
	for _, k := range allowed {
		match |= subtle.ConstantTimeCompare(k, p)
	}
	return match == 1
}
