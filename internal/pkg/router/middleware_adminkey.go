package router

import (
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
)

// middlewareAdminKey guards the management endpoints with a shared admin key.
//
// Only a hash of the key lives in configuration; the plaintext is presented on
// each request via the X-Admin-Key header.
func middlewareAdminKey(hasher hash.Hash, hashedKey string, adminEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			s, ok := adminEndpoints[r.Method]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if _, guarded := s[path]; !guarded {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-Admin-Key")
			if key == "" || hashedKey == "" || !hasher.Verify(hashedKey, key) {
				writeJSON(w, map[string]string{"message": "Admin authentication required"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
