package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// APIKeyConfig decides which paths need the X-API-Key header.
// Protected paths always need it; with Required set every path that is not public needs it.
// Entries ending in "*" match by prefix.
type APIKeyConfig struct {
	Key            string
	Required       bool
	PublicPaths    []string
	ProtectedPaths []string
}

type pathSet struct {
	exact    map[string]bool
	prefixes []string
}

func newPathSet(paths []string) pathSet {
	set := pathSet{exact: make(map[string]bool, len(paths))}
	for _, p := range paths {
		if strings.HasSuffix(p, "*") {
			set.prefixes = append(set.prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		set.exact[p] = true
	}
	return set
}

func (s pathSet) match(path string) bool {
	if s.exact[path] {
		return true
	}
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// APIKeyMiddleware rejects requests to guarded paths that lack a valid X-API-Key header.
// If no key is configured it logs a warning and lets the request through.
func APIKeyMiddleware(cfg APIKeyConfig) func(http.Handler) http.Handler {
	public := newPathSet(cfg.PublicPaths)
	protected := newPathSet(cfg.ProtectedPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			guarded := protected.match(path) || (cfg.Required && !public.match(path))
			if !guarded {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.Key == "" {
				log.Warnf("%s No API key configured, allowing %s", logcolors.LogAPIKey, path)
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, path)
				writeUnauthorized(w, `{"error":"API key required","message":"Provide a valid API key via X-API-Key header"}`)
				return
			}

			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(cfg.Key)) != 1 {
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, path)
				writeUnauthorized(w, `{"error":"Invalid API key","message":"The provided API key is not valid"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(body))
}
