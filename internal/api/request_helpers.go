package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
)

// getPathID parses the {id} path parameter. A malformed ID cannot name a
// stored record, so it is reported as not found.
func getPathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NotFoundf("Presentation with ID '%s' not found.", raw)
	}
	return id, nil
}

// absoluteURL builds an absolute URL for path on the host the request was
// sent to, honoring X-Forwarded-Proto from a fronting proxy.
func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}
	return scheme + "://" + r.Host + path
}
