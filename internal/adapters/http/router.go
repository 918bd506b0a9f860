package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/application"
)

// NewRouter mounts the public tracking surface (redirect, postback, pixel,
// beacon) unauthenticated and the integration/management surface behind the
// gateway auth headers.
func NewRouter(service *application.Service, ready func() bool) http.Handler {
	h := NewHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Get("/go/{trackingCode}", h.redirect)
	r.Post("/tracking/postback", h.postback)
	r.Get("/tracking/pixel/{trackingCode}", h.pixel)
	r.Post("/tracking/beacon", h.beacon)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware)
		api.Post("/relationships/approve", h.approveRelationship)
		api.Post("/integration/api-key/rotate", h.rotateAPIKey)
		api.Post("/integration/secret/rotate", h.rotateSecret)
		api.Get("/integration/snippet", h.integrationSnippet)
		api.Post("/integration/test-signature", h.testSignature)
		api.Post("/admin/fee-cache/invalidate", h.invalidateFeeCache)
	})

	return r
}
