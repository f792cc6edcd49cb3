// Package httptransport is the thin HTTP layer. Handlers delegate to the
// core services and keep all transport concerns (serialization, status
// mapping, role gates) out of the domain packages.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agritrust/internal/identity"
	"agritrust/internal/platform/middleware"
	dErrors "agritrust/pkg/domain-errors"
)

// Deps collects the wired services and boundary collaborators the router
// needs.
type Deps struct {
	Identity     *IdentityHandler
	Credentials  *CredentialHandler
	Events       *EventHandler
	Attestations *AttestationHandler
	Trace        *TraceHandler
	Validator    middleware.TokenValidator
	Logger       *slog.Logger
}

// NewRouter wires all public endpoints. Reads require authentication only;
// writes additionally pass the role gates the core itself never re-checks.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))

		r.Route("/identities", func(r chi.Router) {
			r.Post("/", d.Identity.handleCreate)
			r.Get("/", d.Identity.handleList)
			r.Get("/{did}", d.Identity.handleGet)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.With(middleware.RequireActorType(d.Logger,
				string(identity.TypeAuditor), string(identity.TypeCooperative))).
				Post("/", d.Credentials.handleIssue)
			r.Get("/{id}", d.Credentials.handleGet)
			r.Post("/{id}/verify", d.Credentials.handleVerify)
			r.Delete("/{id}", d.Credentials.handleRevoke)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", d.Events.handleCreate)
			r.Get("/{id}", d.Events.handleGet)
			r.Get("/{id}/verify", d.Events.handleVerify)
			r.With(middleware.RequireActorType(d.Logger, string(identity.TypeAuditor))).
				Patch("/{id}/verification", d.Events.handleUpdateVerification)
		})

		r.Route("/lots/{lotId}", func(r chi.Router) {
			r.Get("/events", d.Events.handleListForLot)
			r.Get("/attestations", d.Attestations.handleListForLot)
			r.Get("/traceability", d.Trace.handleTraceability)
			r.Post("/presentations", d.Attestations.handleCreatePresentation)
		})

		r.Route("/attestations", func(r chi.Router) {
			r.With(middleware.RequireActorType(d.Logger, string(identity.TypeAuditor))).
				Post("/", d.Attestations.handleCreate)
			r.Get("/{id}/verify", d.Attestations.handleVerify)
			r.Delete("/{id}", d.Attestations.handleRevoke)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		status = http.StatusBadRequest
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case dErrors.CodeForbidden:
		status = http.StatusForbidden
	}
	writeJSON(w, status, map[string]string{
		"error": string(dErrors.CodeOf(err)),
	})
}
