package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CalistoMango/TheShipyard-sub000/internal/application"
	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

// Handler is the HTTP adapter entrypoint for pool use-cases.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// NewRouter registers pool HTTP routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/pool/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)

			r.Post("/ideas", handler.createIdea)
			r.Get("/ideas", handler.listIdeas)
			r.Get("/ideas/{idea_id}", handler.getIdea)
			r.Post("/ideas/{idea_id}/contributions", handler.contribute)
			r.Get("/ideas/{idea_id}/refund-eligibility", handler.refundEligibility)

			r.Post("/claims/refund/sign", handler.signRefundClaim)
			r.Post("/claims/reward/sign", handler.signRewardClaim)
			r.Post("/claims/refund/record", handler.recordRefundClaim)
			r.Post("/claims/reward/record", handler.recordRewardClaim)
			r.Post("/claims/repair", handler.repairClaim)
			r.Get("/rewards/preview", handler.rewardPreview)

			r.Post("/ideas/{idea_id}/builds", handler.submitBuild)
			r.Get("/ideas/{idea_id}/builds", handler.listBuilds)
			r.Get("/builds/{build_id}", handler.getBuild)
			r.Post("/builds/{build_id}/advance", handler.advanceBuild)
			r.Post("/builds/{build_id}/votes", handler.castVote)
			r.Post("/builds/{build_id}/resolve", handler.resolveBuild)

			r.Post("/ideas/{idea_id}/reports", handler.reportExisting)
			r.Post("/reports/{report_id}/resolve", handler.resolveReport)

			r.Get("/principals/{principal_id}", handler.getPrincipal)
		})
	})

	return r
}
