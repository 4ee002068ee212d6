package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/claims", h.CreateClaim)
		r.Route("/claims/{claimId}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				h.GetClaim(w, r, chi.URLParam(r, "claimId"))
			})
			r.Put("/snapshot", func(w http.ResponseWriter, r *http.Request) {
				h.SaveSnapshot(w, r, chi.URLParam(r, "claimId"))
			})
			r.Post("/steps/{step}", func(w http.ResponseWriter, r *http.Request) {
				step, err := strconv.Atoi(chi.URLParam(r, "step"))
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"error": "step must be a number"})
					return
				}
				h.CompleteStep(w, r, chi.URLParam(r, "claimId"), step)
			})
			r.Post("/transitions", func(w http.ResponseWriter, r *http.Request) {
				h.RequestTransition(w, r, chi.URLParam(r, "claimId"))
			})
			r.Get("/transitions", func(w http.ResponseWriter, r *http.Request) {
				h.ListTransitions(w, r, chi.URLParam(r, "claimId"))
			})
			r.Get("/transitions/available", func(w http.ResponseWriter, r *http.Request) {
				h.AvailableTransitions(w, r, chi.URLParam(r, "claimId"))
			})
			r.Get("/readiness", func(w http.ResponseWriter, r *http.Request) {
				h.GetReadiness(w, r, chi.URLParam(r, "claimId"))
			})
			r.Post("/submit", func(w http.ResponseWriter, r *http.Request) {
				h.SubmitClaim(w, r, chi.URLParam(r, "claimId"))
			})
			r.Post("/responses", func(w http.ResponseWriter, r *http.Request) {
				h.UploadCarrierResponse(w, r, chi.URLParam(r, "claimId"))
			})
			r.Get("/responses", func(w http.ResponseWriter, r *http.Request) {
				h.ListCarrierResponses(w, r, chi.URLParam(r, "claimId"))
			})
			r.Get("/actions/pending", func(w http.ResponseWriter, r *http.Request) {
				h.PendingActions(w, r, chi.URLParam(r, "claimId"))
			})
			r.Post("/actions/{actionId}/resolve", func(w http.ResponseWriter, r *http.Request) {
				h.ResolveAction(w, r, chi.URLParam(r, "claimId"), chi.URLParam(r, "actionId"))
			})
		})
	})

	return r
}
