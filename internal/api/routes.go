package api

import (
	"net/http"

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
		r.Post("/clearances", h.CreateClearance)
		r.Get("/clearances", h.ListClearances)
		r.Route("/clearances/{clearanceId}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				h.GetClearance(w, r, chi.URLParam(r, "clearanceId"))
			})
			r.Get("/audit", func(w http.ResponseWriter, r *http.Request) {
				h.GetAuditLog(w, r, chi.URLParam(r, "clearanceId"))
			})
			r.Post("/decisions", func(w http.ResponseWriter, r *http.Request) {
				h.SubmitDecision(w, r, chi.URLParam(r, "clearanceId"))
			})
			r.Post("/background-checks", func(w http.ResponseWriter, r *http.Request) {
				h.UpdateBackgroundCheck(w, r, chi.URLParam(r, "clearanceId"))
			})
			r.Post("/documents/{documentType}", func(w http.ResponseWriter, r *http.Request) {
				h.UpdateDocument(w, r, chi.URLParam(r, "clearanceId"), chi.URLParam(r, "documentType"))
			})
			r.Post("/risk-factors", func(w http.ResponseWriter, r *http.Request) {
				h.AddRiskFactor(w, r, chi.URLParam(r, "clearanceId"))
			})
			r.Post("/risk-factors/{riskFactorId}/resolve", func(w http.ResponseWriter, r *http.Request) {
				h.ResolveRiskFactor(w, r, chi.URLParam(r, "clearanceId"), chi.URLParam(r, "riskFactorId"))
			})
			r.Put("/priority", func(w http.ResponseWriter, r *http.Request) {
				h.SetPriority(w, r, chi.URLParam(r, "clearanceId"))
			})
		})
	})

	return r
}
