package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/schools", h.listSchools)
		r.Get("/schools/{id}", h.getSchool)
		r.Get("/schools/{id}/packs", h.listSchoolPacks) // ?grade=3rd
		r.Get("/packs/{id}", h.getPack)
		r.Get("/electronics", h.listElectronics) // ?category=calculators
		r.Get("/electronics/{id}", h.getElectronic)
	})
}

func (h *Handler) listSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.service.ListSchools(r.Context())
	reply(w, schools, err)
}

func (h *Handler) getSchool(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetSchool(r.Context(), chi.URLParam(r, "id"))
	reply(w, s, err)
}

func (h *Handler) listSchoolPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.service.ListPacks(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("grade"))
	reply(w, packs, err)
}

func (h *Handler) getPack(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPack(r.Context(), chi.URLParam(r, "id"))
	reply(w, p, err)
}

func (h *Handler) listElectronics(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListElectronics(r.Context(), r.URL.Query().Get("category"))
	reply(w, items, err)
}

func (h *Handler) getElectronic(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.GetElectronic(r.Context(), chi.URLParam(r, "id"))
	reply(w, e, err)
}

func reply(w http.ResponseWriter, body interface{}, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		respond(w, http.StatusOK, body)
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
