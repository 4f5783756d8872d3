package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
	auth    auth.Service
}

func NewHandler(service Service, authService auth.Service) *Handler {
	return &Handler{service: service, auth: authService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", h.register)
		r.With(auth.Required(h.auth)).Get("/me", h.getMe)
		r.With(auth.Required(h.auth), auth.RequireAdmin(h.auth)).Patch("/{id}/role", h.setRole)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusCreated, u)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUser(r.Context(), auth.IdentityFrom(r.Context()).UserID)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	var req struct {
		Role auth.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	u, err := h.service.SetRole(r.Context(), auth.IdentityFrom(r.Context()), id, req.Role)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRole):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrEmailTaken):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ErrNotFound):
		code, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, auth.ErrAuthenticationRequired):
		code, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrForbidden):
		code, msg = http.StatusForbidden, err.Error()
	}
	respond(w, code, map[string]string{"error": msg})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
