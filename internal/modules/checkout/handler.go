package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	service Service
	auth    auth.Service
	limit   func(http.Handler) http.Handler
}

// NewHandler wires the checkout endpoint; limit throttles session creation per client.
func NewHandler(service Service, authService auth.Service, limit func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, auth: authService, limit: limit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.Required(h.auth), h.limit).Post("/api/v1/checkout", h.initiate)
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request) {
	var in Context
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	session, err := h.service.Initiate(r.Context(), auth.IdentityFrom(r.Context()), cart.SessionID(w, r), in)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond(w, http.StatusBadRequest, map[string]interface{}{"error": ErrValidation.Error(), "fields": verr.Fields})
		case errors.Is(err, auth.ErrAuthenticationRequired):
			respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrPaymentSession):
			respond(w, http.StatusBadGateway, map[string]string{"error": ErrPaymentSession.Error()})
		default:
			respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	respond(w, http.StatusCreated, session)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
