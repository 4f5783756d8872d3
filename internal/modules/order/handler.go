package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes order HTTP endpoints.
type Handler struct {
	service Service
	auth    auth.Service
}

func NewHandler(service Service, authService auth.Service) *Handler {
	return &Handler{service: service, auth: authService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(auth.Required(h.auth))
		r.Get("/mine", h.listMine)        // GET    /api/v1/orders/mine
		r.Post("/confirm", h.confirm)     // POST   /api/v1/orders/confirm
		r.Get("/{id}", h.getOrder)        // GET    /api/v1/orders/{id}
		r.Get("/{id}/receipt", h.receipt) // GET    /api/v1/orders/{id}/receipt?lang=es
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(h.auth))
			r.Get("/", h.listAll)                   // GET    /api/v1/orders?status=pendiente&school=&grade=
			r.Patch("/{id}/status", h.updateStatus) // PATCH  /api/v1/orders/{id}/status
			r.Delete("/{id}", h.deleteOrder)        // DELETE /api/v1/orders/{id}
		})
	})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListMine(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{School: q.Get("school"), Grade: q.Get("grade")}
	if s := q.Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			fail(w, err)
			return
		}
		f.Status = st
	}
	orders, err := h.service.ListAll(r.Context(), auth.IdentityFrom(r.Context()), f)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.CompleteFromSuccess(r.Context(), auth.IdentityFrom(r.Context()), strings.TrimSpace(req.SessionID))
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), auth.IdentityFrom(r.Context()), id)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), auth.IdentityFrom(r.Context()), id)
	if err != nil {
		fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := WriteReceipt(&buf, o, r.URL.Query().Get("lang")); err != nil {
		log.Printf("[order] receipt %s: %v", o.ID, err)
		respond(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate receipt"})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+o.ID.String()+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		fail(w, err)
		return
	}
	o, err := h.service.AdminUpdateStatus(r.Context(), auth.IdentityFrom(r.Context()), id, status, req.ExpectedVersion)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), auth.IdentityFrom(r.Context()), id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// orderID parses the {id} URL parameter; an unparseable id cannot exist.
func orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, ErrSessionRequired), errors.Is(err, ErrInvalidStatus):
		code = http.StatusBadRequest
	case errors.Is(err, auth.ErrAuthenticationRequired):
		code = http.StatusUnauthorized
	case errors.Is(err, ErrPaymentNotConfirmed):
		code = http.StatusPaymentRequired
	case errors.Is(err, auth.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrVersionConflict):
		code = http.StatusConflict
	case errors.Is(err, ErrMaterializationFailed):
		// Detail is in the reconciliation log.
		msg = ErrMaterializationFailed.Error()
	default:
		log.Printf("[order] request failed: %v", err)
		msg = "internal error"
	}
	respond(w, code, map[string]string{"error": msg})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
