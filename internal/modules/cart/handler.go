package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SessionHeader identifies the cart of a browser session.
const SessionHeader = "X-Cart-Session"

// Handler exposes cart HTTP endpoints.
type Handler struct {
	service Service
	auth    auth.Service
}

func NewHandler(service Service, authService auth.Service) *Handler {
	return &Handler{service: service, auth: authService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(auth.Optional(h.auth))
		r.Get("/", h.view)
		r.Delete("/", h.clear)
		r.Post("/items", h.addItem)
		r.Post("/packs/{id}", h.addPack)
		r.Post("/electronics/{id}", h.addElectronic)
		r.Patch("/items/{line}", h.updateQuantity)
		r.Post("/items/{line}/decrement", h.decrement)
		r.Delete("/items/{line}", h.removeItem)
	})
}

const accountSessionPrefix = "user:"

// SessionID returns the cart session of r and echoes it back. Without the header a signed-in
// caller gets a per-account cart; anyone else gets a fresh one. A per-account session id is
// honoured only for its own account.
func SessionID(w http.ResponseWriter, r *http.Request) string {
	ident := auth.IdentityFrom(r.Context())
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if strings.HasPrefix(id, accountSessionPrefix) && (ident == nil || id != accountSessionPrefix+ident.UserID.String()) {
		id = ""
	}
	if id == "" {
		if ident != nil {
			id = accountSessionPrefix + ident.UserID.String()
		} else {
			id = uuid.NewString()
		}
	}
	w.Header().Set(SessionHeader, id)
	return id
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.service.View(SessionID(w, r)))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	session := SessionID(w, r)
	h.service.Clear(session)
	respond(w, http.StatusOK, h.service.View(session))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	session := SessionID(w, r)
	var item LineItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	added, err := h.service.AddItem(r.Context(), session, item)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusCreated, added)
}

func (h *Handler) addPack(w http.ResponseWriter, r *http.Request) {
	session := SessionID(w, r)
	req := decodeQuantity(r)
	added, err := h.service.AddPack(r.Context(), session, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusCreated, added)
}

func (h *Handler) addElectronic(w http.ResponseWriter, r *http.Request) {
	session := SessionID(w, r)
	req := decodeQuantity(r)
	added, err := h.service.AddElectronic(r.Context(), session, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusCreated, added)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	session := SessionID(w, r)
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	item, err := h.service.UpdateQuantity(session, chi.URLParam(r, "line"), req.Quantity)
	if err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	session := SessionID(w, r)
	if err := h.service.Decrement(session, chi.URLParam(r, "line")); err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, h.service.View(session))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	session := SessionID(w, r)
	if err := h.service.RemoveItem(session, chi.URLParam(r, "line")); err != nil {
		fail(w, err)
		return
	}
	respond(w, http.StatusOK, h.service.View(session))
}

// decodeQuantity tolerates an empty body; quantity then defaults to 1 in AddItem.
func decodeQuantity(r *http.Request) quantityRequest {
	var req quantityRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req
}

func fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, catalog.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrInvalidItem):
		code = http.StatusBadRequest
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
