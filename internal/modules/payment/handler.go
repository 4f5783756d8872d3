package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const maxWebhookBody = 65536

// Confirmer records the order of a paid session. It must be idempotent per session id.
type Confirmer interface {
	ConfirmSession(ctx context.Context, sessionID string) error
}

// Handler receives Stripe webhooks.
type Handler struct {
	confirmer Confirmer
	secret    string
}

func NewHandler(confirmer Confirmer, webhookSecret string) *Handler {
	return &Handler{confirmer: confirmer, secret: webhookSecret}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	// No auth middleware: requests are provider-signed.
	r.Post("/api/v1/webhooks/stripe", h.webhookStripe)
}

func (h *Handler) webhookStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		respond(w, http.StatusOK, map[string]string{"status": "ignored", "reason": string(event.Type)})
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil || session.ID == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid checkout session"})
		return
	}

	if err := h.confirmer.ConfirmSession(r.Context(), session.ID); err != nil {
		if errors.Is(err, ErrNotPaid) {
			// Async methods complete unpaid first; async_payment_succeeded follows.
			respond(w, http.StatusOK, map[string]string{"status": "ignored", "reason": err.Error()})
			return
		}
		log.Printf("[webhook] stripe event %s session %s: %v", event.ID, session.ID, err)
		// Non-2xx makes Stripe retry the delivery.
		respond(w, http.StatusInternalServerError, map[string]string{"error": "order not recorded"})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "processed", "session_id": session.ID})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
