package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/payment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(f *fixture, method, path, token, body string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	NewHandler(f.svc, f.auth).RegisterRoutes(router)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerConfirmAndUpdate(t *testing.T) {
	f := newFixture(t)
	f.paidSession(t, "cs_1", f.customer.UserID.String())

	rec := serve(f, http.MethodPost, "/api/v1/orders/confirm", "customer", `{"session_id":"cs_1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var o Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))
	assert.Equal(t, StatusCompleted, o.Status)

	path := "/api/v1/orders/" + o.ID.String() + "/status"
	assert.Equal(t, http.StatusForbidden, serve(f, http.MethodPatch, path, "customer", `{"status":"procesando"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(f, http.MethodPatch, path, "admin", `{"status":"shipped"}`).Code)
	assert.Equal(t, http.StatusConflict, serve(f, http.MethodPatch, path, "admin", `{"status":"processing","expected_version":1}`).Code)

	rec = serve(f, http.MethodPatch, path, "admin", `{"status":"processing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))
	assert.Equal(t, StatusProcessing, o.Status)

	missing := "/api/v1/orders/" + uuid.NewString() + "/status"
	assert.Equal(t, http.StatusNotFound, serve(f, http.MethodPatch, missing, "admin", `{"status":"procesando"}`).Code)
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	f.gateway.sessions["cs_open"] = &payment.Verification{SessionID: "cs_open", PaymentStatus: payment.StatusUnpaid}

	assert.Equal(t, http.StatusUnauthorized, serve(f, http.MethodGet, "/api/v1/orders/mine", "", "").Code)
	assert.Equal(t, http.StatusPaymentRequired, serve(f, http.MethodPost, "/api/v1/orders/confirm", "customer", `{"session_id":"cs_open"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(f, http.MethodPost, "/api/v1/orders/confirm", "customer", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, serve(f, http.MethodGet, "/api/v1/orders/not-a-uuid", "customer", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(f, http.MethodGet, "/api/v1/orders", "customer", "").Code)
	assert.Equal(t, http.StatusOK, serve(f, http.MethodGet, "/api/v1/orders?status=pending", "admin", "").Code)
}

func TestHandlerReceipt(t *testing.T) {
	f := newFixture(t)
	f.paidSession(t, "cs_1", f.customer.UserID.String())
	o, _, err := f.mat.Confirm(context.Background(), "cs_1")
	require.NoError(t, err)

	rec := serve(f, http.MethodGet, "/api/v1/orders/"+o.ID.String()+"/receipt", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}
