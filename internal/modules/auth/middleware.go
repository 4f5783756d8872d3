package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
)

// bearerToken extracts the token from the Authorization header, falling back to ?token= for websocket clients.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return r.URL.Query().Get("token")
}

// Required rejects requests without a valid token.
func Required(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				respond(w, http.StatusUnauthorized, map[string]string{"error": ErrAuthenticationRequired.Error()})
				return
			}
			id, err := svc.Authenticate(r.Context(), tok)
			if err != nil {
				respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Optional attaches an identity when a valid token is present and proceeds regardless.
func Optional(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerToken(r); tok != "" {
				if id, err := svc.Authenticate(r.Context(), tok); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin must run after Required.
func RequireAdmin(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := svc.VerifyAdmin(r.Context(), IdentityFrom(r.Context()))
			switch {
			case err == nil:
			case errors.Is(err, ErrAuthenticationRequired):
				respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			case errors.Is(err, ErrForbidden):
				respond(w, http.StatusForbidden, map[string]string{"error": err.Error()})
				return
			default:
				log.Printf("[auth] admin check failed: %v", err)
				respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
