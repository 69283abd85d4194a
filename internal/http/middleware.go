package http

import (
	"context"
	"net/http"
	"strings"

	"khetbook/internal/log"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// authMiddleware validates the bearer token and stores the account id in
// the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		accountID, err := s.auth.Authenticate(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired session, please log in again")
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldAccountID, accountID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mustAccountID returns the authenticated account, or "" outside the
// authenticated group.
func mustAccountID(r *http.Request) string {
	id, _ := r.Context().Value(accountIDKey).(string)
	return id
}
