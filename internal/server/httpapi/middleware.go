package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// userIDFrom returns the authenticated user ID, empty for anonymous
// requests.
func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// authenticator rejects requests without a valid access token.
func (s *Server) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeReason(w, http.StatusUnauthorized, reasonSessionRequired)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			writeReason(w, http.StatusUnauthorized, reasonSessionRequired)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuthenticator attaches the user ID when a valid token is present
// and lets anonymous requests through. Used on routes that serve public
// files.
func (s *Server) optionalAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if userID, err := auth.GetUserIDFromToken(token, s.jwtSecret); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}
