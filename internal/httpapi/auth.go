package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"chinook/internal/logging"
)

type userKey struct{}

// authenticate resolves the caller from the bearer token and rejects
// anonymous requests. The first request of each user registers it so that
// playlists can be created for any verified identity. Browsers cannot set headers on a websocket handshake,
// so upgrades may carry the token in the access_token query parameter.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := parseBearerToken(r.Header.Get("Authorization"))
		if token == "" && websocket.IsWebSocketUpgrade(r) {
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msgMissingToken})
			return
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			logging.WithContext(r.Context()).Debug().Err(err).Msg("rejected bearer token")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msgInvalidToken})
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, userID)
		ctx = logging.WithUserID(ctx, userID)
		r = r.WithContext(ctx)

		if err := s.register(ctx, userID); err != nil {
			writeError(w, r, err, msgGeneric)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) register(ctx context.Context, userID string) error {
	if s.users == nil {
		return nil
	}
	if _, ok := s.registered.Load(userID); ok {
		return nil
	}
	if err := s.users.EnsureUser(ctx, userID, ""); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	s.registered.Store(userID, struct{}{})
	return nil
}

func currentUser(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}
