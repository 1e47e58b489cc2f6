package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chinook/internal/http/middleware"
	"chinook/internal/logging"
	"chinook/internal/notify"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
	streamReadLimit  = 512
)

// handlePlaylistStream pushes the caller's owned-playlist snapshots over a
// websocket. The current list is published right after subscribing, so the
// client starts from a complete view.
func (s *Server) handlePlaylistStream(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r.Context())
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, unsubscribe, err := s.playlists.Subscribe(ctx, userID)
	if err != nil {
		writeError(w, r, err, msgLoadPlaylists)
		return
	}
	defer unsubscribe()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(s.allowedOrigins, r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithContext(ctx).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := logging.WithContext(ctx)
	logger.Debug().Msg("playlist stream opened")

	go readPump(conn, cancel)

	if _, err := s.playlists.ListOwned(ctx, userID); err != nil {
		logger.Warn().Err(err).Msg("initial playlist snapshot")
	}

	writePump(ctx, conn, snapshots)
	logger.Debug().Msg("playlist stream closed")
}

// readPump discards client frames and cancels the stream once the peer goes
// away or stops answering pings.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, snapshots <-chan notify.Snapshot) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	closeStream := func() {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}

	for {
		select {
		case <-ctx.Done():
			closeStream()
			return

		case snapshot, ok := <-snapshots:
			if !ok {
				closeStream()
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(playlistsResponse{Playlists: snapshot}); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
