package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sweeney/cabin-monitor/internal/status"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The page is served from the device itself and has no cookies to protect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream pushes the JSON status every interval until the client
// disconnects or the server shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	s.log.Debug("websocket connected", zap.String("remote_addr", r.RemoteAddr))

	done := make(chan struct{})
	go s.readPump(conn, done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	// Browsers never ping on their own, so keep the read deadline alive
	// with server pings.
	ping := time.NewTicker(s.pongWait * 9 / 10)
	defer ping.Stop()

	if !s.push(conn) {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-s.quit:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case <-ticker.C:
			if !s.push(conn) {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) push(conn *websocket.Conn) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, status.FormatJSON(s.tracker.Snapshot())); err != nil {
		s.log.Debug("websocket write failed", zap.Error(err))
		return false
	}
	return true
}

// readPump drains client frames so close and pong frames are processed.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}
