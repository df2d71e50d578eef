package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

// WebSocket message types.
const (
	MessageDrive    = "drive"
	MessageArmMove  = "arm_move"
	MessageArmReset = "arm_reset"
)

type wsMessage struct {
	Type   string `json:"type"`
	Left   *int   `json:"left,omitempty"`
	Right  *int   `json:"right,omitempty"`
	Deltas []int  `json:"deltas,omitempty"`
}

type wsReply struct {
	OK     bool          `json:"ok"`
	Error  string        `json:"error,omitempty"`
	Joints *arm.Position `json:"joints,omitempty"`
}

// handleWebSocket upgrades the connection and answers every message in order.
// A dropped client is not treated as a stop request; the watchdog covers it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.DebugContext(r.Context(), "websocket upgrade failed", "reason", err)

		return
	}

	logger := s.logger.With(
		"traceID", middleware.GetReqID(r.Context()),
		"remote", r.RemoteAddr,
	)

	if !s.trackWebSocket(conn) {
		_ = conn.Close()

		return
	}
	defer s.untrackWebSocket(conn)

	// hijacked connections keep the server read and write deadlines
	_ = conn.SetReadDeadline(time.Time{})
	conn.SetReadLimit(wsMaxMessageBytes)

	logger.InfoContext(r.Context(), "websocket client connected")
	defer logger.InfoContext(r.Context(), "websocket client disconnected")

	ctx := context.WithoutCancel(r.Context())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.DebugContext(ctx, "websocket read failed", "reason", err)
			}

			return
		}

		var msg wsMessage

		var reply wsReply
		if err := json.Unmarshal(data, &msg); err != nil {
			reply = failReply(fmt.Errorf("%w: decode message: %w", ErrInvalidRequest, err))
		} else {
			reply = s.dispatch(ctx, msg)
		}

		if !reply.OK {
			logger.DebugContext(ctx, "websocket command rejected", "type", msg.Type, "reason", reply.Error)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

		if err := conn.WriteJSON(reply); err != nil {
			logger.DebugContext(ctx, "websocket write failed", "reason", err)

			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg wsMessage) wsReply {
	switch msg.Type {
	case MessageDrive:
		if msg.Left == nil || msg.Right == nil {
			return failReply(fmt.Errorf("%w: left and right are required", ErrInvalidRequest))
		}

		cmd := drive.Command{Left: *msg.Left, Right: *msg.Right}
		if err := s.deps.Drive.ApplyDriveCommand(ctx, drive.SourceWebSocket, cmd); err != nil {
			return failReply(err)
		}

		return wsReply{OK: true}
	case MessageArmMove:
		position, err := s.deps.Arm.ApplyDeltasCommand(ctx, msg.Deltas)
		if err != nil {
			return failReply(err)
		}

		return wsReply{OK: true, Joints: &position}
	case MessageArmReset:
		position, err := s.deps.Arm.ResetCommand(ctx)
		if err != nil {
			return failReply(err)
		}

		return wsReply{OK: true, Joints: &position}
	default:
		return failReply(fmt.Errorf("%w: unknown message type %q", ErrInvalidRequest, msg.Type))
	}
}

func failReply(err error) wsReply {
	return wsReply{Error: err.Error()}
}

func (s *Server) trackWebSocket(conn *websocket.Conn) bool {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	if s.inShutdown.Load() {
		return false
	}

	s.wsConns[conn] = struct{}{}

	return true
}

func (s *Server) untrackWebSocket(conn *websocket.Conn) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	if _, ok := s.wsConns[conn]; ok {
		delete(s.wsConns, conn)
		_ = conn.Close()
	}
}

// closeWebSockets runs from http.Server.Shutdown, which does not track
// hijacked connections.
func (s *Server) closeWebSockets() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	deadline := time.Now().Add(wsWriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")

	for conn := range s.wsConns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = conn.Close()
		delete(s.wsConns, conn)
	}
}
