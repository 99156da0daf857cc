package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/chromaqr/internal/barcode"
	"github.com/MeKo-Tech/chromaqr/internal/scan"
	"github.com/MeKo-Tech/chromaqr/internal/utils"
)

// WebSocket timing.
const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocket message types.
const (
	msgTypeResume  = "resume"
	msgTypeStats   = "stats"
	msgTypeHit     = "hit"
	msgTypeResumed = "resumed"
	msgTypeError   = "error"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers send camera frames from any page origin; access control
		// is left to CORS on the HTTP endpoints.
		return true
	},
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// ClientMessage is a text message sent by the client. Binary messages are
// encoded frames.
type ClientMessage struct {
	Type string `json:"type"` // "resume" or "stats"
}

// ScanMessage is sent to the client.
type ScanMessage struct {
	Type      string                   `json:"type"`
	RequestID string                   `json:"request_id,omitempty"`
	Result    *barcode.DetectionResult `json:"result,omitempty"`
	Summary   string                   `json:"summary,omitempty"`
	Overlay   []byte                   `json:"overlay,omitempty"` // PNG
	Stats     *scan.WorkerStats        `json:"stats,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorType string                   `json:"error_type,omitempty"`
}

// lockedConn serializes writes from the reader, result and ping goroutines.
type lockedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *lockedConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// scanWebSocketHandler streams live frames into a per-connection session.
// Each hit suspends analysis until the client sends {"type":"resume"}.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.newSession()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// the upgrade writes its own response, so headers set by middleware
	// have to be handed over explicitly
	conn, err := upgrader.Upgrade(w, r, http.Header{RequestIDHeader: {w.Header().Get(RequestIDHeader)}})
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	requestID := requestIDFrom(r.Context())
	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr, "request_id", requestID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.handleScanConnection(ctx, conn, session, requestID)
}

// handleScanConnection runs the frame worker for one connection until the
// client disconnects.
func (s *Server) handleScanConnection(ctx context.Context, conn *websocket.Conn, session *scan.Session, requestID string) {
	out := &lockedConn{conn: conn}

	worker := scan.NewFrameWorker(session, s.worker)
	worker.OnDrop = scanFramesDropped.Inc
	if err := worker.Start(ctx); err != nil {
		s.sendWebSocketError(out, "internal_error", err.Error())
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range worker.Outcomes() {
			recordScan("frame", o)
			s.sendWebSocketMessage(out, hitMessage(o, requestID))
		}
	}()
	defer func() {
		worker.Stop()
		<-done
	}()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})
	go s.pingLoop(ctx, out)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket error", "request_id", requestID, "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		switch messageType {
		case websocket.BinaryMessage:
			s.handleFrame(out, worker, data)
		case websocket.TextMessage:
			s.handleWebSocketMessage(out, session, worker, data)
		}
	}
}

// pingLoop keeps the connection alive until ctx is done.
func (s *Server) pingLoop(ctx context.Context, out *lockedConn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out.mu.Lock()
			err := out.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
			out.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleFrame decodes a binary frame and offers it to the worker. Frames
// arriving while analysis is busy or suspended are dropped silently.
func (s *Server) handleFrame(out WebSocketConnWriter, worker *scan.FrameWorker, data []byte) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.sendWebSocketError(out, "invalid_frame", fmt.Sprintf("Failed to decode frame: %v", err))
		return
	}
	worker.Submit(img)
}

// handleWebSocketMessage processes a text control message.
func (s *Server) handleWebSocketMessage(out WebSocketConnWriter, session *scan.Session, worker *scan.FrameWorker, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendWebSocketError(out, "invalid_request", fmt.Sprintf("Failed to parse message: %v", err))
		return
	}

	switch msg.Type {
	case msgTypeResume:
		session.Resume()
		s.sendWebSocketMessage(out, ScanMessage{Type: msgTypeResumed})
	case msgTypeStats:
		stats := worker.Stats()
		s.sendWebSocketMessage(out, ScanMessage{Type: msgTypeStats, Stats: &stats})
	default:
		s.sendWebSocketError(out, "invalid_request", "Unsupported message type: "+msg.Type)
	}
}

// hitMessage converts an outcome into the message sent to the client.
func hitMessage(o *scan.Outcome, requestID string) ScanMessage {
	res := o.Result
	msg := ScanMessage{Type: msgTypeHit, RequestID: requestID, Result: &res, Summary: o.Summary}
	if o.Annotated != nil {
		var buf bytes.Buffer
		if err := utils.EncodeImage(&buf, o.Annotated, imaging.PNG); err != nil {
			slog.Warn("Failed to encode overlay", "request_id", requestID, "error", err)
		} else {
			msg.Overlay = buf.Bytes()
		}
	}
	return msg
}

// sendWebSocketMessage sends a message over WebSocket.
func (s *Server) sendWebSocketMessage(conn WebSocketConnWriter, msg ScanMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal WebSocket message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, errorType, message string) {
	s.sendWebSocketMessage(conn, ScanMessage{Type: msgTypeError, Error: message, ErrorType: errorType})
}
