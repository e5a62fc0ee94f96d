package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextcv/nextcv/internal/geometry"
	"github.com/nextcv/nextcv/internal/postprocess"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// StreamFrame is one frame of detections sent by a streaming client.
type StreamFrame struct {
	FrameID      string      `json:"frame_id,omitempty"`
	Boxes        [][]float32 `json:"boxes"`
	Scores       []float32   `json:"scores"`
	IoUThreshold *float32    `json:"iou_threshold,omitempty"`
}

// StreamResult is the per-frame suppression result.
type StreamResult struct {
	FrameID string `json:"frame_id,omitempty"`
	Keep    []int  `json:"keep,omitempty"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// nmsWebSocketHandler upgrades the connection and filters detection frames
// as they arrive, e.g. per-frame suppression for a video detector.
func (s *Server) nmsWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleStreamConnection(conn)
}

// handleStreamConnection processes detection frames from one connection.
func (s *Server) handleStreamConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Ping to keep idle connections alive.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		s.handleStreamFrame(conn, data)
	}
}

// handleStreamFrame runs NMS over one frame and writes the result back.
func (s *Server) handleStreamFrame(conn *websocket.Conn, data []byte) {
	var frame StreamFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.writeStreamResult(conn, StreamResult{Error: "invalid frame: " + err.Error()})
		return
	}

	boxes := make([]geometry.Box, 0, len(frame.Boxes))
	for _, b := range frame.Boxes {
		if len(b) != 4 {
			s.writeStreamResult(conn, StreamResult{FrameID: frame.FrameID, Error: "each box needs 4 coordinates"})
			return
		}
		boxes = append(boxes, geometry.Box{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]})
	}

	threshold := s.nmsIoUThreshold
	if frame.IoUThreshold != nil {
		threshold = *frame.IoUThreshold
	}

	keep := postprocess.NonMaxSuppression(boxes, frame.Scores, threshold)
	s.writeStreamResult(conn, StreamResult{FrameID: frame.FrameID, Keep: keep, Count: len(keep)})
}

func (s *Server) writeStreamResult(conn *websocket.Conn, result StreamResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		slog.Error("Failed to marshal stream result", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		slog.Error("Failed to write stream result", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
