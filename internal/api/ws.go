package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsTrialMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// TrialsWSHandler streams a job's events over a WebSocket. The read side only
// services control frames; the connection drops when the peer stops answering
// pings or the job's stream goes quiet forever.
func (s *Server) TrialsWSHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, err := s.Store.GetJob(r.Context(), jobID); err != nil {
		s.jobError(w, r, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	// Drain client frames so pongs and close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := s.Broker.Subscribe(jobID)
	defer s.Broker.Unsubscribe(jobID, ch)

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case evt := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(wsTrialMessage{Type: evt.Type, Data: evt.Data}); err != nil {
				return
			}
			// Terminal job events end the stream.
			if evt.Type == "job.done" || evt.Type == "job.failed" || evt.Type == "job.canceled" {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, evt.Type))
				return
			}
		}
	}
}
