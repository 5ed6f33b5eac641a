package http

import (
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/websocket"
)

// SubscribeEvents handles the GET /events request (SSE).
// The first data frame is the snapshot; deltas follow in store order.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.Tracker.Subscribe()
	defer sub.Close()
	s.logger.Info("SSE: observer connected", "observer_id", sub.ID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: observer disconnected", "observer_id", sub.ID, "dropped", sub.Dropped())
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// SubscribeWebSocket handles the GET /ws request.
func (s *Server) SubscribeWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(s.serveObserver).ServeHTTP(w, r)
}

// serveObserver writes queued messages as text frames until either side goes away.
// Inbound frames are read and discarded so a client close is noticed.
func (s *Server) serveObserver(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	sub := s.Tracker.Subscribe()
	defer sub.Close()
	s.logger.Info("WS: observer connected", "observer_id", sub.ID)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				if err != io.EOF {
					s.logger.Debug("WS: read ended", "observer_id", sub.ID, "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			s.logger.Info("WS: observer disconnected", "observer_id", sub.ID, "dropped", sub.Dropped())
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := websocket.Message.Send(conn, string(msg)); err != nil {
				s.logger.Info("WS: write failed, dropping observer", "observer_id", sub.ID, "error", err)
				return
			}
		}
	}
}
