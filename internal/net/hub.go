package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StatusEvent is one line of pad status pushed to viewers.
type StatusEvent struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// viewer wraps a websocket connection with its own write lock.
type viewer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (v *viewer) send(ev StatusEvent) error {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	_ = v.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return v.conn.WriteJSON(ev)
}

// StatusHub mirrors pad status to websocket viewers. It implements the
// surface Reporter interface.
type StatusHub struct {
	upgrader websocket.Upgrader
	viewers  map[*viewer]bool
	last     *StatusEvent
	mu       sync.RWMutex
	now      func() time.Time
}

func NewStatusHub() *StatusHub {
	return &StatusHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		viewers: make(map[*viewer]bool),
		now:     time.Now,
	}
}

// Report broadcasts a status line to every connected viewer.
func (h *StatusHub) Report(status string) {
	ev := StatusEvent{Status: status, Time: h.now()}
	h.mu.Lock()
	h.last = &ev
	targets := make([]*viewer, 0, len(h.viewers))
	for v := range h.viewers {
		targets = append(targets, v)
	}
	h.mu.Unlock()

	for _, v := range targets {
		if err := v.send(ev); err != nil {
			log.Printf("[HUB] Error sending to %s: %v", v.conn.RemoteAddr(), err)
			h.remove(v)
		}
	}
}

// Last returns the most recent status, if any.
func (h *StatusHub) Last() (StatusEvent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return StatusEvent{}, false
	}
	return *h.last, true
}

func (h *StatusHub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Handler serves /ws/status and /status.
func (h *StatusHub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/status", h.serveWS)
	mux.HandleFunc("/status", h.serveStatus)
	return mux
}

func (h *StatusHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	v := &viewer{conn: conn}
	h.add(v)
	defer h.remove(v)

	if ev, ok := h.Last(); ok {
		if err := v.send(ev); err != nil {
			return
		}
	}
	// Viewers don't talk back; reading only detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("[HUB] Viewer %s disconnected: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (h *StatusHub) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ev, ok := h.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ev)
}

func (h *StatusHub) add(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewers[v] = true
	log.Printf("[HUB] Added viewer: %s", v.conn.RemoteAddr())
}

func (h *StatusHub) remove(v *viewer) {
	h.mu.Lock()
	_, ok := h.viewers[v]
	delete(h.viewers, v)
	h.mu.Unlock()
	if ok {
		_ = v.conn.Close()
		log.Printf("[HUB] Removed viewer: %s", v.conn.RemoteAddr())
	}
}

// Serve runs the feed on addr until ctx is done. The bound port is sent on
// ready once listening, which matters when addr ends in ":0".
func (h *StatusHub) Serve(ctx context.Context, addr string, ready func(port int)) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	log.Printf("[HUB] Status feed listening on %s", listener.Addr())
	if ready != nil {
		ready(listener.Addr().(*net.TCPAddr).Port)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		h.closeAll()
	}()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *StatusHub) closeAll() {
	h.mu.Lock()
	viewers := h.viewers
	h.viewers = make(map[*viewer]bool)
	h.mu.Unlock()
	for v := range viewers {
		_ = v.conn.Close()
	}
}
