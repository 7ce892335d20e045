package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/storyboard/internal/logging"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamManager fans snapshots out to the stream connections of each act.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.Snapshot]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan domain.Snapshot]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for key. The returned function
// unregisters and closes it.
func (sm *StreamManager) Subscribe(key string) (<-chan domain.Snapshot, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.Snapshot, 10)
	if _, ok := sm.subscribers[key]; !ok {
		sm.subscribers[key] = make(map[chan domain.Snapshot]struct{})
	}
	sm.subscribers[key][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[key]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, key)
				}
			}
		})
	}
}

// Broadcast sends snap to every subscriber of key. Slow subscribers with a
// full buffer miss the snapshot.
func (sm *StreamManager) Broadcast(key string, snap domain.Snapshot) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[key] {
		select {
		case ch <- snap:
		default:
			sm.logger.Warn("stream buffer full, dropping snapshot", "key", key)
		}
	}
}

// Subscribers returns the number of subscribers of key.
func (sm *StreamManager) Subscribers(key string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[key])
}

// Stream handles GET /play/{id}/{act}/stream. It upgrades to a websocket,
// sends the current snapshot and then every snapshot produced by mutations
// of the act.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	actID := chi.URLParam(r, "act")

	sess, err := s.player.Play(r.Context(), sc, actID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	current := sess.Snapshot(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.streams.Subscribe(session.Key(sc.ID, actID))
	defer cancel()

	if err := writeSnapshot(conn, current); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, snap); err != nil {
				s.logger.Debug("ws write failed", "err", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
