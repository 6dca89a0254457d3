package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	contractx "github.com/panuwats/concierge/agent/contract"
)

const pushWriteTimeout = 5 * time.Second

// Hub tracks live websocket connections per user and pushes response
// envelopes to them. It implements the orchestrator's Notifier.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]struct{}

	// Origin patterns accepted on upgrade; empty means same-origin only.
	originPatterns []string
}

var _ contractx.Notifier = (*Hub)(nil)

func NewHub(originPatterns ...string) *Hub {
	return &Hub{
		conns:          make(map[string]map[*websocket.Conn]struct{}),
		originPatterns: originPatterns,
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away. The read loop exists only to observe the close.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("websocket accept failed")
		return
	}

	h.register(userID, conn)
	defer h.unregister(userID, conn)
	log.Info().Str("user_id", userID).Msg("websocket connected")

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
	log.Info().Str("user_id", userID).Msg("websocket disconnected")
}

// Push sends the envelope to every live connection of the user. Absent
// connections are not an error; pushes are best-effort by contract.
func (h *Hub) Push(ctx context.Context, userID string, env contractx.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		wctx, cancel := context.WithTimeout(ctx, pushWriteTimeout)
		if err := conn.Write(wctx, websocket.MessageText, payload); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Msg("websocket push write failed")
		}
		cancel()
	}
	return nil
}

func (h *Hub) register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

func (h *Hub) unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}
