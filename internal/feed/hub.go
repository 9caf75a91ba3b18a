// Package feed serves a session to browsers: a websocket stream of combat
// log lines, milestone notices and periodic snapshots, plus a few JSON
// endpoints for polling clients.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/config"
	"github.com/idlecamp/server/internal/engine"
	"github.com/idlecamp/server/internal/persist"
	"github.com/idlecamp/server/internal/system"
)

const (
	snapshotInterval = time.Second
	pingInterval     = 30 * time.Second
	readLimit        = 4096
	shutdownTimeout  = 5 * time.Second
)

// Source is the session the hub publishes. *engine.Engine implements it.
type Source interface {
	Snapshot(ctx context.Context) (*engine.Snapshot, error)
	Journal() *combatlog.Log
	SubscribeNotices(buffer int) (<-chan engine.Notice, func())
	UseSkill(ctx context.Context, skillID int32) (*system.Rejection, error)
	Travel(ctx context.Context, campID int32) (*system.Rejection, error)
	SetAutoAttack(ctx context.Context, on bool) error
	SetResting(ctx context.Context, on bool) (*system.Rejection, error)
}

// Leaderboard lists finished hardcore runs. Optional.
type Leaderboard interface {
	TopDeaths(ctx context.Context, limit int) ([]persist.DeathRow, error)
}

// Message is the envelope of every frame the hub writes.
type Message struct {
	Type string `json:"type"` // log | notice | snapshot | result
	Data any    `json:"data"`
}

// Hub fans session output out to websocket clients.
type Hub struct {
	cfg      config.FeedConfig
	src      Source
	board    Leaderboard
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(cfg config.FeedConfig, src Source, board Leaderboard, log *zap.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Hub{
		cfg:   cfg,
		src:   src,
		board: board,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the hub's routes.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/snapshot", h.serveSnapshot)
	mux.HandleFunc("/log", h.serveLog)
	mux.HandleFunc("/leaderboard", h.serveLeaderboard)
	return mux
}

// ListenAndServe serves on the configured address and pumps session output
// until ctx is canceled.
func (h *Hub) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.cfg.BindAddress,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		h.log.Info(fmt.Sprintf("即時推送服務啟動  位址=%s", h.cfg.BindAddress))
		errc <- srv.ListenAndServe()
	}()

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	go h.pump(pumpCtx)

	select {
	case err := <-errc:
		h.closeAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	h.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("feed shutdown: %w", err)
	}
	h.log.Info("即時推送服務已停止")
	return nil
}

// pump relays journal entries, notices and periodic snapshots to clients.
func (h *Hub) pump(ctx context.Context) {
	entries, unsubLog := h.src.Journal().Subscribe(h.cfg.SendBuffer)
	defer unsubLog()
	notices, unsubNotices := h.src.SubscribeNotices(h.cfg.SendBuffer)
	defer unsubNotices()

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			h.broadcast(Message{Type: "log", Data: e})
		case n, ok := <-notices:
			if !ok {
				return
			}
			h.broadcast(Message{Type: "notice", Data: n})
		case <-ticker.C:
			if h.count() == 0 {
				continue
			}
			s, err := h.src.Snapshot(ctx)
			if err != nil {
				if errors.Is(err, engine.ErrStopped) {
					return
				}
				continue
			}
			h.broadcast(Message{Type: "snapshot", Data: s})
		}
	}
}

func (h *Hub) broadcast(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.log.Error("推送訊息編碼失敗", zap.String("type", m.Type), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.enqueue(data) {
			// 客戶端太慢，直接斷線
			h.log.Debug("推送佇列已滿，中斷客戶端", zap.String("remote", c.remote))
			c.close()
			delete(h.clients, c)
		}
	}
}

func (h *Hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket 升級失敗", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	c := newClient(conn, h.cfg.SendBuffer, h.cfg.WriteTimeout)
	go c.writePump()

	// backlog first so the client starts with context
	for _, e := range h.src.Journal().Recent(0) {
		if data, err := json.Marshal(Message{Type: "log", Data: e}); err == nil {
			c.enqueue(data)
		}
	}
	if s, err := h.src.Snapshot(r.Context()); err == nil {
		if data, err := json.Marshal(Message{Type: "snapshot", Data: s}); err == nil {
			c.enqueue(data)
		}
	}
	h.add(c)
	h.log.Debug("推送客戶端連線", zap.String("remote", c.remote))

	h.readLoop(r.Context(), c)
	h.remove(c)
	h.log.Debug("推送客戶端離線", zap.String("remote", c.remote))
}

func (h *Hub) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.src.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s)
}

// serveLog returns entries after ?since=<seq>, or the whole retained log.
func (h *Hub) serveLog(w http.ResponseWriter, r *http.Request) {
	j := h.src.Journal()
	raw := r.URL.Query().Get("since")
	if raw == "" {
		writeJSON(w, j.Recent(0))
		return
	}
	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "bad since", http.StatusBadRequest)
		return
	}
	writeJSON(w, j.Since(since))
}

func (h *Hub) serveLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		http.Error(w, "leaderboard unavailable", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.board.TopDeaths(r.Context(), limit)
	if err != nil {
		h.log.Error("排行榜查詢失敗", zap.Error(err))
		http.Error(w, "leaderboard query failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []persist.DeathRow{}
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
