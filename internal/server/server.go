// Package server publishes world facts over HTTP and WebSocket so a language
// model front end can fetch them while a scene runs.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/worldfacts/internal/config"
	"github.com/lawnchairsociety/worldfacts/internal/database"
	"github.com/lawnchairsociety/worldfacts/internal/facts"
	"github.com/lawnchairsociety/worldfacts/internal/logger"
)

// Snapshot is the fact list currently being served.
type Snapshot struct {
	MapName string       `json:"mapName"`
	Digest  string       `json:"digest"`
	Facts   []facts.Fact `json:"facts"`
}

// Server serves the current snapshot and, when a store is attached, stored
// fact runs.
type Server struct {
	cfg         config.ServerConfig
	sessions *SessionLimiter
	db       *database.Database

	mu       sync.RWMutex
	snapshot Snapshot

	httpServer *http.Server
	StartTime  time.Time
}

// NewServer creates a server with an empty snapshot.
func NewServer(cfg config.ServerConfig) *Server {
	return &Server{
		cfg:       cfg,
		sessions:  NewSessionLimiter(cfg.Connections),
		snapshot:  Snapshot{Facts: []facts.Fact{}},
		StartTime: time.Now(),
	}
}

// SetDatabase attaches a fact store for the /runs endpoints.
func (s *Server) SetDatabase(db *database.Database) {
	s.db = db
}

// Publish replaces the served snapshot.
func (s *Server) Publish(mapName, digest string, fs []facts.Fact) {
	if fs == nil {
		fs = []facts.Fact{}
	}
	s.mu.Lock()
	s.snapshot = Snapshot{MapName: mapName, Digest: digest, Facts: fs}
	s.mu.Unlock()

	logger.Info("Facts published", "map", mapName, "digest", digest, "facts", len(fs))
}

// Snapshot returns the served snapshot.
func (s *Server) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /facts", s.handleFacts)
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{digest}", s.handleRun)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	return mux
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Logger().Handler(), slog.LevelError),
	}

	logger.Info("Fact server listening", "address", s.cfg.Address)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the listener and all open connections.
func (s *Server) Shutdown() {
	if s.httpServer == nil {
		return
	}
	if err := s.httpServer.Close(); err != nil {
		logger.Error("Error closing fact server", "error", err)
	}
	logger.Info("Fact server shutdown complete")
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	out := snap.Facts
	if structureType := r.URL.Query().Get("type"); structureType != "" {
		out = facts.FilterType(out, structureType)
	}
	writeJSON(w, http.StatusOK, out)
}

type runSummary struct {
	Digest    string    `json:"digest"`
	MapName   string    `json:"mapName"`
	Height    int       `json:"height"`
	Width     int       `json:"width"`
	FactCount int       `json:"factCount"`
	CreatedAt time.Time `json:"createdAt"`
}

func summarize(run database.Run) runSummary {
	return runSummary{
		Digest:    run.Digest,
		MapName:   run.MapName,
		Height:    run.Height,
		Width:     run.Width,
		FactCount: run.FactCount,
		CreatedAt: run.CreatedAt.UTC(),
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "fact store not configured", http.StatusNotFound)
		return
	}
	runs, err := s.db.ListRuns()
	if err != nil {
		logger.Error("Failed to list fact runs", "error", err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, summarize(run))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "fact store not configured", http.StatusNotFound)
		return
	}
	_, fs, err := s.db.LoadRun(r.PathValue("digest"))
	if errors.Is(err, database.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to load fact run", "digest", r.PathValue("digest"), "error", err)
		http.Error(w, "failed to load run", http.StatusInternalServerError)
		return
	}
	if fs == nil {
		fs = []facts.Fact{}
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"map":      snap.MapName,
		"digest":   snap.Digest,
		"facts":    len(snap.Facts),
		"sessions": s.sessions.Stats(),
		"uptime":   time.Since(s.StartTime).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warning("Failed to write response", "error", err)
	}
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	// Get the real client IP (supports X-Forwarded-For from reverse proxies)
	clientIP := getRealIP(r)

	lease, err := s.sessions.Acquire(clientIP)
	if err != nil {
		logger.Warning("WebSocket connection rejected",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP,
			"reason", err)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		lease.Release()
		return
	}

	go s.handleWebSocketConnection(wsConn, lease)
}

func (s *Server) handleWebSocketConnection(wsConn *websocket.Conn, lease *Lease) {
	client := NewWebSocketClient(wsConn, s.cfg.WebSocket.MaxMessageSize)
	defer func() {
		client.Close()
		logger.Debug("Fact session closed", "client_ip", lease.IP, "duration", lease.Release())
	}()

	s.handleClient(client)
}

// getRealIP extracts the real client IP from an HTTP request.
// It checks X-Forwarded-For header first (for reverse proxy setups),
// then falls back to the direct remote address.
func getRealIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if clientIP := strings.TrimSpace(strings.Split(xff, ",")[0]); clientIP != "" {
			return clientIP
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return extractIP(r.RemoteAddr)
}

// extractIP strips the port from an ip:port remote address.
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
