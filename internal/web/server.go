// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package web is the local UI surface: a JSON snapshot endpoint, a web
// socket that pushes snapshots and accepts phone sensor data, Prometheus
// metrics and the static UI.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/manhunt_client/internal/game"
	"github.com/relabs-tech/manhunt_client/internal/heading"
	"github.com/relabs-tech/manhunt_client/internal/tracker"
)

// Controller is what the UI may change. *tracker.Tracker implements it.
type Controller interface {
	Select(ctx context.Context, playerID string) error
	SetRole(ctx context.Context, role game.Role) error
	SetName(ctx context.Context, name string) error
	RequestPermission(ctx context.Context) (heading.State, error)
}

// Bridge receives sensor data from a phone. *heading.BridgeProvider
// implements it.
type Bridge interface {
	Push(heading.Sample)
	ReportPermission(granted bool)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the phone loads the page from this server's LAN address
	},
}

// Server fans snapshots out to web clients. It implements tracker.Sink.
type Server struct {
	ctrl      Controller
	bridge    Bridge
	metrics   http.Handler
	staticDir string

	mu       sync.RWMutex
	last     []byte // encoded WSResponse for new sockets
	lastSnap *tracker.Snapshot
	clients  map[*wsClient]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithBridge accepts phone samples and permission answers over /ws.
func WithBridge(b Bridge) Option { return func(s *Server) { s.bridge = b } }

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithStaticDir serves the UI from dir.
func WithStaticDir(dir string) Option { return func(s *Server) { s.staticDir = dir } }

func New(ctrl Controller, opts ...Option) *Server {
	s := &Server{
		ctrl:    ctrl,
		clients: make(map[*wsClient]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish stores snap for /api/snapshot and pushes it to every socket.
// Slow sockets miss frames rather than stall the tracker.
func (s *Server) Publish(snap tracker.Snapshot) {
	b, err := json.Marshal(WSResponse{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		log.Printf("web: encode snapshot: %v", err)
		return
	}
	s.mu.Lock()
	s.last = b
	s.lastSnap = &snap
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
		}
	}
	s.mu.Unlock()
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/snapshot", s.handleSnapshot).Methods("GET")
	r.HandleFunc("/api/select", s.handleSelect).Methods("POST")
	r.HandleFunc("/api/role", s.handleRole).Methods("POST")
	r.HandleFunc("/api/name", s.handleName).Methods("POST")
	r.HandleFunc("/api/permission", s.handlePermission).Methods("POST")
	r.HandleFunc("/ws", s.handleWS).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods("GET")
	}
	if s.staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.lastSnap
	s.mu.RUnlock()
	if snap == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.reply(w, s.ctrl.Select(r.Context(), req.PlayerID))
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	role, err := game.ParseRole(req.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.reply(w, s.ctrl.SetRole(r.Context(), role))
}

func (s *Server) handleName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.reply(w, s.ctrl.SetName(r.Context(), req.Name))
}

func (s *Server) handlePermission(w http.ResponseWriter, r *http.Request) {
	state, err := s.ctrl.RequestPermission(r.Context())
	if err != nil {
		s.reply(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    state,
		"advisory": heading.Advisory(state),
	})
}

func (s *Server) reply(w http.ResponseWriter, err error) {
	if err != nil {
		log.Printf("web: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}
