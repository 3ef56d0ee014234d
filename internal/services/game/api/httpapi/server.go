// Package httpapi exposes the territory engine over a JSON HTTP API.
//
// Every route below /v1 requires a bearer access token; the token
// subject is the acting player. Admin routes additionally require the
// actor to be the game creator, which the engine enforces.
package httpapi

import (
	"net/http"

	"geobattle/internal/services/game/engine"
	"geobattle/internal/services/game/events"
)

// Server translates HTTP requests into engine calls.
type Server struct {
	engine   *engine.Service
	hub      *events.Hub
	verifier TokenVerifier
}

// NewServer wires the HTTP surface. hub may be nil when the live watch
// feed is not served.
func NewServer(svc *engine.Service, hub *events.Hub, verifier TokenVerifier) *Server {
	return &Server{
		engine:   svc,
		hub:      hub,
		verifier: verifier,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /v1/games/{gameID}/join", s.requirePlayer(s.handleJoin))
	mux.HandleFunc("POST /v1/games/{gameID}/leave", s.requirePlayer(s.handleLeave))
	mux.HandleFunc("POST /v1/games/{gameID}/actions", s.requirePlayer(s.handleAction))
	mux.HandleFunc("GET /v1/games/{gameID}/state", s.requirePlayer(s.handleState))
	mux.HandleFunc("GET /v1/games/{gameID}/players/me", s.requirePlayer(s.handlePlayerMe))
	mux.HandleFunc("GET /v1/games/{gameID}/audit", s.requirePlayer(s.handleAudit))
	mux.HandleFunc("GET /v1/games/{gameID}/watch", s.requirePlayer(s.handleWatch))

	mux.HandleFunc("POST /v1/games/{gameID}/admin/grants", s.requirePlayer(s.handleGrant))
	mux.HandleFunc("POST /v1/games/{gameID}/admin/ownership", s.requirePlayer(s.handleSetOwnership))
	mux.HandleFunc("POST /v1/games/{gameID}/admin/territories/{territoryID}/enabled", s.requirePlayer(s.handleSetTerritoryEnabled))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
