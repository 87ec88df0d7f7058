package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/crisisgame/game/config"
	"github.com/wricardo/mcp-training/crisisgame/game/feedback"
	"github.com/wricardo/mcp-training/crisisgame/game/preview"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
	"github.com/wricardo/mcp-training/crisisgame/game/service"
	"github.com/wricardo/mcp-training/crisisgame/game/session"
	"github.com/wricardo/mcp-training/crisisgame/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer, requestLogger)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")

	// Puzzle
	api.HandleFunc("/sessions/{id}/select", s.handleSelect).Methods("POST")
	api.HandleFunc("/sessions/{id}/attempt", s.handleAttempt).Methods("POST")
	api.HandleFunc("/sessions/{id}/continue", s.handleContinue).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")

	// Hub and navigation
	api.HandleFunc("/sessions/{id}/hover", s.handleHover).Methods("POST")
	api.HandleFunc("/sessions/{id}/activate", s.handleActivate).Methods("POST")
	api.HandleFunc("/sessions/{id}/follow", s.handleFollow).Methods("POST")
	api.HandleFunc("/sessions/{id}/back", s.handleBack).Methods("POST")
	api.HandleFunc("/sessions/{id}/navigate", s.handleNavigate).Methods("POST")

	// Clock
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")

	// Suites
	api.HandleFunc("/suites", s.handleListSuites).Methods("GET")
	api.HandleFunc("/suites/{name}", s.handleGetSuite).Methods("GET")

	api.HandleFunc("", s.handleIndex).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the router so callers can mount extra endpoints such as /mcp
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, puzzle.ErrInvalidIndex),
		errors.Is(err, service.ErrInvalidTick),
		errors.Is(err, preview.ErrUnknownTile),
		errors.Is(err, scene.ErrUnknownLink),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, scene.ErrSceneNotFound),
		errors.Is(err, config.ErrSuiteNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrWrongScene),
		errors.Is(err, scene.ErrNotActive),
		errors.Is(err, feedback.ErrNoContinue),
		errors.Is(err, preview.ErrNoScene):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// requestLogger writes one structured line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SuiteID string `json:"suite_id,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateSession(r.Context(), req.SuiteID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	// Snapshots are large; the list carries only the summary
	summaries := make([]service.SessionInfo, 0, len(sessions))
	for _, info := range sessions {
		summary := *info
		summary.Snapshot = nil
		summaries = append(summaries, summary)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(summaries),
		"total":    total,
		"sessions": summaries,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Action Handlers

type indexRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := decode(r, &req); err != nil || req.Index == nil {
		respondError(w, http.StatusBadRequest, "index is required")
		return
	}
	s.respondAction(w, r, func(ctx context.Context, id string) (*service.ActionResult, error) {
		return s.service.SelectPrompt(ctx, id, *req.Index)
	})
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := decode(r, &req); err != nil || req.Index == nil {
		respondError(w, http.StatusBadRequest, "index is required")
		return
	}
	s.respondAction(w, r, func(ctx context.Context, id string) (*service.ActionResult, error) {
		return s.service.AttemptTarget(ctx, id, *req.Index)
	})
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	s.respondAction(w, r, s.service.Continue)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.respondAction(w, r, s.service.Reset)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tile  *int  `json:"tile"`
		Enter *bool `json:"enter"`
	}
	if err := decode(r, &req); err != nil || req.Tile == nil {
		respondError(w, http.StatusBadRequest, "tile is required")
		return
	}
	enter := true
	if req.Enter != nil {
		enter = *req.Enter
	}
	s.respondAction(w, r, func(ctx context.Context, id string) (*service.ActionResult, error) {
		return s.service.Hover(ctx, id, *req.Tile, enter)
	})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tile *int `json:"tile"`
	}
	if err := decode(r, &req); err != nil || req.Tile == nil {
		respondError(w, http.StatusBadRequest, "tile is required")
		return
	}
	s.respondAction(w, r, func(ctx context.Context, id string) (*service.ActionResult, error) {
		return s.service.ActivateTile(ctx, id, *req.Tile)
	})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Link int `json:"link"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.respondAction(w, r, func(ctx context.Context, id string) (*service.ActionResult, error) {
		return s.service.FollowLink(ctx, id, req.Link)
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.respondAction(w, r, s.service.Back)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scene string `json:"scene"`
	}
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Scene) == "" {
		respondError(w, http.StatusBadRequest, "scene is required")
		return
	}
	s.respondAction(w, r, func(ctx context.Context, id string) (*service.ActionResult, error) {
		return s.service.Navigate(ctx, id, req.Scene)
	})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MS *int64 `json:"ms"`
	}
	if err := decode(r, &req); err != nil || req.MS == nil {
		respondError(w, http.StatusBadRequest, "ms is required")
		return
	}
	d := time.Duration(*req.MS) * time.Millisecond
	s.respondAction(w, r, func(ctx context.Context, id string) (*service.ActionResult, error) {
		return s.service.Tick(ctx, id, d)
	})
}

// respondAction runs a session action, broadcasts its result and writes it
func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sessionID string) (*service.ActionResult, error)) {
	sessionID := mux.Vars(r)["id"]

	result, err := fn(r.Context(), sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session", sessionID).Str("path", r.URL.Path).Msg("action rejected")
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastResult(sessionID, result)
	}

	sceneName := ""
	if result.Snapshot != nil {
		sceneName = result.Snapshot.Scene.Name
	}
	log.Info().
		Str("session", sessionID).
		Str("action", r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]).
		Str("outcome", result.Outcome).
		Str("scene", sceneName).
		Int("events", len(result.Events)).
		Msg("action")

	respondJSON(w, http.StatusOK, result)
}

// Suite Handlers

func (s *Server) handleListSuites(w http.ResponseWriter, r *http.Request) {
	suites, err := s.service.ListSuites(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, suites)
}

func (s *Server) handleGetSuite(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	for _, ext := range config.Extensions {
		name = strings.TrimSuffix(name, ext)
	}

	suite, err := s.service.LoadSuite(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, suite)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket not available")
		return
	}

	snap, err := s.service.GetState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
	// New clients start from the current state
	s.hub.BroadcastToSession(sessionID, snap)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name": "crisis scenarios",
		"endpoints": []string{
			"POST /api/sessions",
			"GET /api/sessions/{id}/state",
			"POST /api/sessions/{id}/{select|attempt|hover|activate|follow|continue|back|navigate|reset|tick}",
			"GET /api/suites",
			"GET /ws?session={id}",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
