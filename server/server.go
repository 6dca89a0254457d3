// Package server exposes the conversation service over HTTP and pushes
// responses on a per-user websocket channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	contractx "github.com/panuwats/concierge/agent/contract"
	"github.com/panuwats/concierge/agent/agents/orchestrator"
	statex "github.com/panuwats/concierge/agent/state"
)

// maxRequestBodySize bounds inbound JSON payloads (64KB).
const maxRequestBodySize = 64 << 10

// Service is the orchestration surface the transport depends on.
type Service interface {
	HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.Envelope, error)
	RequestHandoff(ctx context.Context, userID string, target contractx.AgentID) (contractx.Envelope, error)
	Context(userID string) (statex.Context, bool)
	ClearContext(userID string)
	Agents() []contractx.Descriptor
}

type Server struct {
	svc Service
	hub *Hub
}

func New(svc Service, hub *Hub) *Server {
	return &Server{svc: svc, hub: hub}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", s.handleMessage)
		r.Post("/handoff", s.handleHandoff)
		r.Get("/agents", s.handleAgents)
		r.Get("/contexts/{userID}", s.handleGetContext)
		r.Delete("/contexts/{userID}", s.handleClearContext)
		r.Get("/ws/{userID}", s.hub.Serve)
	})

	return r
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req contractx.TurnRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	env, err := s.svc.HandleTurn(r.Context(), req)
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidUser) || errors.Is(err, orchestrator.ErrInvalidMessage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("handle message failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, env)
}

type handoffRequest struct {
	UserID      string            `json:"user_id"`
	TargetAgent contractx.AgentID `json:"target_agent"`
}

func (s *Server) handleHandoff(w http.ResponseWriter, r *http.Request) {
	var req handoffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	env, err := s.svc.RequestHandoff(r.Context(), req.UserID, req.TargetAgent)
	if err != nil {
		switch {
		case errors.Is(err, contractx.ErrUnknownAgent):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, orchestrator.ErrInvalidUser):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Msg("handoff request failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": s.svc.Agents(),
	})
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	conv, ok := s.svc.Context(userID)
	if !ok {
		// Absent state is a valid result, not a server fault.
		writeError(w, http.StatusNotFound, "no active conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleClearContext(w http.ResponseWriter, r *http.Request) {
	s.svc.ClearContext(chi.URLParam(r, "userID"))
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
