package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appNegotiation "github.com/groupnest/groupnest/internal/application/negotiation"
	"github.com/groupnest/groupnest/internal/domain/negotiation"
	"github.com/groupnest/groupnest/internal/infrastructure/hub"
	"github.com/groupnest/groupnest/internal/relay"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	negotiationSvc *appNegotiation.Service
	hub            *hub.Hub
	relayNode      *relay.Node
}

// NewServer creates the API server. relayNode may be nil when the service
// runs as a single process.
func NewServer(negotiationSvc *appNegotiation.Service, h *hub.Hub, relayNode *relay.Node) *Server {
	return &Server{
		negotiationSvc: negotiationSvc,
		hub:            h,
		relayNode:      relayNode,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/negotiations", func(r chi.Router) {
			r.With(middleware.Timeout(30 * time.Second)).Group(func(r chi.Router) {
				r.Post("/", s.openSession)
				r.Get("/{sessionId}", s.getSession)
				r.Post("/{sessionId}/percentage", s.proposePercentage)
				r.Post("/{sessionId}/confirm", s.confirm)
				r.Post("/{sessionId}/revoke", s.revoke)
				r.Post("/{sessionId}/cancel", s.cancelSession)
				r.Delete("/{sessionId}/participants/{userId}", s.removeParticipant)
				r.Get("/{sessionId}/online", s.listOnline)
			})
			// The stream stays open for the life of the connection; no
			// timeout middleware here.
			r.Get("/{sessionId}/stream", s.stream)
		})

		if s.relayNode != nil {
			r.Route("/relay", func(r chi.Router) {
				r.Use(middleware.Timeout(30 * time.Second))
				r.Post("/events", s.applyRelayEvent)
				r.Get("/status", s.relayStatus)
				r.Post("/join", s.relayJoin)
				r.Post("/remove", s.relayRemove)
			})
		}
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type openSessionRequest struct {
	ContextKey    string                     `json:"contextKey"`
	CalculationID uuid.UUID                  `json:"calculationId"`
	Roster        []negotiation.RosterMember `json:"roster"`
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	state, err := s.negotiationSvc.GetOrCreateSession(r.Context(), appNegotiation.GetOrCreateInput{
		ContextKey:    req.ContextKey,
		CalculationID: req.CalculationID,
		Roster:        req.Roster,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	state, err := s.negotiationSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

type percentageRequest struct {
	UserID     string  `json:"userId"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) proposePercentage(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	var req percentageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId is required")
		return
	}
	participant, err := s.negotiationSvc.ProposePercentage(r.Context(), sessionID, req.UserID, req.Percentage)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, participant)
}

type userRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	s.statusChange(w, r, s.negotiationSvc.Confirm)
}

func (s *Server) revoke(w http.ResponseWriter, r *http.Request) {
	s.statusChange(w, r, s.negotiationSvc.Revoke)
}

func (s *Server) statusChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID uuid.UUID, userID string) (*negotiation.Participant, error)) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId is required")
		return
	}
	participant, err := op(r.Context(), sessionID, req.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, participant)
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	if err := s.negotiationSvc.CancelSession(r.Context(), sessionID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"session_id": sessionID, "status": negotiation.SessionStatusCancelled})
}

func (s *Server) removeParticipant(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId is required")
		return
	}
	if err := s.negotiationSvc.RemoveParticipant(r.Context(), sessionID, userID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"session_id": sessionID, "user_id": userID, "removed": true})
}

func (s *Server) listOnline(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"users":      s.hub.ListOnline(sessionID),
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondDomainError maps the engine's error taxonomy onto HTTP statuses.
// Validation and precondition failures are recoverable and local to the
// caller; storage failures invite a retry.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, negotiation.ErrSessionNotFound), errors.Is(err, negotiation.ErrParticipantNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case negotiation.IsValidation(err):
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case negotiation.IsPrecondition(err):
		respondError(w, http.StatusConflict, "PRECONDITION_FAILED", err.Error())
	case negotiation.IsStorage(err):
		respondError(w, http.StatusServiceUnavailable, "STORAGE_ERROR", "could not persist change, retry")
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
