package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/UniNest/NestGuide/internal/flow"
	"github.com/UniNest/NestGuide/internal/models"
)

// handleCreateSession opens a new onboarding conversation for the bearer
// identity and runs the returning-user routing before answering.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	session := flow.NewSession(uuid.NewString(), token)
	s.router.Bootstrap(r.Context(), session)
	s.registry.Add(session)

	slog.Info("api.handleCreateSession: session created", "sessionID", session.ID, "stage", session.Stage())
	writeJSONResponse(w, http.StatusCreated, models.Success(session.Snapshot()))
}

// handlePostMessage runs one turn through the stage controller. The bot's
// reaction lands via the reveal scheduler, so the snapshot returned here may
// not yet contain it; clients poll the session for the paced reveals.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.controller.ProcessTurn(r.Context(), session, flow.TurnInput{
		Message:   req.Message,
		Birthday:  req.Birthday,
		GradMonth: req.GradMonth,
		GradYear:  req.GradYear,
	})
	switch {
	case errors.Is(err, models.ErrTurnInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, models.ErrSessionClosed), errors.Is(err, models.ErrSessionCompleted):
		writeError(w, http.StatusGone, err.Error())
		return
	case err != nil:
		slog.Error("api.handlePostMessage: turn failed", "sessionID", session.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(session.Snapshot()))
}

// handleGetSession returns the current session snapshot.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(session.Snapshot()))
}

// handleDeleteSession tears the session down, cancelling pending reveals.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	session.Teardown(s.timer)
	s.registry.Remove(session.ID)
	slog.Info("api.handleDeleteSession: session closed", "sessionID", session.ID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("session closed", nil))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", map[string]int{
		"sessions": s.registry.Len(),
	}))
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if auth == "" || token == "" || token == auth {
		return "", models.ErrEmptyToken
	}
	return token, nil
}
