package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"predictbattle/internal/model"
	"predictbattle/internal/service"
	"predictbattle/internal/transport/rest/apierr"
	"predictbattle/internal/transport/rest/middleware"
)

// SessionHandler handles prediction session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	out        *apierr.Writer
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, out *apierr.Writer) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, out: out}
}

// Create handles POST /sessions
// @Summary     Create a prediction session
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       body body model.CreateSessionInput true "session"
// @Success     201 {object} model.Session
// @Failure     400 {object} apierr.ErrorResponse
// @Router      /sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionInput
	if !decodeJSON(w, r, h.out, &req) {
		return
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), req, middleware.GetIdentity(r.Context()))
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusCreated, session)
}

// GetByCode handles GET /sessions/{code}
// @Summary     Get a session by code
// @Tags        sessions
// @Produce     json
// @Param       code path string true "session code"
// @Success     200 {object} model.SessionView
// @Failure     404 {object} apierr.ErrorResponse
// @Router      /sessions/{code} [get]
func (h *SessionHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.GetSessionByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusOK, view)
}

// MySessions handles GET /sessions/user/my-sessions
// @Summary     Sessions created by or joined by the caller
// @Tags        sessions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} model.UserSessions
// @Failure     401 {object} apierr.ErrorResponse
// @Router      /sessions/user/my-sessions [get]
func (h *SessionHandler) MySessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionSvc.ListUserSessions(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusOK, sessions)
}

// Complete handles PUT /sessions/{id}/complete
// @Summary     Complete a session
// @Tags        sessions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "session id"
// @Success     200 {object} model.Session
// @Failure     401 {object} apierr.ErrorResponse
// @Failure     404 {object} apierr.ErrorResponse
// @Router      /sessions/{id}/complete [put]
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.CompleteSession(r.Context(), mux.Vars(r)["id"], middleware.GetIdentity(r.Context()))
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusOK, session)
}
