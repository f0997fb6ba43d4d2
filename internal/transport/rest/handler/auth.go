package handler

import (
	"encoding/json"
	"net/http"

	"predictbattle/internal/model"
	"predictbattle/internal/service"
	"predictbattle/internal/transport/rest/apierr"
	"predictbattle/internal/transport/rest/middleware"
)

// AuthHandler handles user account endpoints
type AuthHandler struct {
	authSvc *service.AuthService
	out     *apierr.Writer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, out *apierr.Writer) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, out: out}
}

// Register handles POST /users
// @Summary     Register a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body model.Credentials true "credentials"
// @Success     201 {object} model.AuthResponse
// @Failure     400 {object} apierr.ErrorResponse
// @Router      /users [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if !decodeJSON(w, r, h.out, &req) {
		return
	}

	resp, err := h.authSvc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusCreated, resp)
}

// Login handles POST /users/login
// @Summary     Log in
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body model.Credentials true "credentials"
// @Success     200 {object} model.AuthResponse
// @Failure     401 {object} apierr.ErrorResponse
// @Router      /users/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if !decodeJSON(w, r, h.out, &req) {
		return
	}

	resp, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusOK, resp)
}

// Profile handles GET /users/profile
// @Summary     Current user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} model.Profile
// @Failure     401 {object} apierr.ErrorResponse
// @Router      /users/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		h.out.Error(w, r, model.ErrNoToken)
		return
	}

	profile, err := h.authSvc.GetProfile(r.Context(), token)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusOK, profile)
}

// decodeJSON reads the request body into dst, answering 400 on malformed input
func decodeJSON(w http.ResponseWriter, r *http.Request, out *apierr.Writer, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		out.Error(w, r, apierr.ErrMalformedBody)
		return false
	}
	return true
}
