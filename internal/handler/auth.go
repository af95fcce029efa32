package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/service"
	"github.com/normrepo/nrs-go/internal/validation"
)

// AuthHandler handles HTTP requests for accounts.
type AuthHandler struct {
	base
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, val *validation.Validator, log *zap.Logger) *AuthHandler {
	return &AuthHandler{base: base{log: log, validate: val}, service: svc}
}

// HandleRegister handles POST /users requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[model.CreateUserRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /users/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[model.LoginRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /user requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateMe handles PUT /user requests.
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := decodeValid[model.UpdateUserRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleChangePassword handles PUT /user/password requests.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := decodeValid[model.ChangePasswordRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteMe handles DELETE /user requests.
func (h *AuthHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
