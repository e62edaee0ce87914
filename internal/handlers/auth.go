package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/auth"
	"github.com/bennettsh/authkit/internal/cookies"
	"github.com/bennettsh/authkit/internal/models"
	"github.com/bennettsh/authkit/internal/request"
	"github.com/bennettsh/authkit/internal/validation"
)

// AuthHandler serves the credential endpoints: register, login, logout,
// and the current-user operations.
type AuthHandler struct {
	service *auth.Service
	signer  *cookies.Signer
	logger  *zap.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *auth.Service, signer *cookies.Signer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, signer: signer, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the wire shape of a user. The session token travels
// only in the cookie.
type userResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Image         *string `json:"image,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	CreatedAt     string  `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID.String(),
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		EmailVerified: u.EmailVerifiedAt != nil,
		CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request", validation.Fields(err))
		return
	}

	result, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.signer.SetSession(w, result.Session.Token, result.Session.Session.ExpiresAt)
	respondJSON(w, http.StatusCreated, toUserResponse(result.User))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request", validation.Fields(err))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.signer.SetSession(w, result.Session.Token, result.Session.Session.ExpiresAt)
	respondJSON(w, http.StatusOK, toUserResponse(result.User))
}

// Logout handles POST /api/auth/logout. Requires a valid session; revokes
// it and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := request.SessionFromContext(r)

	if err := h.service.Logout(r.Context(), session.ID); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.signer.Clear(w, cookies.SessionCookie)
	respondJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

// LogoutAll handles POST /api/auth/logout-all: revokes every session the
// user owns, including this one.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)

	count, err := h.service.LogoutAll(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.signer.Clear(w, cookies.SessionCookie)
	respondJSON(w, http.StatusOK, map[string]any{"logged_out": true, "sessions_revoked": count})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// DeleteMe handles DELETE /api/auth/me: removes the account and every
// session, then clears the cookie.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)

	if err := h.service.DeleteUser(r.Context(), user.ID); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.signer.Clear(w, cookies.SessionCookie)
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
