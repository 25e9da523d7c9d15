package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medvault.org/internal/audit"
	"medvault.org/internal/auth"
	"medvault.org/internal/obs"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresIn int64  `json:"expiresIn"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role := auth.RoleClinician
	if req.Role != "" {
		parsed, ok := auth.ParseRole(req.Role)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "unknown role")
			return
		}
		role = parsed
	}

	user, err := a.auth.Register(r.Context(), req.Email, req.Password, role)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}

	_ = a.sink.Record(r.Context(), audit.EventUserRegistered, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
	})

	a.writeTokenResponse(w, r, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.LoginAttempts.WithLabelValues(loginOutcome(err)).Inc()
		a.handleAuthError(w, r, err)
		return
	}
	obs.LoginAttempts.WithLabelValues("success").Inc()

	_ = a.sink.Record(r.Context(), audit.EventUserLogin, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})

	a.writeTokenResponse(w, r, http.StatusOK, user)
}

func (a *API) writeTokenResponse(w http.ResponseWriter, r *http.Request, code int, user *auth.User) {
	tok, _, err := a.codec.Issue(user.ID, user.Email, string(user.Role), a.tokenTTL)
	if err != nil {
		logger := obs.Logger()
		logger.Error().Err(err).Msg("token issue failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, code, tokenResponse{
		Token:     tok,
		Type:      "Bearer",
		ExpiresIn: int64(a.tokenTTL.Seconds()),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
	})
}

func (a *API) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := a.auth.Deactivate(r.Context(), userID); err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId": userID,
		"status": string(auth.StatusInactive),
	})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		return "unknown_account"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "bad_credentials"
	case errors.Is(err, auth.ErrInactiveAccount):
		return "inactive_account"
	default:
		return "error"
	}
}

func (a *API) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, r, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "account not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrInactiveAccount):
		writeError(w, r, http.StatusForbidden, "account is inactive")
	default:
		logger := obs.Logger()
		logger.Error().Err(err).Msg("auth handler error")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
