package authhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"ptoinfo/internal/domain/auth"
	"ptoinfo/internal/transport/http/api"
	"ptoinfo/internal/transport/http/middleware"
)

type mfaCodeRequest struct {
	Code string `json:"code"`
}

// HandleMFASetup issues a new TOTP seed. MFA stays off until the user
// confirms a code through HandleMFAEnable.
func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := h.mfaUser(w, r)
	if !ok {
		return
	}

	key, err := auth.GenerateMFAKey(user.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "mfa key generation failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", reqID)
		return
	}
	sealed, err := h.Secrets.Seal(key.Secret)
	if err != nil {
		slog.ErrorContext(r.Context(), "mfa secret seal failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", reqID)
		return
	}
	if err := h.Users.SetMFASecret(r.Context(), user.UserID, sealed); err != nil {
		slog.ErrorContext(r.Context(), "mfa secret store failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", reqID)
		return
	}
	api.Success(w, map[string]string{"secret": key.Secret, "otpauthUrl": key.URL}, reqID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false)
}

// toggleMFA switches MFA after checking a current code against the stored
// seed.
func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enabled bool) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := h.mfaUser(w, r)
	if !ok {
		return
	}
	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	sealed, err := h.Users.MFASecret(r.Context(), user.UserID)
	if err != nil || len(sealed) == 0 {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", reqID)
		return
	}
	if !h.validCode(payload.Code, sealed) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", reqID)
		return
	}
	if err := h.Users.SetMFAEnabled(r.Context(), user.UserID, enabled); err != nil {
		slog.ErrorContext(r.Context(), "mfa toggle failed", "userId", user.UserID, "enabled", enabled, "err", err)
		api.Fail(w, http.StatusInternalServerError, "mfa_update_failed", "failed to update mfa", reqID)
		return
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	api.Success(w, map[string]string{"status": status}, reqID)
}

func (h *Handler) mfaUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return auth.UserContext{}, false
	}
	if h.Secrets == nil || !h.Secrets.Configured() {
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", reqID)
		return auth.UserContext{}, false
	}
	return user, true
}

func (h *Handler) validCode(code string, sealed []byte) bool {
	if h.Secrets == nil || !h.Secrets.Configured() {
		return false
	}
	secret, err := h.Secrets.Open(sealed)
	if err != nil {
		slog.Warn("mfa secret unreadable", "err", err)
		return false
	}
	return auth.ValidateMFACode(code, secret)
}
