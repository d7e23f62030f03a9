package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"kotiva.org/internal/audit"
	"kotiva.org/internal/auth"
	"kotiva.org/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// forgotPasswordMessage is identical for known and unknown addresses so the
// endpoint cannot be used to enumerate accounts.
const forgotPasswordMessage = "If this email exists in our system, a password reset link has been sent."

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error(), nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeAPIError(w, r, http.StatusBadRequest, "MISSING_FIELDS", "email and password are required", nil)
		return
	}

	ctx := r.Context()
	user, err := a.deps.Store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		obs.CountLogin("error")
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "login failed", nil)
		return
	}
	// One rejection shape for unknown address, wrong password and disabled
	// account: the response must not reveal which check failed.
	if user == nil || !user.IsActive || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		obs.CountLogin("invalid")
		writeAPIError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
		return
	}

	sess, err := a.deps.Sessions.Create(ctx, user)
	if err != nil {
		obs.CountLogin("error")
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "login failed", nil)
		return
	}
	cookie, err := a.deps.Sessions.Cookie(sess)
	if err != nil {
		obs.CountLogin("error")
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "login failed", nil)
		return
	}

	now := sess.CreatedAt
	_ = a.deps.Store.UpdateUser(ctx, user.ID, auth.UserPatch{LastLoginAt: &now})

	obs.CountLogin("success")
	_ = audit.LogEvent(ctx, "auth.login", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ctx := r.Context()
	if sess, err := a.deps.Sessions.FromRequest(r); err == nil {
		_ = a.deps.Sessions.Destroy(ctx, sess.ID)
	}
	_ = audit.LogEvent(ctx, "auth.logout", nil)
	http.SetCookie(w, a.deps.Sessions.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal.User == nil {
		writeAPIError(w, r, http.StatusUnauthorized, "NOT_AUTHENTICATED", "authentication required", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":          principal.User,
		"organizations": principal.Organizations,
	})
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error(), nil)
		return
	}

	ctx := r.Context()
	err := a.deps.Reset.Request(ctx, req.Email, auth.RequestMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	switch {
	case err == nil:
		obs.CountResetIssued()
		_ = audit.LogEvent(ctx, "auth.password_reset.requested", nil)
	case errors.Is(err, auth.ErrMissingFields):
		writeAPIError(w, r, http.StatusBadRequest, "MISSING_FIELDS", "email is required", nil)
		return
	case errors.Is(err, auth.ErrEmailSendFailed):
		writeAPIError(w, r, http.StatusInternalServerError, "EMAIL_SEND_FAILED", "failed to send reset email", nil)
		return
	default:
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "password reset request failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": forgotPasswordMessage})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error(), nil)
		return
	}

	ctx := r.Context()
	if err := a.deps.Reset.Reset(ctx, req.Token, req.NewPassword); err != nil {
		status, code := resetErrorCode(err)
		obs.CountResetConsumed(code)
		writeAPIError(w, r, status, code, resetErrorMessage(err), nil)
		return
	}
	obs.CountResetConsumed("success")
	_ = audit.LogEvent(ctx, "auth.password_reset.completed", nil)
	writeJSON(w, http.StatusOK, map[string]any{"message": "password has been reset"})
}

func resetErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		return http.StatusBadRequest, "MISSING_FIELDS"
	case errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest, "PASSWORD_TOO_SHORT"
	case errors.Is(err, auth.ErrPasswordTooWeak):
		return http.StatusBadRequest, "PASSWORD_TOO_WEAK"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusBadRequest, "INVALID_TOKEN"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusBadRequest, "TOKEN_EXPIRED"
	case errors.Is(err, auth.ErrTokenUsed):
		return http.StatusBadRequest, "TOKEN_ALREADY_USED"
	case errors.Is(err, auth.ErrTokenHashMismatch):
		return http.StatusBadRequest, "INVALID_TOKEN_HASH"
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusBadRequest, "USER_NOT_FOUND"
	default:
		return http.StatusInternalServerError, "AUTH_ERROR"
	}
}

func resetErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		return "token and new password are required"
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "password must be at least 8 characters"
	case errors.Is(err, auth.ErrPasswordTooWeak):
		return "password must contain an uppercase letter, a lowercase letter and a digit"
	case errors.Is(err, auth.ErrTokenExpired):
		return "reset token has expired"
	case errors.Is(err, auth.ErrTokenUsed):
		return "reset token has already been used"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenHashMismatch):
		return "invalid reset token"
	case errors.Is(err, auth.ErrUserNotFound):
		return "account is not eligible for password reset"
	default:
		return "password reset failed"
	}
}
