/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"

	"github.com/humaidq/labwise/db"
)

const csrfHeader = "X-CSRF-Token"

var (
	authenticateUserFn = db.AuthenticateUser
	isUserAdminFn      = db.IsUserAdmin
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *db.User   `json:"user"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Login checks an email and password, starts a session and, when a token
// issuer is configured, returns a bearer token for API clients.
func Login(c flamego.Context, s session.Session, x csrf.CSRF, svc *Services) {
	if !checkCSRF(c, s, x) {
		return
	}

	var req loginRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := authenticateUserFn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			logAccessDenied(c, s, "invalid_credentials", http.StatusUnauthorized, "email", db.NormalizeEmail(req.Email))
			writeError(c, http.StatusUnauthorized, "invalid email or password")

			return
		}

		writeInternalError(c, "failed to log in", err)

		return
	}

	if err := s.RegenerateID(c.ResponseWriter(), c.Request().Request); err != nil {
		writeInternalError(c, "failed to start session", err)
		return
	}

	setSessionUser(s, user)

	resp := loginResponse{User: user}

	if svc.Tokens != nil {
		token, expiresAt, err := svc.Tokens.Issue(user.ID)
		if err != nil {
			writeInternalError(c, "failed to issue token", err)
			return
		}

		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	logger.Info("User logged in", "user_id", user.ID)
	writeJSON(c, http.StatusOK, resp)
}

// Logout ends the session. Bearer tokens expire on their own.
func Logout(c flamego.Context, s session.Session, x csrf.CSRF) {
	if !checkCSRF(c, s, x) {
		return
	}

	clearSessionUser(s)
	writeJSON(c, http.StatusOK, messageResponse{Message: "Logged out"})
}

// CSRFToken returns the token cookie clients send in X-CSRF-Token.
func CSRFToken(c flamego.Context, x csrf.CSRF) {
	writeJSON(c, http.StatusOK, map[string]string{"csrf_token": x.Token()})
}

// RequireAuth accepts a bearer token or an authenticated session and maps
// the caller as AuthUser. Session callers must send a valid CSRF token on
// mutating requests.
func RequireAuth(c flamego.Context, s session.Session, x csrf.CSRF, svc *Services) {
	if raw, ok := bearerToken(c.Request().Header.Get("Authorization")); ok {
		if svc.Tokens == nil {
			logAccessDenied(c, s, "bearer_disabled", http.StatusUnauthorized)
			writeError(c, http.StatusUnauthorized, "bearer tokens are not enabled")

			return
		}

		userID, err := svc.Tokens.Parse(raw)
		if err != nil {
			logAccessDenied(c, s, "invalid_token", http.StatusForbidden, "error", err)
			writeError(c, http.StatusForbidden, "invalid or expired token")

			return
		}

		c.Map(AuthUser{ID: userID, ViaToken: true})
		c.Next()

		return
	}

	userID, err := sessionUser(s)
	if err != nil {
		logAccessDenied(c, s, "unauthenticated", http.StatusUnauthorized)
		writeError(c, http.StatusUnauthorized, "authentication required")

		return
	}

	if isMutating(c.Request().Method) && !checkCSRF(c, s, x) {
		return
	}

	c.Map(AuthUser{ID: userID})
	c.Next()
}

// RequireAdmin must run after RequireAuth. It limits server-wide settings to
// users flagged as admins.
func RequireAdmin(c flamego.Context, s session.Session, u AuthUser) {
	admin, err := isUserAdminFn(c.Request().Context(), u.ID)
	if err != nil && !errors.Is(err, db.ErrUserNotFound) {
		writeInternalError(c, "failed to check permissions", err)
		return
	}

	if !admin {
		logAccessDenied(c, s, "not_admin", http.StatusForbidden, "auth_user_id", u.ID)
		writeError(c, http.StatusForbidden, "admin access required")

		return
	}

	c.Next()
}

// checkCSRF validates X-CSRF-Token for cookie clients and writes a 403 when
// it is wrong. Requests carrying a bearer header are not cookie clients.
func checkCSRF(c flamego.Context, s session.Session, x csrf.CSRF) bool {
	if _, ok := bearerToken(c.Request().Header.Get("Authorization")); ok {
		return true
	}

	if x.ValidToken(c.Request().Header.Get(csrfHeader)) {
		return true
	}

	logAccessDenied(c, s, "invalid_csrf", http.StatusForbidden)
	writeError(c, http.StatusForbidden, "invalid csrf token")

	return false
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}

	return true
}
