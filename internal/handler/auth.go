// Package handler contains the HTTP layer: request binding, validation,
// error-to-status mapping and response shaping. Business rules live in the
// auth service and the repositories.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/library-seat-reservation/internal/auth"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
)

// User-facing messages. The texts are fixed; clients render them verbatim.
const (
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgInvalidEmail       = "Please enter a valid email address."
	msgWeakPassword       = "Password must be at least 6 characters long."
	msgReservedEmail      = "This email address is reserved for admin use only."
	msgGenericError       = "An error occurred. Please try again."
)

const minPasswordLen = 6

// Sessioner is the slice of the auth service the handler needs.
type Sessioner interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, refreshRaw string) error
	Refresh(ctx context.Context, refreshRaw string) (*auth.Session, error)
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Auth Sessioner
	Log  zerolog.Logger
}

func NewAuthHandler(a Sessioner, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
type sessionResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toSessionResp(s *auth.Session) sessionResp {
	return sessionResp{
		User:    userPart{ID: s.UserID, Email: s.Email, IsAdmin: s.IsAdmin},
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
	}
}

// validateCredentials applies the checks the original form enforced: both
// fields present, a plausible email, a minimum password length.
func validateCredentials(email, password string) (string, string) {
	if email == "" || password == "" {
		return "", "email/password required"
	}
	if !strings.Contains(email, "@") || strings.Contains(email, " ") {
		return "", msgInvalidEmail
	}
	if len(password) < minPasswordLen {
		return "", msgWeakPassword
	}
	return email, ""
}

// Login handles POST /v1/auth/login. Every sign-in failure is reported with
// the same flattened message; the underlying cause is logged, never exposed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := auth.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Auth.SignIn(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgInvalidCredentials})
		}
		h.Log.Error().Err(err).Msg("login failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgGenericError})
	}
	return c.JSON(http.StatusOK, toSessionResp(sess))
}

// Register handles POST /v1/auth/register. The reserved administrator
// address is rejected here, before any store call, regardless of password
// validity. On success the new account's first session is returned, so a
// fresh sign-up lands signed in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := auth.NormalizeEmail(req.Email)
	email, msg := validateCredentials(email, req.Password)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Auth.SignUp(ctx, email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrReservedEmail):
			return c.JSON(http.StatusForbidden, echo.Map{"error": msgReservedEmail})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		default:
			h.Log.Error().Err(err).Msg("register failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgGenericError})
		}
	}
	return c.JSON(http.StatusCreated, toSessionResp(sess))
}

// Logout handles POST /v1/auth/logout: revokes the presented refresh
// session. Errors are not flattened.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.SignOut(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		h.Log.Error().Err(err).Msg("logout failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh handles POST /v1/auth/refresh: rotates the refresh token and
// returns a new session pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	return c.JSON(http.StatusOK, toSessionResp(sess))
}

// Me returns the identity restored from the presented access token. This is
// the session-restore surface: a client holding a token asks "who am I"
// instead of keeping identity state of its own.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, userPart{
		ID:      str(c.Get("user_id")),
		Email:   str(c.Get("email")),
		IsAdmin: c.Get("is_admin") == true,
	})
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
