// Package auth implements the session lifecycle: credential sign-in and
// sign-up, sign-out, refresh, and the session-change notifications other
// components observe. It is constructed once and injected wherever a
// "who is signed in" decision is needed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
	"github.com/iliyamo/library-seat-reservation/internal/watch"
)

// ErrInvalidCredentials is the flattened sign-in failure. Every sign-in
// error except the reserved-admin bootstrap path collapses to this; the
// underlying cause stays wrapped for diagnostics.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrReservedEmail is returned when sign-up targets the reserved
// administrator address. Only the implicit path inside SignIn may create
// that account.
var ErrReservedEmail = errors.New("email reserved for admin use")

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, email, password string, cost int) (string, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// SessionStore persists refresh sessions.
type SessionStore interface {
	Store(ctx context.Context, userID, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Session is the result of a successful sign-in, sign-up or refresh.
type Session struct {
	UserID  string
	Email   string
	IsAdmin bool
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// Service owns session state transitions.
type Service struct {
	cfg      config.Config
	users    UserStore
	sessions SessionStore
	bus      *watch.Bus
	log      zerolog.Logger
}

// NewService wires the session service. bus may be a nil-client Bus; session
// change events are then dropped.
func NewService(cfg config.Config, users UserStore, sessions SessionStore, bus *watch.Bus, log zerolog.Logger) *Service {
	return &Service{cfg: cfg, users: users, sessions: sessions, bus: bus, log: log}
}

// NormalizeEmail lowercases and trims an address. Every operation applies it
// before touching a store, so differently-cased inputs produce identical
// store calls.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin reports whether the (normalized) email is the reserved
// administrator address.
func (s *Service) IsAdmin(email string) bool {
	return NormalizeEmail(email) == NormalizeEmail(s.cfg.AdminEmail)
}

// SignIn verifies credentials and establishes a fresh session. Once the
// password is verified, any existing sessions of the user are revoked so a
// new sign-in never coexists with stale ones; failed attempts leave live
// sessions alone. If verification fails and the email is the reserved
// administrator address, the account is created on the fly and sign-in
// retried once; for any other address a failed sign-in never triggers
// sign-up. All failures flatten to ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)

	sess, err := s.verify(ctx, email, password)
	if err == nil {
		return sess, nil
	}

	if s.IsAdmin(email) {
		// First-failed-login doubles as implicit signup for the reserved
		// address only.
		if _, cerr := s.users.Create(ctx, email, password, s.cfg.BcryptCost); cerr != nil && !errors.Is(cerr, repository.ErrEmailExists) {
			s.log.Error().Err(cerr).Msg("implicit admin signup failed")
			return nil, fmt.Errorf("%w (%v)", ErrInvalidCredentials, cerr)
		}
		if sess, err = s.verify(ctx, email, password); err == nil {
			return sess, nil
		}
	}

	s.log.Warn().Str("email", email).Err(err).Msg("sign in failed")
	return nil, fmt.Errorf("%w (%v)", ErrInvalidCredentials, err)
}

// verify checks the password, revokes prior sessions and issues a new pair.
func (s *Service) verify(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, errors.New("password mismatch")
	}
	// Forced sign-out before the new session is established. Only after the
	// password checks out, so failed attempts cannot evict live sessions.
	if err := s.sessions.RevokeAllForUser(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// SignUp creates an account and establishes its first session. Unlike
// SignIn, errors are propagated raw. The reserved administrator address is
// rejected outright.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if s.IsAdmin(email) {
		return nil, ErrReservedEmail
	}
	id, err := s.users.Create(ctx, email, password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// SignOut revokes the session behind the raw refresh token and publishes a
// signed-out event. Errors are propagated raw.
func (s *Service) SignOut(ctx context.Context, refreshRaw string) error {
	hash := utils.HashRefreshRaw(refreshRaw)
	userID, err := s.sessions.Validate(ctx, hash)
	if err != nil {
		return err
	}
	if err := s.sessions.RevokeByHash(ctx, hash); err != nil {
		return err
	}
	s.publish(ctx, watch.Event{Kind: watch.KindSignedOut, ID: userID})
	return nil
}

// Refresh rotates a refresh token: the presented session is revoked and a
// new pair issued for the same user.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (*Session, error) {
	hash := utils.HashRefreshRaw(refreshRaw)
	userID, err := s.sessions.Validate(ctx, hash)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.RevokeByHash(ctx, hash); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// issue mints the token pair, persists the refresh hash and publishes a
// signed-in event.
func (s *Service) issue(ctx context.Context, u model.User) (*Session, error) {
	isAdmin := s.IsAdmin(u.Email)
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Email, isAdmin, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	s.publish(ctx, watch.Event{Kind: watch.KindSignedIn, ID: u.ID, Email: u.Email, IsAdmin: isAdmin})
	return &Session{UserID: u.ID, Email: u.Email, IsAdmin: isAdmin, Access: access, Refresh: refresh}, nil
}

func (s *Service) publish(ctx context.Context, ev watch.Event) {
	if err := s.bus.Publish(ctx, watch.SessionChannel, ev); err != nil {
		s.log.Error().Err(err).Str("kind", ev.Kind).Msg("publish session event failed")
	}
}
