// Package session is the explicit session context shared by the HTTP client
// adapter, the resource hooks and the chat manager. Every write to the
// credential, profile or theme goes through Session so there is exactly one
// writer path.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/pkg/tokenstore"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultLoginRoute is used when New is given an empty login route.
const DefaultLoginRoute = "/login"

// Navigator performs a full navigation to a route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route string) { f(route) }

// Session holds the bearer token, cached profile and theme.
type Session struct {
	store      tokenstore.Store
	nav        Navigator
	loginRoute string
	logger     zerolog.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	user      *models.User
	theme     string
}

// New creates an empty session. Call Restore to load persisted state.
func New(store tokenstore.Store, nav Navigator, loginRoute string, logger zerolog.Logger) *Session {
	if loginRoute == "" {
		loginRoute = DefaultLoginRoute
	}
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &Session{
		store:      store,
		nav:        nav,
		loginRoute: loginRoute,
		logger:     logger.With().Str("component", "session").Logger(),
		theme:      ThemeLight,
	}
}

// Restore loads persisted state. A token without a profile is not a session.
// A profile that fails to decode clears both keys.
func (s *Session) Restore(ctx context.Context) error {
	if tok, err := s.store.Get(ctx, tokenstore.KeyTheme); err == nil {
		s.mu.Lock()
		s.theme = normalizeTheme(tok.Value)
		s.mu.Unlock()
	}

	tok, err := s.store.Get(ctx, tokenstore.KeyToken)
	if err != nil {
		if isMissing(err) {
			return nil
		}
		return fmt.Errorf("load token: %w", err)
	}
	rawUser, err := s.store.Get(ctx, tokenstore.KeyUser)
	if err != nil {
		if isMissing(err) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser.Value), &user); err != nil {
		s.logger.Error().Err(err).Msg("cached user profile is corrupt, clearing credentials")
		return s.clear(ctx)
	}

	s.mu.Lock()
	s.token = tok.Value
	s.expiresAt = tok.ExpiresAt
	s.user = &user
	s.mu.Unlock()
	return nil
}

// SetCredentials stores a new bearer token. A zero expiresAt is replaced by the
// token's exp claim when it has one.
func (s *Session) SetCredentials(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return errors.New("empty token")
	}
	if expiresAt.IsZero() {
		expiresAt = claimsExpiry(token)
	}
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return fmt.Errorf("token already expired at %s", expiresAt.Format(time.RFC3339))
		}
	}
	if err := s.store.Set(ctx, tokenstore.KeyToken, token, ttl); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()
	return nil
}

// SetUser caches the authenticated profile.
func (s *Session) SetUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, tokenstore.KeyUser, string(data), 0); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	cp := *user
	s.mu.Lock()
	s.user = &cp
	s.mu.Unlock()
	return nil
}

// SetTheme persists the theme preference. Unknown values fall back to light.
func (s *Session) SetTheme(ctx context.Context, theme string) error {
	theme = normalizeTheme(theme)
	if err := s.store.Set(ctx, tokenstore.KeyTheme, theme, 0); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

// ToggleTheme flips between light and dark and returns the new value.
func (s *Session) ToggleTheme(ctx context.Context) (string, error) {
	next := ThemeDark
	if s.Theme() == ThemeDark {
		next = ThemeLight
	}
	return next, s.SetTheme(ctx, next)
}

// Logout clears the token and profile without navigating.
func (s *Session) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

// Expire handles a rejected credential: it clears the token and profile, then
// navigates to the login route. It runs regardless of which caller saw the 401.
func (s *Session) Expire(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear expired credentials")
	}
	s.logger.Warn().Str("route", s.loginRoute).Msg("session expired")
	s.nav.Navigate(s.loginRoute)
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.user = nil
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{tokenstore.KeyToken, tokenstore.KeyUser} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Token returns the bearer token, or "" when there is none or it has expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.expiresAt.IsZero() && time.Now().After(s.expiresAt) {
		return ""
	}
	return s.token
}

// User returns a copy of the cached profile, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// UserID returns the profile id, or 0 when there is no profile.
func (s *Session) UserID() int64 {
	if u := s.User(); u != nil {
		return u.ID
	}
	return 0
}

// Theme returns the current theme.
func (s *Session) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// ExpiresAt returns the token expiry; zero means unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Authenticated reports a live token together with a cached profile.
func (s *Session) Authenticated() bool {
	if s.Token() == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// LoginRoute is where Expire navigates.
func (s *Session) LoginRoute() string { return s.loginRoute }

func isMissing(err error) bool {
	return errors.Is(err, tokenstore.ErrTokenNotFound) || errors.Is(err, tokenstore.ErrTokenExpired)
}

func normalizeTheme(theme string) string {
	if strings.EqualFold(strings.TrimSpace(theme), ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

// claimsExpiry reads exp from an unverified token. Signature checks belong to
// the backend; the client only needs the deadline.
func claimsExpiry(token string) time.Time {
	claims, ok := parseClaims(token)
	if !ok {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func parseClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
