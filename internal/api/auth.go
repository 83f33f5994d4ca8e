package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskhub/internal/models"
)

// SessionWriter is the part of the session the auth flows write to.
type SessionWriter interface {
	Token() string
	SetCredentials(ctx context.Context, token string, expiresAt time.Time) error
	SetUser(ctx context.Context, user *models.User) error
	Logout(ctx context.Context) error
}

// AuthService runs the credential flows. Each successful flow stores the
// token first, then fetches and caches the profile.
type AuthService struct {
	doer    Doer
	session SessionWriter
	logger  zerolog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(d Doer, s SessionWriter, logger zerolog.Logger) *AuthService {
	return &AuthService{doer: d, session: s, logger: logger.With().Str("component", "auth").Logger()}
}

// Login authenticates with username and password.
func (a *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	return a.authenticate(ctx, "/auth/login", models.LoginRequest{Username: username, Password: password})
}

// GoogleLogin authenticates with a Google OAuth credential.
func (a *AuthService) GoogleLogin(ctx context.Context, credential string) (*models.User, error) {
	return a.authenticate(ctx, "/auth/google", models.GoogleLoginRequest{Credential: credential})
}

// Register creates an account and signs it in.
func (a *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	return a.authenticate(ctx, "/users/create", req)
}

// Me fetches the current user's profile.
func (a *AuthService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := get(ctx, a.doer, "/users/myInfo", nil, &user); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &user, nil
}

// Logout invalidates the token server-side and always clears local
// credentials, even when the backend call fails.
func (a *AuthService) Logout(ctx context.Context) error {
	if token := a.session.Token(); token != "" {
		if err := post(ctx, a.doer, "/auth/logout", models.LogoutRequest{Token: token}, nil); err != nil {
			a.logger.Warn().Err(err).Msg("logout call failed, clearing credentials anyway")
		}
	}
	return a.session.Logout(ctx)
}

func (a *AuthService) authenticate(ctx context.Context, path string, body any) (*models.User, error) {
	var resp models.AuthResponse
	if err := post(ctx, a.doer, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%s returned no token", path)
	}
	if err := a.session.SetCredentials(ctx, resp.Token, parseExpiry(resp.ExpiryTime)); err != nil {
		return nil, fmt.Errorf("storing credentials: %w", err)
	}

	user, err := a.Me(ctx)
	if err != nil {
		a.discardCredentials(ctx)
		return nil, err
	}
	if err := a.session.SetUser(ctx, user); err != nil {
		a.discardCredentials(ctx)
		return nil, fmt.Errorf("caching profile: %w", err)
	}
	a.logger.Info().Str("username", user.Username).Msg("signed in")
	return user, nil
}

// discardCredentials drops a token whose profile could not be loaded.
func (a *AuthService) discardCredentials(ctx context.Context) {
	if err := a.session.Logout(ctx); err != nil {
		a.logger.Error().Err(err).Msg("failed to clear credentials after sign-in failure")
	}
}

// parseExpiry accepts RFC 3339 or epoch milliseconds. Anything else is
// unknown and returns the zero time.
func parseExpiry(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	return time.Time{}
}
