package auth

import (
	"context"
	"strings"

	"aroma-shop/internal/model"
	"aroma-shop/internal/repository"

	"github.com/rs/zerolog"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*model.User)
	return user, ok && user != nil
}

// Authenticator resolves an Authorization header to an active user.
type Authenticator struct {
	tokens *TokenManager
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewAuthenticator creates an authenticator backed by the user repository.
func NewAuthenticator(tokens *TokenManager, users repository.UserRepository, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
		logger: logger.With().Str("component", "authenticator").Logger(),
	}
}

// Authenticate parses a "Bearer <token>" header value. A failed user lookup is returned
// as an internal error, never as an authentication failure.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*model.User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, model.ErrMissingToken
	}

	userID, err := a.tokens.Verify(token)
	if err != nil {
		a.logger.Debug().Err(err).Msg("token rejected")
		return nil, err
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		a.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load token user")
		return nil, err
	}
	if user == nil || !user.IsActive {
		a.logger.Warn().Int64("user_id", userID).Msg("token for unknown or inactive user")
		return nil, model.ErrUnknownUser
	}

	return user, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
