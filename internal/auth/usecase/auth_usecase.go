package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/auth/config"
	"taskflow/internal/auth/domain/model"
	"taskflow/internal/auth/domain/repository"
	apperrors "taskflow/internal/shared/errors"
	"taskflow/internal/shared/logger"
)

// AuthUsecaseInterface defines the contract for the session-authentication core.
type AuthUsecaseInterface interface {
	// ResolveSession resolves a presented token to a live user. It fails with
	// ErrNoToken, ErrSessionNotFound, ErrSessionExpired or ErrUserNotFound,
	// all of which the HTTP boundary collapses to 401.
	ResolveSession(ctx context.Context, token string) (*model.User, error)
	// CreateSession exchanges an opaque exchange id for a verified identity,
	// finds or creates the user, and always mints a brand-new session.
	CreateSession(ctx context.Context, exchangeID string) (*SessionResponse, error)
	// Logout deletes the session matching the token; idempotent.
	Logout(ctx context.Context, token string) error
}

// SessionResponse is returned by CreateSession; the caller delivers the token
// to the client as both cookie and body.
type SessionResponse struct {
	User         *model.User `json:"user"`
	SessionToken string      `json:"session_token"`
}

// AuthUsecase implements the session-authentication logic.
type AuthUsecase struct {
	repo     repository.AuthRepository
	identity repository.IdentityClient
	config   *config.Config
	log      logger.Logger
	now      func() time.Time
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	repo repository.AuthRepository,
	identity repository.IdentityClient,
	cfg *config.Config,
	log logger.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		repo:     repo,
		identity: identity,
		config:   cfg,
		log:      log.WithComponent("auth_usecase"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Used by tests to pin expiry checks.
func (uc *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	uc.now = now
	return uc
}

// ResolveSession validates the token against the store on every call. No
// caching: a revoked or expired session is rejected immediately, with no
// propagation delay.
func (uc *AuthUsecase) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.ErrNoToken
	}

	session, err := uc.repo.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			uc.log.WithContext(ctx).Debug("Session token not found")
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if session.Expired(uc.now()) {
		uc.log.WithContext(ctx).Debugf("Session expired at %s", session.ExpiresAt.Format(time.RFC3339))
		return nil, apperrors.ErrSessionExpired
	}

	user, err := uc.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Orphaned session: the referenced user is gone, so every other
			// session of that user is equally dead. Reap them all; best
			// effort, the resolve is rejected either way.
			uc.log.WithContext(ctx).Warnf("Session %s references missing user %s", session.ID, session.UserID)
			if reapErr := uc.repo.DeleteUserSessions(ctx, session.UserID); reapErr != nil {
				uc.log.WithContext(ctx).Warnf("Failed to reap sessions of missing user %s: %v", session.UserID, reapErr)
			}
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return user, nil
}

// CreateSession performs the identity exchange and session creation sub-flow.
// A brand-new session row is created on every successful exchange, whether or
// not the user already existed; concurrent sessions per user are allowed.
func (uc *AuthUsecase) CreateSession(ctx context.Context, exchangeID string) (*SessionResponse, error) {
	ident, err := uc.identity.ExchangeSession(ctx, exchangeID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(ident.Email))

	user, err := uc.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing user: reuse the record, ignore the rest of the exchange
		// payload.
	case errors.Is(err, apperrors.ErrUserNotFound):
		// First exchange for this email. The provider id becomes the user id
		// so repeated exchanges for the same identity resolve to the same
		// user.
		user = &model.User{
			ID:        ident.ID,
			Email:     email,
			Name:      ident.Name,
			CreatedAt: uc.now(),
		}
		if ident.Picture != "" {
			picture := ident.Picture
			user.Picture = &picture
		}
		if err := uc.repo.CreateUser(ctx, user); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				// Lost a race with a concurrent first exchange for the same
				// email; the winner's record is authoritative.
				user, err = uc.repo.GetUserByEmail(ctx, email)
				if err != nil {
					return nil, fmt.Errorf("failed to load user after create race: %w", err)
				}
			} else {
				return nil, fmt.Errorf("failed to create user: %w", err)
			}
		} else {
			uc.log.Infof("Created user %s for email %s", user.ID, email)
		}
	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	session := &model.Session{
		UserID:       user.ID,
		SessionToken: ident.SessionToken,
		ExpiresAt:    uc.now().Add(uc.config.SessionTTL),
		CreatedAt:    uc.now(),
	}
	if err := uc.repo.CreateSession(ctx, session); err != nil {
		// No compensating rollback for a just-created user; an accepted gap.
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SessionResponse{
		User:         user,
		SessionToken: session.SessionToken,
	}, nil
}

// Logout deletes the session row matching the token if present. Deleting zero
// or one row are both success; a missing token is a no-op.
func (uc *AuthUsecase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := uc.repo.DeleteSessionByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
