package auth

import (
	"fmt"

	authhttp "taskflow/internal/auth/adapter/http"
	"taskflow/internal/auth/adapter/identity"
	"taskflow/internal/auth/adapter/persistence/mongodb"
	"taskflow/internal/auth/config"
	"taskflow/internal/auth/domain/repository"
	"taskflow/internal/auth/usecase"
	"taskflow/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthModule represents the complete session-authentication module
type AuthModule struct {
	repository repository.AuthRepository
	identity   repository.IdentityClient
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	config     *config.Config
	log        logger.Logger
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(db *mongo.Database, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	authRepo, err := mongodb.NewMongoAuthRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth repository: %w", err)
	}

	identityClient := identity.NewClient(cfg.IdentityProviderURL, cfg.IdentityTimeout, log)

	authUsecase := usecase.NewAuthUsecase(authRepo, identityClient, cfg, log)

	handler := authhttp.NewAuthHTTPHandler(
		authUsecase,
		log,
		cfg.CookieName,
		cfg.CookiePath,
		cfg.CookieDomain,
		int(cfg.SessionTTL.Seconds()),
		cfg.CookieSecure,
		cfg.CookieHTTPOnly,
		cfg.CookieSameSite,
	)

	return &AuthModule{
		repository: authRepo,
		identity:   identityClient,
		usecase:    authUsecase,
		handler:    handler,
		config:     cfg,
		log:        log,
	}, nil
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	middleware := am.GetMiddleware()
	am.handler.SetupAuthRoutesWithMiddleware(router, middleware)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return authhttp.NewAuthMiddleware(am.usecase, am.config.CookieName, am.log)
}

// Stop performs cleanup when the module is shut down
func (am *AuthModule) Stop() error {
	return nil
}
