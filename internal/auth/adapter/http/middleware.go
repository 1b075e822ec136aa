package http

import (
	"strings"
	"time"

	"taskflow/internal/auth/domain/model"
	"taskflow/internal/auth/usecase"
	"taskflow/internal/shared/contextkeys"
	"taskflow/internal/shared/logger"
	"taskflow/internal/shared/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// currentUserLocal is the fiber.Ctx locals key holding the resolved user.
const currentUserLocal = "currentUser"

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase    usecase.AuthUsecaseInterface
	cookieName string
	log        logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, cookieName string, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		usecase:    uc,
		cookieName: cookieName,
		log:        log.WithComponent("auth_middleware"),
	}
}

// RateLimiter creates rate limiting middleware for the session-creation endpoint
func (m *AuthMiddleware) RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Get("X-Forwarded-For", c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

// RequestID middleware
func (m *AuthMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     "X-Request-ID",
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// Protect returns middleware that requires a resolvable session. The reason a
// resolve failed (no token, unknown token, expired, orphaned session) is
// logged but never surfaced to the client; every failure is the same 401.
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := m.ExtractToken(c)

		user, err := m.usecase.ResolveSession(c.Context(), token)
		if err != nil {
			m.log.Debugf("Authentication rejected for %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		ctx := c.UserContext()
		ctx = utils.WithUserID(ctx, user.ID)
		ctx = utils.WithUserEmail(ctx, user.Email)
		c.SetUserContext(ctx)
		c.Locals(currentUserLocal, user)

		return c.Next()
	}
}

// ExtractToken extracts the session token from the request. The cookie takes
// precedence when both cookie and Authorization header are present. The query
// parameter is honored only on websocket upgrades, where browser clients
// cannot set headers on the handshake; regular requests never read it, so
// tokens stay out of access logs.
func (m *AuthMiddleware) ExtractToken(c *fiber.Ctx) string {
	if token := c.Cookies(m.cookieName); token != "" {
		return token
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimPrefix(authHeader, "Bearer "); token != "" {
			return token
		}
	}

	if websocket.IsWebSocketUpgrade(c) {
		return c.Query("token")
	}

	return ""
}

// CurrentUser returns the user resolved by Protect, if any.
func CurrentUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(currentUserLocal).(*model.User)
	return user, ok
}
