package http

import (
	"errors"
	"time"

	"taskflow/internal/auth/usecase"
	apperrors "taskflow/internal/shared/errors"
	"taskflow/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase        usecase.AuthUsecaseInterface
	log            logger.Logger
	cookieName     string
	cookiePath     string
	cookieDomain   string
	cookieMaxAge   int
	cookieSecure   bool
	cookieHTTPOnly bool
	cookieSameSite string
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(
	uc usecase.AuthUsecaseInterface,
	log logger.Logger,
	cookieName, cookiePath, cookieDomain string,
	cookieMaxAge int,
	cookieSecure, cookieHTTPOnly bool,
	cookieSameSite string,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		usecase:        uc,
		log:            log.WithComponent("auth_http"),
		cookieName:     cookieName,
		cookiePath:     cookiePath,
		cookieDomain:   cookieDomain,
		cookieMaxAge:   cookieMaxAge,
		cookieSecure:   cookieSecure,
		cookieHTTPOnly: cookieHTTPOnly,
		cookieSameSite: cookieSameSite,
	}
}

// SetupAuthRoutesWithMiddleware sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware) {
	router.Use(middleware.RequestID())

	// Public routes. Logout takes an optional token, so it is not protected.
	router.Post("/session", middleware.RateLimiter(), h.CreateSession)
	router.Post("/logout", h.Logout)

	// Protected routes
	protected := router.Group("/", middleware.Protect())
	protected.Get("/me", h.GetCurrentUser)
}

// CreateSession handles the identity exchange: the opaque exchange id arrives
// in the X-Session-ID header, and the minted session token is delivered both
// as a cookie and in the response body.
func (h *AuthHTTPHandler) CreateSession(c *fiber.Ctx) error {
	exchangeID := c.Get("X-Session-ID")
	if exchangeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": apperrors.ErrMissingSessionID.Error(),
		})
	}

	response, err := h.usecase.CreateSession(c.Context(), exchangeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrExchangeFailed) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to get session data: " + err.Error(),
			})
		}
		h.log.Errorf("Session creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}

	h.setCookie(c, response.SessionToken)

	return c.JSON(response)
}

// GetCurrentUser returns the user resolved from the presented token
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}
	return c.JSON(user)
}

// Logout deletes the presented session, if any, and clears the cookie.
// Idempotent: logging out without a live session still succeeds.
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(h.cookieName)
	if token == "" {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if err := h.usecase.Logout(c.Context(), token); err != nil {
		h.log.Errorf("Logout failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}

	h.clearCookie(c)

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Helper methods

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     h.cookiePath,
		Domain:   h.cookieDomain,
		MaxAge:   h.cookieMaxAge,
		Secure:   h.cookieSecure,
		HTTPOnly: h.cookieHTTPOnly,
		SameSite: h.cookieSameSite,
		Expires:  time.Now().Add(time.Duration(h.cookieMaxAge) * time.Second),
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     h.cookiePath,
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		Secure:   h.cookieSecure,
		HTTPOnly: h.cookieHTTPOnly,
		SameSite: h.cookieSameSite,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
