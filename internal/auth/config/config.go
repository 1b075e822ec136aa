package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the auth module.
type Config struct {
	// MongoDB Configuration
	MongoDBURI   string `env:"MONGODB_URI,required"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"taskflow_db"`

	// Identity exchange provider
	IdentityProviderURL string        `env:"IDENTITY_PROVIDER_URL" envDefault:"https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"`
	IdentityTimeout     time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`

	// Session Configuration
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"` // 7 days

	// Cookie Configuration. The session cookie has to survive cross-site
	// requests from the hosted frontend, hence SameSite=None + Secure.
	CookieName     string `env:"COOKIE_NAME" envDefault:"session_token"`
	CookiePath     string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	CookieHTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"None"` // "Lax", "Strict", "None"

	// CORS
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error() +
			". Please ensure all required environment variables are set.")
	}

	if cfg.MongoDBURI == "" {
		return nil, errors.New("mongodb_uri is required")
	}
	if cfg.IdentityProviderURL == "" {
		return nil, errors.New("identity_provider_url is required")
	}
	if cfg.IdentityTimeout <= 0 {
		cfg.IdentityTimeout = 10 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 168 * time.Hour
	}

	// Normalize and validate CookieSameSite
	switch strings.ToLower(cfg.CookieSameSite) {
	case "lax":
		cfg.CookieSameSite = "Lax"
	case "strict":
		cfg.CookieSameSite = "Strict"
	case "none":
		cfg.CookieSameSite = "None"
	default:
		return nil, errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "session_token"
	}

	return cfg, nil
}
