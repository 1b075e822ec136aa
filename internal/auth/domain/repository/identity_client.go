package repository

import "context"

// Identity is the verified identity tuple returned by the external exchange.
// SessionToken is the opaque bearer secret the provider minted for this
// exchange; it becomes the session token stored in the sessions collection.
type Identity struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture,omitempty"`
	SessionToken string `json:"session_token"`
}

// IdentityClient exchanges an opaque exchange id for a verified identity.
// Implementations must be bounded by a timeout and fail fast on any
// transport error or non-success response; there are no retries.
type IdentityClient interface {
	ExchangeSession(ctx context.Context, exchangeID string) (*Identity, error)
}
