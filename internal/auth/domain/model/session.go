package model

import "time"

// Session represents a user session. The token is the opaque bearer secret
// issued by the identity exchange; it is matched by equality, never parsed.
// A user may hold any number of concurrent sessions.
type Session struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	UserID       string    `json:"user_id" bson:"user_id"`
	SessionToken string    `json:"session_token" bson:"session_token"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Expired reports whether the session's expiry has passed at the given
// instant. Expiry is enforced on every resolve; there is no background sweep.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
