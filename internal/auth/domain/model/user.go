package model

import "time"

// User represents an account created on first successful identity exchange.
// The ID is the stable identifier the identity provider returned, so repeated
// exchanges for the same identity always resolve to the same user. Profiles
// are immutable after creation; there is no edit path.
type User struct {
	ID        string    `json:"id" bson:"id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	Picture   *string   `json:"picture,omitempty" bson:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
