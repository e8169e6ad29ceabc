package model

import "time"

// User is an account registered with the identity provider.
// Sub is the provider's subject identifier.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Sub       string    `json:"sub"`
	CreatedAt time.Time `json:"createdAt"`
}
