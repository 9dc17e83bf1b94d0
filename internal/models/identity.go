package models

import "time"

// Identity is the authenticated-user reference issued by the auth backend.
// The id is the auth UUID; everything else application-level lives on Profile.
type Identity struct {
	ID           string    `json:"id"` // uuid
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	LastSignInAt time.Time `json:"last_sign_in_at"`
}
