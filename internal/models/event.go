package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthEvent kinds recorded in the audit log.
const (
	EventSignedIn           = "signed_in"
	EventSignedOut          = "signed_out"
	EventProfileProvisioned = "profile_provisioned"
	EventCodeValidated      = "code_validated"
	EventAccessDenied       = "access_denied"
)

// AuthEvent is one append-only audit record for the auth/provisioning flow.
type AuthEvent struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Kind   string             `bson:"kind" json:"kind"`
	Detail string             `bson:"detail,omitempty" json:"detail,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
