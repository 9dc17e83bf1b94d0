package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Profile is the application record for one Identity, keyed by the auth
// user id. At most one row exists per identity.
type Profile struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FullName    string `gorm:"column:full_name;type:text" json:"full_name"`
	Role        Role   `gorm:"column:role;type:text" json:"role"`
	Location    string `gorm:"column:location;type:text" json:"location"`
	PhoneNumber string `gorm:"column:phone_number;type:text" json:"phone_number"`
	Username    string `gorm:"column:username;type:text" json:"username"`
	AvatarURL   string `gorm:"column:avatar_url;type:text" json:"avatar_url"`

	// JSONB, schema owned by the frontend (notification prefs etc.)
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// DefaultFullName derives the initial display name for a fresh profile from
// the email local-part. "alice@example.com" becomes "alice".
func DefaultFullName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "New User"
}
