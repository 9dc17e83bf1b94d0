package models

import "time"

// ProviderSignupCode is a single-use, expiring invitation that grants
// provider signup eligibility. Issued administratively, consumed on signup.
type ProviderSignupCode struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"column:code;type:text;uniqueIndex" json:"code"`
	Email     string    `gorm:"column:email;type:text" json:"email"`
	ExpiresAt time.Time `gorm:"column:expires_at;type:timestamptz" json:"expires_at"`
	Used      bool      `gorm:"column:used" json:"used"`
	UsedBy    string    `gorm:"column:used_by;type:uuid" json:"used_by,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (ProviderSignupCode) TableName() string { return "provider_signup_codes" }

// Usable reports whether the code can still be redeemed at the given time.
func (c ProviderSignupCode) Usable(now time.Time) bool {
	return !c.Used && c.ExpiresAt.After(now)
}
