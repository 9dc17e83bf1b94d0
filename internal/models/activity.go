package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Activity is a bookable listing published by a provider.
type Activity struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProviderID string `gorm:"column:provider_id;type:uuid;index" json:"provider_id"`
	Title      string `gorm:"column:title;type:text" json:"title"`
	Details    string `gorm:"column:details;type:text" json:"details"`
	Location   string `gorm:"column:location;type:text" json:"location"`
	PriceCents int64  `gorm:"column:price_cents" json:"price_cents"`
	AgeMin     int    `gorm:"column:age_min" json:"age_min"`
	AgeMax     int    `gorm:"column:age_max" json:"age_max"`
	Published  bool   `gorm:"column:published" json:"published"`

	Categories pq.StringArray `gorm:"column:categories;type:text[]" json:"categories"`

	// weekly schedule slots, structure owned by the frontend
	Schedule datatypes.JSON `gorm:"column:schedule;type:jsonb" json:"schedule,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Activity) TableName() string { return "activities" }
