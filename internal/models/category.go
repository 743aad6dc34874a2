package models

import "time"

// Category holds the base rate the price calculator works from.
type Category struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Name             string  `gorm:"type:varchar(80);uniqueIndex;not null" json:"name"`
	BasePricePerPage float64 `gorm:"not null" json:"base_price_per_page"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
