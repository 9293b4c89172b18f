package models

import (
	"github.com/shopspring/decimal"
)

// User is a staff account. A snapshot of all users is bulk-synced each sweep;
// users never enter the outbox.
type User struct {
	ID         uint            `gorm:"primary_key" json:"id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Username   string          `gorm:"size:100;uniqueIndex" json:"username"`
	Role       string          `gorm:"size:50" json:"role"`
	Phone      string          `gorm:"size:50" json:"phone"`
	HourlyRate decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"hourly_rate"`
	IsActive   *bool           `gorm:"default:true" json:"is_active"`
	UpdatedAt  string          `gorm:"size:30" json:"updated_at"`
}
