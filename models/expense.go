package models

import (
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          uint            `gorm:"primary_key" json:"id"`
	ExpenseDate string          `gorm:"size:30" json:"expense_date"`
	Category    string          `gorm:"size:100" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	PaidBy      string          `gorm:"size:100" json:"paid_by"`
	SyncStatus  SyncStatus      `gorm:"size:10;default:pending;index" json:"sync_status"`
	UpdatedAt   string          `gorm:"size:30" json:"updated_at"`
	DeviceId    string          `gorm:"size:64" json:"device_id"`
}
