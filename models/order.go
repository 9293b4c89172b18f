package models

import (
	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uint            `gorm:"primary_key" json:"id"`
	OrderNumber  string          `gorm:"size:50;index" json:"order_number"`
	OrderDate    string          `gorm:"size:30" json:"order_date"`
	CustomerId   uint            `gorm:"index" json:"customer_id"`
	CustomerName string          `gorm:"size:255" json:"customer_name"`
	OrderStatus  string          `gorm:"size:20" json:"order_status"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	DueDate      string          `gorm:"size:30" json:"due_date"`
	Notes        string          `gorm:"type:text" json:"notes"`
	SyncStatus   SyncStatus      `gorm:"size:10;default:pending;index" json:"sync_status"`
	UpdatedAt    string          `gorm:"size:30" json:"updated_at"`
	DeviceId     string          `gorm:"size:64" json:"device_id"`
}
