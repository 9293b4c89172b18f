package models

import (
	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID             uint            `gorm:"primary_key" json:"id"`
	PurchaseNumber string          `gorm:"size:50;index" json:"purchase_number"`
	PurchaseDate   string          `gorm:"size:30" json:"purchase_date"`
	SupplierName   string          `gorm:"size:255" json:"supplier_name"`
	PurchaseStatus string          `gorm:"size:20" json:"purchase_status"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Items          []PurchaseItem  `gorm:"foreignKey:PurchaseId" json:"items"`
	SyncStatus     SyncStatus      `gorm:"size:10;default:pending;index" json:"sync_status"`
	UpdatedAt      string          `gorm:"size:30" json:"updated_at"`
	DeviceId       string          `gorm:"size:64" json:"device_id"`
}

type PurchaseItem struct {
	ID         uint            `gorm:"primary_key" json:"id"`
	PurchaseId uint            `gorm:"index;not null" json:"purchase_id"`
	ProductId  uint            `gorm:"index" json:"product_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(15,4);default:0" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
}
