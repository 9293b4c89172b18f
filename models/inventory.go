package models

import (
	"github.com/shopspring/decimal"
)

// RawInventory tracks raw material stock for production (BOM). Bulk-synced
// on every full sweep; no sync columns, never queued.
type RawInventory struct {
	ID          uint            `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Unit        string          `gorm:"size:30" json:"unit"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,4);default:0" json:"quantity"`
	AlertQty    decimal.Decimal `gorm:"type:decimal(15,4);default:0" json:"alert_qty"`
	CostPerUnit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_per_unit"`
	UpdatedAt   string          `gorm:"size:30" json:"updated_at"`
}

// FinishedInventory tracks finished-goods stock per product. Bulk-synced only.
type FinishedInventory struct {
	ID        uint            `gorm:"primary_key" json:"id"`
	ProductId uint            `gorm:"index;not null" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(15,4);default:0" json:"quantity"`
	AlertQty  decimal.Decimal `gorm:"type:decimal(15,4);default:0" json:"alert_qty"`
	UpdatedAt string          `gorm:"size:30" json:"updated_at"`
}
