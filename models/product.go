package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Sku           string          `gorm:"size:100;index" json:"sku"`
	Barcode       string          `gorm:"size:100;index" json:"barcode"`
	Category      string          `gorm:"size:100" json:"category"`
	Unit          string          `gorm:"size:30" json:"unit"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	IsActive      *bool           `gorm:"default:true" json:"is_active"`
	SyncStatus    SyncStatus      `gorm:"size:10;default:pending;index" json:"sync_status"`
	UpdatedAt     string          `gorm:"size:30" json:"updated_at"`
	DeviceId      string          `gorm:"size:64" json:"device_id"`
}
