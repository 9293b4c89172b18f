package models

import (
	"github.com/shopspring/decimal"
)

type Sale struct {
	ID             uint            `gorm:"primary_key" json:"id"`
	SaleNumber     string          `gorm:"size:50;index" json:"sale_number"`
	SaleDate       string          `gorm:"size:30" json:"sale_date"`
	CustomerId     uint            `gorm:"index" json:"customer_id"`
	CustomerName   string          `gorm:"size:255" json:"customer_name"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	SaleStatus     string          `gorm:"size:20" json:"sale_status"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Items          []SaleItem      `gorm:"foreignKey:SaleId" json:"items"`
	Payments       []SalePayment   `gorm:"foreignKey:SaleId" json:"payments"`
	SyncStatus     SyncStatus      `gorm:"size:10;default:pending;index" json:"sync_status"`
	UpdatedAt      string          `gorm:"size:30" json:"updated_at"`
	DeviceId       string          `gorm:"size:64" json:"device_id"`
}

type SaleItem struct {
	ID          uint            `gorm:"primary_key" json:"id"`
	SaleId      uint            `gorm:"index;not null" json:"sale_id"`
	ProductId   uint            `gorm:"index" json:"product_id"`
	ProductName string          `gorm:"size:255" json:"product_name"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,4);default:0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Discount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
}

type SalePayment struct {
	ID     uint            `gorm:"primary_key" json:"id"`
	SaleId uint            `gorm:"index;not null" json:"sale_id"`
	Method string          `gorm:"size:30" json:"method"`
	Amount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Status string          `gorm:"size:20" json:"status"`
	PaidAt string          `gorm:"size:30" json:"paid_at"`
}
