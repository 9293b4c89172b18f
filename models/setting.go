package models

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Setting is the shop-wide configuration singleton. Bulk-synced only.
type Setting struct {
	ID            uint            `gorm:"primary_key" json:"id"`
	ShopName      string          `gorm:"size:255" json:"shop_name"`
	Address       string          `gorm:"type:text" json:"address"`
	Phone         string          `gorm:"size:50" json:"phone"`
	Currency      string          `gorm:"size:10" json:"currency"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"tax_rate"`
	ReceiptFooter string          `gorm:"type:text" json:"receipt_footer"`
	UpdatedAt     string          `gorm:"size:30" json:"updated_at"`
}

// License is a per-module activation record. The newest active key doubles as
// the installation's company id.
type License struct {
	ID          uint   `gorm:"primary_key" json:"id"`
	LicenseKey  string `gorm:"size:128;uniqueIndex;not null" json:"license_key"`
	ModuleName  string `gorm:"size:50" json:"module_name"`
	IsActive    *bool  `gorm:"default:true" json:"is_active"`
	ActivatedAt string `gorm:"size:30" json:"activated_at"`
	ExpiresAt   string `gorm:"size:30" json:"expires_at"`
}

// GetActiveLicenseKey returns the most recently activated active license key,
// or ("", nil) when none exists.
func GetActiveLicenseKey(ctx context.Context, db *gorm.DB) (string, error) {
	var lic License
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id DESC").
		Take(&lic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return lic.LicenseKey, nil
}
