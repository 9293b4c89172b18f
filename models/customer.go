package models

type Customer struct {
	ID         uint       `gorm:"primary_key" json:"id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Email      string     `gorm:"size:255" json:"email"`
	Phone      string     `gorm:"size:50" json:"phone"`
	Address    string     `gorm:"type:text" json:"address"`
	Notes      string     `gorm:"type:text" json:"notes"`
	SyncStatus SyncStatus `gorm:"size:10;default:pending;index" json:"sync_status"`
	UpdatedAt  string     `gorm:"size:30" json:"updated_at"`
	DeviceId   string     `gorm:"size:64" json:"device_id"`
}
