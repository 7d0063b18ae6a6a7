package models

import (
	"time"

	"gorm.io/gorm"
)

// Address types accepted by the address endpoints.
const (
	AddressHome   = "HOME"
	AddressOffice = "OFFICE"
	AddressOther  = "OTHER"
)

// Address belongs to one user and references a shared Postcode.
// At most one address per user carries Default=true.
type Address struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"index" json:"-"`
	PostcodeID uint           `gorm:"index" json:"-"`
	Name       string         `gorm:"size:100" json:"name"`
	CareOf     string         `gorm:"size:100" json:"care_of"`
	Phone      string         `gorm:"size:20" json:"phone"`
	Line1      string         `gorm:"column:line_1;size:255" json:"line_1"`
	Line2      string         `gorm:"column:line_2;size:255" json:"line_2"`
	Type       string         `gorm:"size:10;default:'HOME'" json:"type"`
	Default    bool           `gorm:"default:false" json:"default"`
	CreatedAt  time.Time      `json:"-"`
	UpdatedAt  time.Time      `json:"-"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Postcode   *Postcode      `json:"postcode,omitempty"`
}

// Postcode is shared reference data; many addresses point at one row.
type Postcode struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"size:10;index" json:"code"`
	City      string         `gorm:"size:100" json:"city"`
	District  string         `gorm:"size:100" json:"district"`
	State     string         `gorm:"size:100" json:"state"`
	Country   string         `gorm:"size:100" json:"country"`
	Status    string         `gorm:"size:10;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
