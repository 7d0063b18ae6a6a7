package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Brand groups products under a manufacturer label.
type Brand struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255;index" json:"name"`
	Photo     *string        `gorm:"size:512" json:"photo,omitempty"`
	Status    string         `gorm:"size:10;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Category groups products by kind.
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255;index" json:"name"`
	Photo     *string        `gorm:"size:512" json:"photo,omitempty"`
	Status    string         `gorm:"size:10;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product carries the price triple. PurchasePrice is the internal cost
// and never leaves the service.
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	BrandID       uint           `gorm:"index" json:"-"`
	CategoryID    uint           `gorm:"index" json:"-"`
	Name          string         `gorm:"size:255;index" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Photo         *string        `gorm:"size:512" json:"photo,omitempty"`
	PurchasePrice float64        `json:"-"`
	RetailPrice   float64        `json:"retail_price"`
	CurrentPrice  float64        `json:"current_price"`
	Attributes    datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"attributes,omitempty"`
	Status        string         `gorm:"size:10;default:'ACTIVE';index" json:"status"`
	CreatedAt     time.Time      `json:"-"`
	UpdatedAt     time.Time      `json:"-"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Brand         *Brand         `json:"brand,omitempty"`
	Category      *Category      `json:"category,omitempty"`
}
