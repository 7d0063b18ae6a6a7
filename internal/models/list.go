package models

import "time"

// HandcartItem joins a user to a product with a quantity.
type HandcartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"-"`
	ProductID uint      `gorm:"index" json:"-"`
	Quantity  int       `gorm:"default:1" json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	Product   *Product  `json:"product,omitempty"`
}

// FavoriteItem marks a product as a favorite of a user.
type FavoriteItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"-"`
	ProductID uint      `gorm:"index" json:"-"`
	Quantity  int       `gorm:"default:1" json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	Product   *Product  `json:"product,omitempty"`
}
