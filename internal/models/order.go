package models

import "time"

// Order is a placed purchase. Prices are frozen per line in OrderDetail
// so later catalog changes never affect past orders.
type Order struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"index" json:"-"`
	Status    string        `gorm:"size:10;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`
	Details   []OrderDetail `gorm:"foreignKey:OrderID" json:"detail,omitempty"`
}

// OrderDetail is one product line of an order with its price pair frozen
// at purchase time.
type OrderDetail struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"index" json:"-"`
	ProductID   uint      `gorm:"index" json:"-"`
	Quantity    int       `gorm:"default:1" json:"quantity"`
	RetailPrice float64   `json:"retail_price"`
	DealPrice   float64   `json:"deal_price"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	Product     *Product  `json:"product,omitempty"`
}
