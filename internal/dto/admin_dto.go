package dto

import "gorm.io/datatypes"

// Catalog management payloads used by the admin endpoints.

type ProductRequest struct {
	BrandID       uint           `json:"brand_id"`
	CategoryID    uint           `json:"category_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Photo         *string        `json:"photo"`
	PurchasePrice float64        `json:"purchase_price"`
	RetailPrice   float64        `json:"retail_price"`
	CurrentPrice  float64        `json:"current_price"`
	Attributes    datatypes.JSON `json:"attributes"`
	Status        string         `json:"status"`
}

type BrandRequest struct {
	Name   string  `json:"name"`
	Photo  *string `json:"photo"`
	Status string  `json:"status"`
}

type CategoryRequest struct {
	Name   string  `json:"name"`
	Photo  *string `json:"photo"`
	Status string  `json:"status"`
}

type PostcodeRequest struct {
	Code     string `json:"code"`
	City     string `json:"city"`
	District string `json:"district"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Status   string `json:"status"`
}
