package models

import "time"

// VerificationCode is a single-use OTP issued for phone sign-in.
// The code itself is stored bcrypt-hashed; only the most recently
// issued ACTIVE row per phone is eligible for consumption.
type VerificationCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"size:20;index" json:"phone"`
	CodeHash  string    `gorm:"size:72" json:"-"`
	Status    string    `gorm:"size:10;default:'ACTIVE';index" json:"status"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}
