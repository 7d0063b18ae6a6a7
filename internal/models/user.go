package models

import (
	"time"

	"gorm.io/gorm"
)

// Entity status values shared by users, codes and catalog rows.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Roles assignable to a user. Every API consumer must hold RoleCustomer.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is an account reachable through one or more sign-in channels.
// Exactly one of {email+google, phone, guest} identifies it in practice;
// linking flows may merge channels onto the same row.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      *string        `gorm:"size:255" json:"name,omitempty"`
	Email     *string        `gorm:"size:255;index" json:"email,omitempty"`
	Phone     *string        `gorm:"size:20;index" json:"phone,omitempty"`
	Guest     *int64         `gorm:"uniqueIndex" json:"guest,omitempty"`
	Photo     *string        `gorm:"size:512" json:"photo,omitempty"`
	GoogleID  *string        `gorm:"column:google;size:64" json:"-"`
	Status    string         `gorm:"size:10;default:'ACTIVE'" json:"status"`
	Role      string         `gorm:"size:20;default:'customer'" json:"-"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	return u.Role == role
}

// Trashed reports whether the account is soft-deleted.
func (u *User) Trashed() bool {
	return u.DeletedAt.Valid
}

// Snapshot returns the recoverable fields exposed alongside
// ACCOUNT_WAS_DELETED. Only non-null fields are included.
func (u *User) Snapshot() map[string]any {
	snap := map[string]any{}
	if u.Email != nil {
		snap["email"] = *u.Email
	}
	if u.Phone != nil {
		snap["phone"] = *u.Phone
	}
	if u.Photo != nil {
		snap["photo"] = *u.Photo
	}
	if u.Name != nil {
		snap["name"] = *u.Name
	}
	return snap
}
