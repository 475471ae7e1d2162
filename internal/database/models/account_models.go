package models

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleKitchen Role = "kitchen"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleKitchen, RoleStaff:
		return true
	}
	return false
}

type Account struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Username string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(16);not null;index" json:"role"`
	FullName string `gorm:"type:varchar(128)" json:"fullName"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
