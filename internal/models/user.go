package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleRecruiter      Role = "recruiter"
	RoleAccountManager Role = "account_manager"
	RoleBDSales        Role = "bd_sales"
	RoleFinance        Role = "finance"
	RoleClient         Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleAccountManager, RoleBDSales, RoleFinance, RoleClient:
		return true
	}
	return false
}

type User struct {
	gorm.Model

	FullName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Phone        string
	Role         Role `gorm:"type:varchar(32);not null;default:'recruiter'"`
	IsActive     bool `gorm:"not null;default:true"`
	LastLogin    *time.Time

	// ClientID is set only for users with RoleClient; it scopes the
	// client portal to their own company.
	ClientID *uint `gorm:"index"`
}

// IsAdmin is derived from the role, never stored.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
