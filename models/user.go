package models

import (
	"time"
)

// User is an operator of the back office.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Username       string    `gorm:"size:255;not null;unique" json:"username"`
	Nome           string    `gorm:"size:255" json:"nome"`
	HashedPassword []byte    `gorm:"not null" json:"-"`
	RoleID         *uint     `gorm:"index" json:"role_id"`
	Role           Role      `gorm:"foreignKey:RoleID;references:ID" json:"role"`
	Modulos        []string  `gorm:"serializer:json;type:text" json:"modulos"`
	Ativo          bool      `gorm:"not null" json:"ativo"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdministrador
}

// HasModule reports whether the user may access module m. Administrators
// can access everything.
func (u *User) HasModule(m string) bool {
	if u.IsAdmin() {
		return true
	}
	for _, x := range u.Modulos {
		if x == m {
			return true
		}
	}
	return false
}
