package models

import "time"

// Role names seeded at startup.
const (
	RoleAdministrador = "administrador"
	RoleGerente       = "gerente"
	RoleOperador      = "operador"
)

// Role is a master table of user roles.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	Name        string    `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
}

// DefaultRoles is the seed set of roles.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleAdministrador, Description: "acesso total, gerencia usuarios"},
		{Name: RoleGerente, Description: "opera todos os modulos liberados"},
		{Name: RoleOperador, Description: "pesagem e cadastro"},
	}
}
