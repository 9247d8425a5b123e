package model

import (
	"time"

	"github.com/google/uuid"
)

// Tienda is the multi-tenant unit. UsuarioID is the owner whose ledger receives
// sale income and commission deductions.
type Tienda struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre    string    `gorm:"not null"`
	Activa    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
