package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a catalog item owned by one tienda. Stock is only mutated through
// the conditional updates in ProductoRepository and can never go below zero.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TiendaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	SKU         *string         `gorm:"column:sku"`
	Precio      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Tienda *Tienda `gorm:"foreignKey:TiendaID"`
}
