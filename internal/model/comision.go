package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ComisionPlatformFee = "PlatformFee"
	ComisionReferral    = "Referral"
	ComisionDeliveryFee = "DeliveryFee"
	ComisionVenta       = "Venta"
)

// Comision records a cut of an order total assigned to a recipient user.
// At most one PlatformFee row exists per pedido (partial unique index).
type Comision struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID         *uuid.UUID      `gorm:"type:uuid;index"`
	UsuarioDestinoID uuid.UUID       `gorm:"type:uuid;not null"`
	UsuarioOrigenID  *uuid.UUID      `gorm:"type:uuid"`
	Tipo             string          `gorm:"type:varchar(20);not null"`
	Monto            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt        time.Time
}

func (Comision) TableName() string { return "comisiones" }
