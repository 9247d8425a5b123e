package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MovimientoReservaPedido       = "reserva_pedido"
	MovimientoLiberacionCancelado = "liberacion_cancelacion"
)

// MovimientoStock registra cada reserva o liberación de stock hecha por un pedido.
type MovimientoStock struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Tipo          string     `gorm:"not null"`
	Cantidad      int        `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int        `gorm:"not null"`
	StockNuevo    int        `gorm:"not null"`
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // pedido_id
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
