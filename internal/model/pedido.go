package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoPedido is the order lifecycle state.
type EstadoPedido string

const (
	PedidoPendiente  EstadoPedido = "Pendiente"
	PedidoConfirmado EstadoPedido = "Confirmado"
	PedidoEnviado    EstadoPedido = "Enviado"
	PedidoEntregado  EstadoPedido = "Entregado"
	PedidoCancelado  EstadoPedido = "Cancelado"
)

// Valido reports whether e is one of the known states.
func (e EstadoPedido) Valido() bool {
	switch e {
	case PedidoPendiente, PedidoConfirmado, PedidoEnviado, PedidoEntregado, PedidoCancelado:
		return true
	}
	return false
}

// Terminal reports whether e ends the intended lifecycle. Transitions out of a
// terminal state are still allowed.
func (e EstadoPedido) Terminal() bool {
	return e == PedidoEntregado || e == PedidoCancelado
}

// Pedido is an order placed against a single tienda. Total is the sum of the
// line subtotals and is only ever rewritten by RecalcularTotal.
type Pedido struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TiendaID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClienteID         *uuid.UUID `gorm:"type:uuid;index"`
	ClienteNombre     string     `gorm:"not null"`
	ClienteEmail      string     `gorm:"not null"`
	ClienteTelefono   *string
	DireccionEntrega  *string
	MetodoPago        string          `gorm:"not null;default:'Efectivo'"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado            EstadoPedido    `gorm:"type:varchar(20);not null;default:'Pendiente'"`
	ClaveIdempotencia *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Lineas []PedidoLinea `gorm:"foreignKey:PedidoID"`
	Tienda *Tienda       `gorm:"foreignKey:TiendaID"`
}

// RecalcularTotal rewrites Total from the current lines.
func (p *Pedido) RecalcularTotal() {
	total := decimal.Zero
	for _, l := range p.Lineas {
		total = total.Add(l.Subtotal())
	}
	p.Total = total
}

// PedidoLinea freezes the product price at reservation time.
type PedidoLinea struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (PedidoLinea) TableName() string { return "pedido_lineas" }

// Subtotal = cantidad × precio_unitario.
func (l PedidoLinea) Subtotal() decimal.Decimal {
	return l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad)))
}
