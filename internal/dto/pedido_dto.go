package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// PedidoFilter is bound from query string of GET /v1/tiendas/:id/pedidos.
type PedidoFilter struct {
	TiendaID string `form:"-"`
	Estado   string `form:"estado"` // empty = todos
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PedidoListResponse struct {
	Data  []PedidoResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LineaPedidoRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
	// PrecioUnitario is accepted from older clients but never trusted: the line
	// always freezes the product's current price.
	PrecioUnitario *decimal.Decimal `json:"precio_unitario,omitempty"`
}

type CrearPedidoRequest struct {
	TiendaID         string               `json:"tienda_id"         validate:"required,uuid"`
	ClienteNombre    string               `json:"cliente_nombre"    validate:"required,max=150"`
	ClienteEmail     string               `json:"cliente_email"     validate:"required,email"`
	ClienteTelefono  *string              `json:"cliente_telefono"  validate:"omitempty,max=30"`
	DireccionEntrega *string              `json:"direccion_entrega" validate:"omitempty,max=500"`
	MetodoPago       string               `json:"metodo_pago"       validate:"omitempty,oneof=Efectivo Tarjeta Transferencia"`
	Lineas           []LineaPedidoRequest `json:"lineas"            validate:"required,min=1,dive"`
	// ClaveIdempotencia lets a client retry the same POST without creating a second pedido.
	ClaveIdempotencia *string `json:"clave_idempotencia" validate:"omitempty,max=64"`
}

type ActualizarEstadoPedidoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=Pendiente Confirmado Enviado Entregado Cancelado"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineaPedidoResponse struct {
	ID             string          `json:"id"`
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto,omitempty"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type PedidoResponse struct {
	ID               string                `json:"id"`
	TiendaID         string                `json:"tienda_id"`
	ClienteNombre    string                `json:"cliente_nombre"`
	ClienteEmail     string                `json:"cliente_email"`
	ClienteTelefono  *string               `json:"cliente_telefono,omitempty"`
	DireccionEntrega *string               `json:"direccion_entrega,omitempty"`
	MetodoPago       string                `json:"metodo_pago"`
	Total            decimal.Decimal       `json:"total"`
	Estado           string                `json:"estado"`
	Lineas           []LineaPedidoResponse `json:"lineas"`
	CreatedAt        string                `json:"created_at"`
}
