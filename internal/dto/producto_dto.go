package dto

import "github.com/shopspring/decimal"

// ProductoResponse is the public catalog view of a producto.
type ProductoResponse struct {
	ID          string          `json:"id"`
	TiendaID    string          `json:"tienda_id"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion,omitempty"`
	SKU         *string         `json:"sku,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Activo      bool            `json:"activo"`
}

// MovimientoStockResponse is one row of GET /v1/productos/:id/movimientos.
type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	ReferenciaID  *string `json:"referencia_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type MovimientoStockFilter struct {
	Page  int `form:"page,default=1"    validate:"min=1"`
	Limit int `form:"limit,default=100" validate:"min=1,max=500"`
}
