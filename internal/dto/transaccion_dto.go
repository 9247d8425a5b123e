package dto

import "github.com/shopspring/decimal"

// TransaccionFilter is bound from query string of GET /v1/transacciones/usuario/:usuarioId.
type TransaccionFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}

// RegistrarTransaccionRequest is the body of POST /v1/transacciones. Venta and
// Comisión entries are only written by the commission calculation.
type RegistrarTransaccionRequest struct {
	UsuarioID  string          `json:"usuario_id" validate:"required,uuid"`
	Tipo       string          `json:"tipo"       validate:"required,oneof=Recarga Retiro Reembolso"`
	Monto      decimal.Decimal `json:"monto"      validate:"required,gt=0"`
	PedidoID   *string         `json:"pedido_id"  validate:"omitempty,uuid"`
	Referencia *string         `json:"referencia" validate:"omitempty,max=255"`
	Moneda     string          `json:"moneda"     validate:"omitempty,len=3"`
	Estado     string          `json:"estado"     validate:"omitempty,oneof=Pendiente Completada"`
}

type ActualizarEstadoTransaccionRequest struct {
	Estado string `json:"estado" validate:"required,oneof=Pendiente Completada Rechazada"`
}

type TransaccionResponse struct {
	ID         string          `json:"id"`
	UsuarioID  string          `json:"usuario_id"`
	PedidoID   *string         `json:"pedido_id,omitempty"`
	Tipo       string          `json:"tipo"`
	Monto      decimal.Decimal `json:"monto"`
	Moneda     string          `json:"moneda"`
	Referencia *string         `json:"referencia,omitempty"`
	Estado     string          `json:"estado"`
	CreatedAt  string          `json:"created_at"`
}

type TransaccionListResponse struct {
	Data  []TransaccionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

type SaldoResponse struct {
	UsuarioID string          `json:"usuario_id"`
	Saldo     decimal.Decimal `json:"saldo"`
	Moneda    string          `json:"moneda"`
}
