package dto

import "github.com/shopspring/decimal"

// ComisionResultado is returned by POST /v1/comisiones/calcular/:pedidoId.
type ComisionResultado struct {
	PedidoID      string          `json:"pedido_id"`
	Total         decimal.Decimal `json:"total"`
	MontoComision decimal.Decimal `json:"monto_comision"`
	MontoVendedor decimal.Decimal `json:"monto_vendedor"`
}

type ComisionResponse struct {
	ID               string          `json:"id"`
	PedidoID         *string         `json:"pedido_id,omitempty"`
	UsuarioDestinoID string          `json:"usuario_destino_id"`
	UsuarioOrigenID  *string         `json:"usuario_origen_id,omitempty"`
	Tipo             string          `json:"tipo"`
	Monto            decimal.Decimal `json:"monto"`
	CreatedAt        string          `json:"created_at"`
}
