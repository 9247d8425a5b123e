// Package events defines the domain events emitted after a unit of work
// commits and the publishers that ship them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventPedidoCreado            = "PedidoCreado"
	EventPedidoEstadoActualizado = "PedidoEstadoActualizado"
	EventComisionCalculada       = "ComisionCalculada"
	EventTransaccionRegistrada   = "TransaccionRegistrada"
)

const producer = "tiendas-api"

// Envelope is the wire format of every event. CorrelationID is the aggregate id
// (pedido or transaccion) and doubles as the Kafka message key.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload for publishing.
func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// Publisher ships envelopes. Publish must not block on broker I/O for longer
// than the caller's context allows; delivery is at-most-once.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured and in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Envelope) error { return nil }
func (NoopPublisher) Close() error                            { return nil }

// ---- Payloads ----

type LineaPayload struct {
	ProductoID     string          `json:"producto_id"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

type PedidoCreadoPayload struct {
	PedidoID string          `json:"pedido_id"`
	TiendaID string          `json:"tienda_id"`
	Total    decimal.Decimal `json:"total"`
	Lineas   []LineaPayload  `json:"lineas"`
}

type PedidoEstadoPayload struct {
	PedidoID       string `json:"pedido_id"`
	EstadoAnterior string `json:"estado_anterior"`
	EstadoNuevo    string `json:"estado_nuevo"`
	StockLiberado  bool   `json:"stock_liberado"`
}

type ComisionCalculadaPayload struct {
	PedidoID      string          `json:"pedido_id"`
	TiendaID      string          `json:"tienda_id"`
	Total         decimal.Decimal `json:"total"`
	MontoComision decimal.Decimal `json:"monto_comision"`
	MontoVendedor decimal.Decimal `json:"monto_vendedor"`
}

type TransaccionRegistradaPayload struct {
	TransaccionID string          `json:"transaccion_id"`
	UsuarioID     string          `json:"usuario_id"`
	Tipo          string          `json:"tipo"`
	Monto         decimal.Decimal `json:"monto"`
	Estado        string          `json:"estado"`
}
