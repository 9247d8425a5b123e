package worker

// notificacion_worker.go
// Emails the client when a pedido is created (with a PDF receipt) and when its
// state changes. SMTP calls go through a circuit breaker.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tiendaapi/internal/infra"
	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	NotificacionPedidoCreado = "pedido_creado"
	NotificacionPedidoEstado = "pedido_estado"
)

// NotificacionPayload is the job payload sent to QueueNotificaciones.
type NotificacionPayload struct {
	PedidoID string `json:"pedido_id"`
	Tipo     string `json:"tipo"`
	Estado   string `json:"estado,omitempty"`
}

// Mailer is the outgoing mail transport (infra.Mailer).
type Mailer interface {
	Configurado() bool
	Send(to, subject, body, attachmentPath string) error
}

// PedidoLector loads a pedido with its lines and products.
type PedidoLector interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
}

// TiendaLector resolves the tienda name printed on receipts.
type TiendaLector interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tienda, error)
}

type NotificacionWorker struct {
	pedidos        PedidoLector
	tiendas        TiendaLector
	mailer         Mailer
	cb             *infra.CircuitBreaker
	pdfStoragePath string
}

func NewNotificacionWorker(pedidos PedidoLector, tiendas TiendaLector, mailer Mailer, cb *infra.CircuitBreaker, pdfStoragePath string) *NotificacionWorker {
	return &NotificacionWorker{
		pedidos:        pedidos,
		tiendas:        tiendas,
		mailer:         mailer,
		cb:             cb,
		pdfStoragePath: pdfStoragePath,
	}
}

func (w *NotificacionWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload NotificacionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: payload invalido: %v", errPermanente, err)
	}
	if !w.mailer.Configurado() {
		log.Debug().Str("pedido_id", payload.PedidoID).Msg("notificacion: SMTP no configurado, se descarta")
		return nil
	}
	pedidoID, err := uuid.Parse(payload.PedidoID)
	if err != nil {
		return fmt.Errorf("%w: pedido_id invalido", errPermanente)
	}

	pedido, err := w.pedidos.FindByID(ctx, pedidoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: pedido %s no existe", errPermanente, pedidoID)
		}
		return err
	}
	if pedido.ClienteEmail == "" {
		log.Warn().Str("pedido_id", payload.PedidoID).Msg("notificacion: pedido sin email, se omite")
		return nil
	}

	tiendaNombre := "Tienda"
	if t, err := w.tiendas.FindByID(ctx, pedido.TiendaID); err == nil {
		tiendaNombre = t.Nombre
	}

	var subject, body, adjunto string
	switch payload.Tipo {
	case NotificacionPedidoCreado:
		subject = fmt.Sprintf("%s: recibimos tu pedido", tiendaNombre)
		body = fmt.Sprintf("Hola %s,\n\nTu pedido %s por $%s fue registrado y está %s.\nAdjuntamos el comprobante.\n",
			pedido.ClienteNombre, pedido.ID, pedido.Total.StringFixed(2), pedido.Estado)
		adjunto, err = infra.GenerarComprobantePedido(pedido, tiendaNombre, w.pdfStoragePath)
		if err != nil {
			// the email still goes out without the receipt
			log.Error().Err(err).Str("pedido_id", payload.PedidoID).Msg("notificacion: no se pudo generar el PDF")
			adjunto = ""
		}
	case NotificacionPedidoEstado:
		subject = fmt.Sprintf("%s: tu pedido ahora está %s", tiendaNombre, payload.Estado)
		body = fmt.Sprintf("Hola %s,\n\nTu pedido %s cambió de estado a %s.\n",
			pedido.ClienteNombre, pedido.ID, payload.Estado)
	default:
		return fmt.Errorf("%w: tipo de notificacion %q", errPermanente, payload.Tipo)
	}

	err = w.cb.Execute(func() error {
		return w.mailer.Send(pedido.ClienteEmail, subject, body, adjunto)
	})
	if err != nil {
		return fmt.Errorf("notificacion: enviar email: %w", err)
	}
	log.Info().Str("pedido_id", payload.PedidoID).Str("tipo", payload.Tipo).Msg("notificacion enviada")
	return nil
}
