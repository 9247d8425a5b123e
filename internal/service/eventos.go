package service

import (
	"context"

	"tiendaapi/internal/events"
	"tiendaapi/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Notificador enqueues client notifications (worker.Dispatcher in production).
type Notificador interface {
	EncolarNotificacion(ctx context.Context, payload worker.NotificacionPayload) error
}

// publicar emits a domain event after commit. Failures are logged and never
// undo the committed operation.
func publicar(ctx context.Context, pub events.Publisher, tipo, correlationID string, payload any) {
	if pub == nil {
		return
	}
	env, err := events.NewEnvelope(tipo, correlationID, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", tipo).Msg("eventos: no se pudo serializar")
		return
	}
	if err := pub.Publish(ctx, env); err != nil {
		log.Error().Err(err).Str("event_type", tipo).Str("correlation_id", correlationID).Msg("eventos: no se pudo publicar")
	}
}

func notificar(ctx context.Context, n Notificador, payload worker.NotificacionPayload) {
	if n == nil {
		return
	}
	if err := n.EncolarNotificacion(ctx, payload); err != nil {
		log.Warn().Err(err).Str("pedido_id", payload.PedidoID).Msg("notificacion: no se pudo encolar")
	}
}

// logFallo logs business rejections at warn and infrastructure failures at error.
func logFallo(err error, op string) *zerolog.Event {
	if esErrorNegocio(err) {
		return log.Warn().Err(err).Str("op", op)
	}
	return log.Error().Err(err).Str("op", op)
}
