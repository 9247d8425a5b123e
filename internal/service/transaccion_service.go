package service

import (
	"context"
	"time"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/events"
	"tiendaapi/internal/model"
	"tiendaapi/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransaccionService interface {
	Registrar(ctx context.Context, req dto.RegistrarTransaccionRequest) (*dto.TransaccionResponse, error)
	Saldo(ctx context.Context, usuarioID uuid.UUID) (decimal.Decimal, error)
	ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) error
	ListarPorUsuario(ctx context.Context, usuarioID uuid.UUID, filter dto.TransaccionFilter) (*dto.TransaccionListResponse, error)
}

type transaccionService struct {
	tx        repository.TxRunner
	repo      repository.TransaccionRepository
	publisher events.Publisher
	moneda    string
}

func NewTransaccionService(tx repository.TxRunner, repo repository.TransaccionRepository, publisher events.Publisher, monedaDefault string) TransaccionService {
	if monedaDefault == "" {
		monedaDefault = "COP"
	}
	return &transaccionService{tx: tx, repo: repo, publisher: publisher, moneda: monedaDefault}
}

// Registrar appends one ledger entry. A Retiro is checked against the saldo
// while the user's advisory lock is held, so two concurrent withdrawals cannot
// both pass the check.
func (s *transaccionService) Registrar(ctx context.Context, req dto.RegistrarTransaccionRequest) (*dto.TransaccionResponse, error) {
	usuarioID, err := uuid.Parse(req.UsuarioID)
	if err != nil {
		return nil, validacion("usuario_id", "UUID invalido")
	}
	if !model.TipoTransaccionValido(req.Tipo) {
		return nil, validacion("tipo", "tipo desconocido: "+req.Tipo)
	}
	if !req.Monto.IsPositive() {
		return nil, validacion("monto", "debe ser mayor a cero")
	}
	// decimal(12,2): anything finer would be rounded by postgres after the saldo check.
	if !req.Monto.Equal(req.Monto.Round(2)) {
		return nil, validacion("monto", "maximo 2 decimales")
	}
	estado := req.Estado
	if estado == "" {
		estado = model.TransaccionPendiente
	}
	if !model.EstadoTransaccionValido(estado) {
		return nil, validacion("estado", "estado desconocido: "+estado)
	}
	moneda := req.Moneda
	if moneda == "" {
		moneda = s.moneda
	}

	t := model.Transaccion{
		ID:         uuid.New(),
		UsuarioID:  usuarioID,
		Tipo:       req.Tipo,
		Monto:      req.Monto,
		Moneda:     moneda,
		Referencia: req.Referencia,
		Estado:     estado,
	}
	if req.PedidoID != nil {
		pid, err := uuid.Parse(*req.PedidoID)
		if err != nil {
			return nil, validacion("pedido_id", "UUID invalido")
		}
		t.PedidoID = &pid
	}

	txErr := s.tx.RunTx(ctx, func(tx *gorm.DB) error {
		if t.Tipo == model.TransaccionRetiro {
			if err := s.repo.BloquearUsuarioTx(tx, usuarioID); err != nil {
				return err
			}
			saldo, err := s.repo.SaldoTx(tx, usuarioID)
			if err != nil {
				return err
			}
			if saldo.LessThan(t.Monto) {
				return &SaldoInsuficienteError{Saldo: saldo, Monto: t.Monto}
			}
		}
		return s.repo.CreateTx(tx, &t)
	})
	if txErr != nil {
		logFallo(txErr, "registrar_transaccion").Str("usuario_id", usuarioID.String()).Str("tipo", t.Tipo).
			Str("monto", t.Monto.StringFixed(2)).Msg("transaccion rechazada")
		return nil, txErr
	}

	log.Info().Str("transaccion_id", t.ID.String()).Str("usuario_id", usuarioID.String()).Str("tipo", t.Tipo).
		Str("monto", t.Monto.StringFixed(2)).Msg("transaccion registrada")
	publicar(ctx, s.publisher, events.EventTransaccionRegistrada, t.ID.String(), events.TransaccionRegistradaPayload{
		TransaccionID: t.ID.String(),
		UsuarioID:     usuarioID.String(),
		Tipo:          t.Tipo,
		Monto:         t.Monto,
		Estado:        t.Estado,
	})
	return transaccionToResponse(&t), nil
}

func (s *transaccionService) Saldo(ctx context.Context, usuarioID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.Saldo(ctx, usuarioID)
}

func (s *transaccionService) ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) error {
	if !model.EstadoTransaccionValido(estado) {
		return validacion("estado", "estado desconocido: "+estado)
	}
	if err := s.repo.UpdateEstado(ctx, id, estado); err != nil {
		return noEncontrado(err, "transaccion", id)
	}
	log.Info().Str("transaccion_id", id.String()).Str("estado", estado).Msg("estado de transaccion actualizado")
	return nil
}

func (s *transaccionService) ListarPorUsuario(ctx context.Context, usuarioID uuid.UUID, filter dto.TransaccionFilter) (*dto.TransaccionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	txs, total, err := s.repo.ListByUsuario(ctx, usuarioID, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.TransaccionResponse, 0, len(txs))
	for i := range txs {
		data = append(data, *transaccionToResponse(&txs[i]))
	}
	return &dto.TransaccionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func transaccionToResponse(t *model.Transaccion) *dto.TransaccionResponse {
	r := &dto.TransaccionResponse{
		ID:         t.ID.String(),
		UsuarioID:  t.UsuarioID.String(),
		Tipo:       t.Tipo,
		Monto:      t.Monto,
		Moneda:     t.Moneda,
		Referencia: t.Referencia,
		Estado:     t.Estado,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
	if t.PedidoID != nil {
		v := t.PedidoID.String()
		r.PedidoID = &v
	}
	return r
}
