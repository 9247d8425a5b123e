package service

import (
	"context"
	"errors"
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

type ComisionService interface {
	CalcularParaPedido(ctx context.Context, pedidoID uuid.UUID) (*dto.ComisionResultado, error)
	ListarPorPedido(ctx context.Context, pedidoID uuid.UUID) ([]dto.ComisionResponse, error)
}

type comisionService struct {
	tx            repository.TxRunner
	pedidos       repository.PedidoRepository
	tiendas       repository.TiendaRepository
	comisiones    repository.ComisionRepository
	transacciones repository.TransaccionRepository
	publisher     events.Publisher
	tasa          decimal.Decimal
	plataformaID  uuid.UUID
	moneda        string
}

// ComisionConfig carries the platform fee settings.
type ComisionConfig struct {
	Tasa         decimal.Decimal
	PlataformaID uuid.UUID
	Moneda       string
}

func NewComisionService(
	tx repository.TxRunner,
	pedidos repository.PedidoRepository,
	tiendas repository.TiendaRepository,
	comisiones repository.ComisionRepository,
	transacciones repository.TransaccionRepository,
	publisher events.Publisher,
	cfg ComisionConfig,
) ComisionService {
	if cfg.Moneda == "" {
		cfg.Moneda = "COP"
	}
	return &comisionService{
		tx:            tx,
		pedidos:       pedidos,
		tiendas:       tiendas,
		comisiones:    comisiones,
		transacciones: transacciones,
		publisher:     publisher,
		tasa:          cfg.Tasa,
		plataformaID:  cfg.PlataformaID,
		moneda:        cfg.Moneda,
	}
}

// DividirTotal splits total into the platform fee, rounded to cents, and the
// seller's net. fee + neto == total always holds.
func DividirTotal(total, tasa decimal.Decimal) (fee, neto decimal.Decimal) {
	fee = total.Mul(tasa).Round(2)
	return fee, total.Sub(fee)
}

func comisionable(e model.EstadoPedido) bool {
	return e == model.PedidoConfirmado || e == model.PedidoEntregado
}

// ── CalcularParaPedido ────────────────────────────────────────────────────────
// Runs at most once per pedido: the row lock plus the existence check cover
// sequential retries, the partial unique index covers the race.

func (s *comisionService) CalcularParaPedido(ctx context.Context, pedidoID uuid.UUID) (*dto.ComisionResultado, error) {
	pedido, err := s.pedidos.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, noEncontrado(err, "pedido", pedidoID)
	}
	if !comisionable(pedido.Estado) {
		return nil, validacion("estado", "el pedido debe estar Confirmado o Entregado, está "+string(pedido.Estado))
	}
	// The ledger only stores positive amounts, so a free pedido has no Venta to record.
	if !pedido.Total.IsPositive() {
		return nil, validacion("total", "el pedido no tiene monto a liquidar")
	}
	tienda, err := s.tiendas.FindByID(ctx, pedido.TiendaID)
	if err != nil {
		return nil, noEncontrado(err, "tienda", pedido.TiendaID)
	}

	var resultado dto.ComisionResultado
	txErr := s.tx.RunTx(ctx, func(tx *gorm.DB) error {
		p, err := s.pedidos.FindByIDForUpdateTx(tx, pedidoID)
		if err != nil {
			return noEncontrado(err, "pedido", pedidoID)
		}
		if !comisionable(p.Estado) {
			return validacion("estado", "el pedido debe estar Confirmado o Entregado, está "+string(p.Estado))
		}
		existe, err := s.comisiones.ExistePlatformFeeTx(tx, p.ID)
		if err != nil {
			return err
		}
		if existe {
			return ErrYaProcesado
		}

		fee, neto := DividirTotal(p.Total, s.tasa)
		pid := p.ID
		owner := tienda.UsuarioID

		if err := s.comisiones.CreateTx(tx, &model.Comision{
			ID:               uuid.New(),
			PedidoID:         &pid,
			UsuarioDestinoID: s.plataformaID,
			UsuarioOrigenID:  &owner,
			Tipo:             model.ComisionPlatformFee,
			Monto:            fee,
		}); err != nil {
			return err
		}

		refVenta := "Venta Pedido #" + p.ID.String()
		if err := s.transacciones.CreateTx(tx, &model.Transaccion{
			ID:         uuid.New(),
			UsuarioID:  owner,
			PedidoID:   &pid,
			Tipo:       model.TransaccionVenta,
			Monto:      p.Total,
			Moneda:     s.moneda,
			Referencia: &refVenta,
			Estado:     model.TransaccionCompletada,
		}); err != nil {
			return err
		}

		// monto > 0 is enforced by the ledger; a zero fee leaves no deduction.
		if fee.IsPositive() {
			refComision := "Comisión Pedido #" + p.ID.String()
			if err := s.transacciones.CreateTx(tx, &model.Transaccion{
				ID:         uuid.New(),
				UsuarioID:  owner,
				PedidoID:   &pid,
				Tipo:       model.TransaccionComision,
				Monto:      fee,
				Moneda:     s.moneda,
				Referencia: &refComision,
				Estado:     model.TransaccionCompletada,
			}); err != nil {
				return err
			}
		}

		resultado = dto.ComisionResultado{
			PedidoID:      p.ID.String(),
			Total:         p.Total,
			MontoComision: fee,
			MontoVendedor: neto,
		}
		return nil
	})
	if txErr != nil {
		if repository.EsViolacionUnica(txErr, repository.IndiceComisionPlatformFee) {
			txErr = ErrYaProcesado
		}
		if errors.Is(txErr, ErrYaProcesado) {
			log.Info().Str("pedido_id", pedidoID.String()).Msg("comision: ya calculada")
			return nil, txErr
		}
		logFallo(txErr, "calcular_comision").Str("pedido_id", pedidoID.String()).Msg("comision rechazada")
		return nil, txErr
	}

	log.Info().Str("pedido_id", pedidoID.String()).Str("total", resultado.Total.StringFixed(2)).
		Str("comision", resultado.MontoComision.StringFixed(2)).Msg("comision calculada")
	publicar(ctx, s.publisher, events.EventComisionCalculada, pedidoID.String(), events.ComisionCalculadaPayload{
		PedidoID:      resultado.PedidoID,
		TiendaID:      pedido.TiendaID.String(),
		Total:         resultado.Total,
		MontoComision: resultado.MontoComision,
		MontoVendedor: resultado.MontoVendedor,
	})
	return &resultado, nil
}

func (s *comisionService) ListarPorPedido(ctx context.Context, pedidoID uuid.UUID) ([]dto.ComisionResponse, error) {
	if _, err := s.pedidos.FindByID(ctx, pedidoID); err != nil {
		return nil, noEncontrado(err, "pedido", pedidoID)
	}
	comisiones, err := s.comisiones.ListByPedido(ctx, pedidoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ComisionResponse, 0, len(comisiones))
	for _, c := range comisiones {
		r := dto.ComisionResponse{
			ID:               c.ID.String(),
			UsuarioDestinoID: c.UsuarioDestinoID.String(),
			Tipo:             c.Tipo,
			Monto:            c.Monto,
			CreatedAt:        c.CreatedAt.Format(time.RFC3339),
		}
		if c.PedidoID != nil {
			v := c.PedidoID.String()
			r.PedidoID = &v
		}
		if c.UsuarioOrigenID != nil {
			v := c.UsuarioOrigenID.String()
			r.UsuarioOrigenID = &v
		}
		out = append(out, r)
	}
	return out, nil
}
