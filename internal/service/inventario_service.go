package service

import (
	"context"
	"time"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/model"
	"tiendaapi/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReservaStock is the price snapshot taken when units are reserved.
type ReservaStock struct {
	ProductoID     uuid.UUID
	TiendaID       uuid.UUID
	Nombre         string
	PrecioUnitario decimal.Decimal
	StockRestante  int
}

// InventarioService owns per-product stock. Reservar and Liberar only run
// inside a caller's unit of work.
type InventarioService interface {
	Reservar(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, referenciaID uuid.UUID) (*ReservaStock, error)
	Liberar(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, referenciaID uuid.UUID) error
	ListarMovimientos(ctx context.Context, productoID uuid.UUID, filter dto.MovimientoStockFilter) ([]dto.MovimientoStockResponse, int64, error)
}

type inventarioService struct {
	repo        repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
}

func NewInventarioService(repo repository.ProductoRepository, movimientos repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{repo: repo, movimientos: movimientos}
}

// Reservar decrements stock with a single conditional UPDATE, so two
// concurrent reservations can never both pass a stale stock check. When the
// update matches no row the product is re-read only to explain why.
func (s *inventarioService) Reservar(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, referenciaID uuid.UUID) (*ReservaStock, error) {
	if cantidad <= 0 {
		return nil, validacion("cantidad", "debe ser mayor a cero")
	}

	ok, err := s.repo.DescontarStockTx(tx, productoID, cantidad)
	if err != nil {
		return nil, err
	}
	if !ok {
		p, err := s.repo.FindByIDTx(tx, productoID)
		if err != nil {
			return nil, noEncontrado(err, "producto", productoID)
		}
		if !p.Activo {
			return nil, validacion("producto_id", "el producto "+p.Nombre+" está inactivo")
		}
		log.Debug().Str("producto_id", productoID.String()).Int("disponible", p.Stock).Int("solicitado", cantidad).
			Msg("inventario: reserva rechazada por stock")
		return nil, &StockInsuficienteError{ProductoID: productoID, Disponible: p.Stock, Solicitado: cantidad}
	}

	p, err := s.repo.FindByIDTx(tx, productoID)
	if err != nil {
		return nil, err
	}

	ref := referenciaID
	mov := &model.MovimientoStock{
		ProductoID:    productoID,
		Tipo:          model.MovimientoReservaPedido,
		Cantidad:      -cantidad,
		StockAnterior: p.Stock + cantidad,
		StockNuevo:    p.Stock,
		ReferenciaID:  &ref,
	}
	if err := s.movimientos.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	return &ReservaStock{
		ProductoID:     p.ID,
		TiendaID:       p.TiendaID,
		Nombre:         p.Nombre,
		PrecioUnitario: p.Precio,
		StockRestante:  p.Stock,
	}, nil
}

// Liberar returns units to stock. A product deleted since the reservation
// yields *NoEncontradoError; callers log it and continue since stock >= 0
// still holds.
func (s *inventarioService) Liberar(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, cantidad int, referenciaID uuid.UUID) error {
	if cantidad <= 0 {
		return validacion("cantidad", "debe ser mayor a cero")
	}

	ok, err := s.repo.IncrementarStockTx(tx, productoID, cantidad)
	if err != nil {
		return err
	}
	if !ok {
		return &NoEncontradoError{Recurso: "producto", ID: productoID}
	}

	p, err := s.repo.FindByIDTx(tx, productoID)
	if err != nil {
		return err
	}
	ref := referenciaID
	return s.movimientos.CreateTx(tx, &model.MovimientoStock{
		ProductoID:    productoID,
		Tipo:          model.MovimientoLiberacionCancelado,
		Cantidad:      cantidad,
		StockAnterior: p.Stock - cantidad,
		StockNuevo:    p.Stock,
		ReferenciaID:  &ref,
	})
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, productoID uuid.UUID, filter dto.MovimientoStockFilter) ([]dto.MovimientoStockResponse, int64, error) {
	if _, err := s.repo.FindByID(ctx, productoID); err != nil {
		return nil, 0, noEncontrado(err, "producto", productoID)
	}
	movs, total, err := s.movimientos.ListByProducto(ctx, productoID, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.MovimientoStockResponse, 0, len(movs))
	for _, m := range movs {
		r := dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.ReferenciaID != nil {
			s := m.ReferenciaID.String()
			r.ReferenciaID = &s
		}
		out = append(out, r)
	}
	return out, total, nil
}
