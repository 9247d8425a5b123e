package repository

import (
	"context"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IndicePedidoClave is the partial unique index on (tienda_id, clave_idempotencia).
const IndicePedidoClave = "ux_pedidos_tienda_clave"

type PedidoRepository interface {
	CreateTx(tx *gorm.DB, p *model.Pedido) error
	CreateLineaTx(tx *gorm.DB, l *model.PedidoLinea) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	FindByClave(ctx context.Context, tiendaID uuid.UUID, clave string) (*model.Pedido, error)
	// FindByIDForUpdateTx locks the pedido row until the tx ends.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Pedido, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido) error
	UpdateTotalTx(tx *gorm.DB, p *model.Pedido) error
	List(ctx context.Context, filter dto.PedidoFilter) ([]model.Pedido, int64, error)
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

// CreateTx inserts the pedido and its lines (GORM association save).
func (r *pedidoRepo) CreateTx(tx *gorm.DB, p *model.Pedido) error {
	return tx.Create(p).Error
}

func (r *pedidoRepo) CreateLineaTx(tx *gorm.DB, l *model.PedidoLinea) error {
	return tx.Create(l).Error
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Lineas", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Lineas.Producto").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindByClave(ctx context.Context, tiendaID uuid.UUID, clave string) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Lineas", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Lineas.Producto").
		Where("tienda_id = ? AND clave_idempotencia = ?", tiendaID, clave).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("pedido_id = ?", id).Order("created_at ASC").Find(&p.Lineas).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido) error {
	res := tx.Model(&model.Pedido{}).Where("id = ?", id).Update("estado", estado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pedidoRepo) UpdateTotalTx(tx *gorm.DB, p *model.Pedido) error {
	return tx.Model(&model.Pedido{}).Where("id = ?", p.ID).Update("total", p.Total).Error
}

func (r *pedidoRepo) List(ctx context.Context, filter dto.PedidoFilter) ([]model.Pedido, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Pedido{}).Where("tienda_id = ?", filter.TiendaID)
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pedidos []model.Pedido
	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Lineas").Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&pedidos).Error
	return pedidos, total, err
}
