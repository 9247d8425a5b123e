package repository

import (
	"context"

	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovimientoStockRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoStock) error
	ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}

func (r *movimientoStockRepo) ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).Where("producto_id = ?", productoID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var movimientos []model.MovimientoStock
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&movimientos).Error
	return movimientos, total, err
}
