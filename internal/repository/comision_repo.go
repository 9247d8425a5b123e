package repository

import (
	"context"

	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IndiceComisionPlatformFee enforces one PlatformFee commission per pedido.
const IndiceComisionPlatformFee = "ux_comisiones_pedido_platform_fee"

type ComisionRepository interface {
	ExistePlatformFeeTx(tx *gorm.DB, pedidoID uuid.UUID) (bool, error)
	CreateTx(tx *gorm.DB, c *model.Comision) error
	ListByPedido(ctx context.Context, pedidoID uuid.UUID) ([]model.Comision, error)
}

type comisionRepo struct{ db *gorm.DB }

func NewComisionRepository(db *gorm.DB) ComisionRepository { return &comisionRepo{db: db} }

func (r *comisionRepo) ExistePlatformFeeTx(tx *gorm.DB, pedidoID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.Comision{}).
		Where("pedido_id = ? AND tipo = ?", pedidoID, model.ComisionPlatformFee).
		Count(&n).Error
	return n > 0, err
}

func (r *comisionRepo) CreateTx(tx *gorm.DB, c *model.Comision) error {
	return tx.Create(c).Error
}

func (r *comisionRepo) ListByPedido(ctx context.Context, pedidoID uuid.UUID) ([]model.Comision, error) {
	var comisiones []model.Comision
	err := r.db.WithContext(ctx).Where("pedido_id = ?", pedidoID).Order("created_at ASC").Find(&comisiones).Error
	return comisiones, err
}
