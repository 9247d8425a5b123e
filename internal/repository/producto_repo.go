package repository

import (
	"context"

	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)

	// Used inside transactions; callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	// DescontarStockTx decrements stock only when the product is active and has
	// at least cantidad units. Returns false when no row matched.
	DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (bool, error)
	// IncrementarStockTx adds cantidad units. Returns false when the product
	// no longer exists.
	IncrementarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (bool, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *productoRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (bool, error) {
	res := tx.Model(&model.Producto{}).
		Where("id = ? AND activo = true AND stock >= ?", id, cantidad).
		Update("stock", gorm.Expr("stock - ?", cantidad))
	return res.RowsAffected == 1, res.Error
}

func (r *productoRepo) IncrementarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (bool, error) {
	res := tx.Model(&model.Producto{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", cantidad))
	return res.RowsAffected == 1, res.Error
}
