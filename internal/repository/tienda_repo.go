package repository

import (
	"context"

	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TiendaRepository resolves a tienda and its owner.
type TiendaRepository interface {
	Create(ctx context.Context, t *model.Tienda) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tienda, error)
}

type tiendaRepo struct{ db *gorm.DB }

func NewTiendaRepository(db *gorm.DB) TiendaRepository { return &tiendaRepo{db: db} }

func (r *tiendaRepo) Create(ctx context.Context, t *model.Tienda) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tiendaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tienda, error) {
	var t model.Tienda
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
