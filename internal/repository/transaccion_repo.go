package repository

import (
	"context"

	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransaccionRepository interface {
	CreateTx(tx *gorm.DB, t *model.Transaccion) error
	// BloquearUsuarioTx serializes balance-dependent writes of one user until the tx ends.
	BloquearUsuarioTx(tx *gorm.DB, usuarioID uuid.UUID) error
	SaldoTx(tx *gorm.DB, usuarioID uuid.UUID) (decimal.Decimal, error)
	Saldo(ctx context.Context, usuarioID uuid.UUID) (decimal.Decimal, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID, page, limit int) ([]model.Transaccion, int64, error)
}

type transaccionRepo struct{ db *gorm.DB }

func NewTransaccionRepository(db *gorm.DB) TransaccionRepository {
	return &transaccionRepo{db: db}
}

func (r *transaccionRepo) CreateTx(tx *gorm.DB, t *model.Transaccion) error {
	return tx.Create(t).Error
}

func (r *transaccionRepo) BloquearUsuarioTx(tx *gorm.DB, usuarioID uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", usuarioID.String()).Error
}

// SaldoTx folds completed entries in SQL; same rule as model.CalcularSaldo.
func (r *transaccionRepo) SaldoTx(tx *gorm.DB, usuarioID uuid.UUID) (decimal.Decimal, error) {
	var saldo decimal.Decimal
	row := tx.Model(&model.Transaccion{}).
		Select("COALESCE(SUM(CASE WHEN tipo IN (?, ?) THEN monto ELSE -monto END), 0)",
			model.TransaccionRecarga, model.TransaccionVenta).
		Where("usuario_id = ? AND estado = ?", usuarioID, model.TransaccionCompletada).
		Row()
	if err := row.Scan(&saldo); err != nil {
		return decimal.Zero, err
	}
	return saldo, nil
}

func (r *transaccionRepo) Saldo(ctx context.Context, usuarioID uuid.UUID) (decimal.Decimal, error) {
	return r.SaldoTx(r.db.WithContext(ctx), usuarioID)
}

func (r *transaccionRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	res := r.db.WithContext(ctx).Model(&model.Transaccion{}).Where("id = ?", id).Update("estado", estado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transaccionRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID, page, limit int) ([]model.Transaccion, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaccion{}).Where("usuario_id = ?", usuarioID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []model.Transaccion
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&txs).Error
	return txs, total, err
}
