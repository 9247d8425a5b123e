package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrConflictoConcurrencia is returned when a unit of work lost a race
// (serialization failure, deadlock, lock timeout) on every attempt. Callers may retry.
var ErrConflictoConcurrencia = errors.New("conflicto de concurrencia, reintente")

// TxRunner opens a unit of work. Every repository *Tx method called with the
// tx it hands out commits or rolls back together.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TxOptions bounds a unit of work.
type TxOptions struct {
	Timeout     time.Duration
	MaxIntentos int
}

type gormTxRunner struct {
	db   *gorm.DB
	opts TxOptions
}

// NewTxRunner returns a TxRunner backed by GORM transactions. Each attempt is
// bounded by opts.Timeout so row locks are never held indefinitely; retryable
// postgres errors are retried up to opts.MaxIntentos times.
func NewTxRunner(db *gorm.DB, opts TxOptions) TxRunner {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxIntentos < 1 {
		opts.MaxIntentos = 1
	}
	return &gormTxRunner{db: db, opts: opts}
}

func (r *gormTxRunner) RunTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for intento := 1; intento <= r.opts.MaxIntentos; intento++ {
		err = r.attempt(ctx, fn)
		if err == nil || !reintentable(ctx, err) {
			return err
		}
		log.Warn().Err(err).Int("intento", intento).Msg("tx: conflicto de concurrencia, reintentando")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(intento*intento) * 20 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", ErrConflictoConcurrencia, err)
}

func (r *gormTxRunner) attempt(ctx context.Context, fn func(tx *gorm.DB) error) error {
	txCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	return r.db.WithContext(txCtx).Transaction(fn)
}

// reintentable reports whether err is worth another attempt. A deadline hit
// by our own per-attempt timeout is retryable; the caller's is not.
func reintentable(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err() == nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return true
	}
	return false
}

// EsViolacionUnica reports whether err is a unique constraint violation,
// optionally on a specific constraint/index name.
func EsViolacionUnica(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// EsViolacionCheck reports whether err is a CHECK constraint violation
// (e.g. stock >= 0).
func EsViolacionCheck(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation
}
