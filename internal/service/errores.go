package service

import (
	"errors"
	"fmt"

	"tiendaapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Business-rule sentinels. Every typed error below unwraps to one of them so
// handlers can map with errors.Is.
var (
	ErrNoEncontrado          = errors.New("recurso no encontrado")
	ErrValidacion            = errors.New("datos invalidos")
	ErrStockInsuficiente     = errors.New("stock insuficiente")
	ErrSaldoInsuficiente     = errors.New("saldo insuficiente")
	ErrYaProcesado           = errors.New("operacion ya procesada")
	ErrConflictoConcurrencia = repository.ErrConflictoConcurrencia
)

// NoEncontradoError names the missing entity.
type NoEncontradoError struct {
	Recurso string
	ID      uuid.UUID
}

func (e *NoEncontradoError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Recurso, e.ID)
}

func (e *NoEncontradoError) Unwrap() error { return ErrNoEncontrado }

// ValidacionError is malformed or out-of-range input, or an operation not
// allowed in the current state.
type ValidacionError struct {
	Campo   string
	Mensaje string
}

func (e *ValidacionError) Error() string {
	if e.Campo == "" {
		return e.Mensaje
	}
	return e.Campo + ": " + e.Mensaje
}

func (e *ValidacionError) Unwrap() error { return ErrValidacion }

func validacion(campo, mensaje string) error {
	return &ValidacionError{Campo: campo, Mensaje: mensaje}
}

// StockInsuficienteError carries available vs requested units for the client.
type StockInsuficienteError struct {
	ProductoID uuid.UUID
	Disponible int
	Solicitado int
}

func (e *StockInsuficienteError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: disponible %d, solicitado %d",
		e.ProductoID, e.Disponible, e.Solicitado)
}

func (e *StockInsuficienteError) Unwrap() error { return ErrStockInsuficiente }

// Faltante is the shortfall in units.
func (e *StockInsuficienteError) Faltante() int { return e.Solicitado - e.Disponible }

// SaldoInsuficienteError is returned for a Retiro above the current saldo.
type SaldoInsuficienteError struct {
	Saldo decimal.Decimal
	Monto decimal.Decimal
}

func (e *SaldoInsuficienteError) Error() string {
	return fmt.Sprintf("saldo insuficiente: saldo %s, monto solicitado %s",
		e.Saldo.StringFixed(2), e.Monto.StringFixed(2))
}

func (e *SaldoInsuficienteError) Unwrap() error { return ErrSaldoInsuficiente }

// LineaError wraps the failure of one requested line of a pedido; the whole
// pedido is rejected.
type LineaError struct {
	Indice     int
	ProductoID uuid.UUID
	Err        error
}

func (e *LineaError) Error() string {
	return fmt.Sprintf("linea %d: %v", e.Indice, e.Err)
}

func (e *LineaError) Unwrap() error { return e.Err }

// noEncontrado maps gorm's not-found to the typed error and leaves every other
// error untouched.
func noEncontrado(err error, recurso string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NoEncontradoError{Recurso: recurso, ID: id}
	}
	return err
}

// esErrorNegocio reports whether err is a typed business rejection, as
// opposed to an infrastructure failure.
func esErrorNegocio(err error) bool {
	return errors.Is(err, ErrNoEncontrado) ||
		errors.Is(err, ErrValidacion) ||
		errors.Is(err, ErrStockInsuficiente) ||
		errors.Is(err, ErrSaldoInsuficiente) ||
		errors.Is(err, ErrYaProcesado)
}
