package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransaccionRecarga   = "Recarga"
	TransaccionRetiro    = "Retiro"
	TransaccionVenta     = "Venta"
	TransaccionComision  = "Comisión"
	TransaccionReembolso = "Reembolso"
)

const (
	TransaccionPendiente  = "Pendiente"
	TransaccionCompletada = "Completada"
	TransaccionRechazada  = "Rechazada"
)

// Transaccion is one ledger entry. Monto is always positive; the direction
// comes from Tipo.
type Transaccion struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PedidoID   *uuid.UUID      `gorm:"type:uuid;index"`
	Tipo       string          `gorm:"type:varchar(20);not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Moneda     string          `gorm:"type:varchar(3);not null;default:'COP'"`
	Referencia *string
	Estado     string `gorm:"type:varchar(20);not null;default:'Pendiente'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Transaccion) TableName() string { return "transacciones" }

// TipoTransaccionValido reports whether tipo is a known ledger entry type.
func TipoTransaccionValido(tipo string) bool {
	switch tipo {
	case TransaccionRecarga, TransaccionRetiro, TransaccionVenta, TransaccionComision, TransaccionReembolso:
		return true
	}
	return false
}

// EstadoTransaccionValido reports whether estado is a known ledger entry state.
func EstadoTransaccionValido(estado string) bool {
	switch estado {
	case TransaccionPendiente, TransaccionCompletada, TransaccionRechazada:
		return true
	}
	return false
}

// EsIngreso reports whether the entry adds to the owner's saldo.
func (t Transaccion) EsIngreso() bool {
	return t.Tipo == TransaccionRecarga || t.Tipo == TransaccionVenta
}

// CalcularSaldo folds completed entries: ingresos add, everything else subtracts.
func CalcularSaldo(txs []Transaccion) decimal.Decimal {
	saldo := decimal.Zero
	for _, t := range txs {
		if t.Estado != TransaccionCompletada {
			continue
		}
		if t.EsIngreso() {
			saldo = saldo.Add(t.Monto)
		} else {
			saldo = saldo.Sub(t.Monto)
		}
	}
	return saldo
}
