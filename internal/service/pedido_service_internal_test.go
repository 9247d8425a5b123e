package service

import (
	"testing"

	"tiendaapi/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMismasLineas(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	guardadas := []model.PedidoLinea{{ProductoID: a, Cantidad: 2}, {ProductoID: b, Cantidad: 1}}

	tests := []struct {
		name        string
		solicitadas []lineaSolicitada
		want        bool
	}{
		{"iguales", []lineaSolicitada{{a, 2}, {b, 1}}, true},
		{"otro orden", []lineaSolicitada{{b, 1}, {a, 2}}, true},
		{"misma cantidad repartida", []lineaSolicitada{{a, 1}, {b, 1}, {a, 1}}, true},
		{"otra cantidad", []lineaSolicitada{{a, 3}, {b, 1}}, false},
		{"falta una linea", []lineaSolicitada{{a, 2}}, false},
		{"producto extra", []lineaSolicitada{{a, 2}, {b, 1}, {uuid.New(), 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mismasLineas(guardadas, tt.solicitadas))
		})
	}
}
