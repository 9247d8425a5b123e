package service_test

import (
	"context"
	"testing"

	"tiendaapi/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductoObtenerPorID_SinCache(t *testing.T) {
	f := newFixture(t)
	p := f.producto(t, f.tienda(t).ID, "8.75", 4)
	svc := service.NewProductoService(f.productoRepo, nil, 0)

	resp, err := svc.ObtenerPorID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID.String(), resp.ID)
	assert.Equal(t, 4, resp.Stock)
	assert.True(t, p.Precio.Equal(resp.Precio))

	_, err = svc.ObtenerPorID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}
