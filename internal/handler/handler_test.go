package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tiendaapi/internal/apierror"
	"tiendaapi/internal/dto"
	"tiendaapi/internal/middleware"
	"tiendaapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubPedidoService struct {
	err     error
	resp    *dto.PedidoResponse
	cliente *uuid.UUID
	estado  string
}

func (s *stubPedidoService) CrearPedido(_ context.Context, clienteID *uuid.UUID, _ dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	s.cliente = clienteID
	return s.resp, s.err
}
func (s *stubPedidoService) ActualizarEstado(_ context.Context, _ uuid.UUID, estado string) error {
	s.estado = estado
	return s.err
}
func (s *stubPedidoService) AgregarLinea(_ context.Context, _ uuid.UUID, _ dto.LineaPedidoRequest) (*dto.PedidoResponse, error) {
	return s.resp, s.err
}
func (s *stubPedidoService) ObtenerPedido(_ context.Context, _ uuid.UUID) (*dto.PedidoResponse, error) {
	return s.resp, s.err
}
func (s *stubPedidoService) ListarPorTienda(_ context.Context, f dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	return &dto.PedidoListResponse{Page: f.Page, Limit: f.Limit}, s.err
}

var _ service.PedidoService = (*stubPedidoService)(nil)

type stubComisionService struct{ err error }

func (s *stubComisionService) CalcularParaPedido(_ context.Context, id uuid.UUID) (*dto.ComisionResultado, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ComisionResultado{
		PedidoID:      id.String(),
		Total:         decimal.RequireFromString("100.00"),
		MontoComision: decimal.RequireFromString("10.00"),
		MontoVendedor: decimal.RequireFromString("90.00"),
	}, nil
}
func (s *stubComisionService) ListarPorPedido(_ context.Context, _ uuid.UUID) ([]dto.ComisionResponse, error) {
	return nil, s.err
}

var _ service.ComisionService = (*stubComisionService)(nil)

type stubTransaccionService struct {
	err   error
	saldo decimal.Decimal
}

func (s *stubTransaccionService) Registrar(_ context.Context, req dto.RegistrarTransaccionRequest) (*dto.TransaccionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TransaccionResponse{ID: uuid.NewString(), UsuarioID: req.UsuarioID, Tipo: req.Tipo, Monto: req.Monto}, nil
}
func (s *stubTransaccionService) Saldo(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return s.saldo, s.err
}
func (s *stubTransaccionService) ActualizarEstado(_ context.Context, _ uuid.UUID, _ string) error {
	return s.err
}
func (s *stubTransaccionService) ListarPorUsuario(_ context.Context, _ uuid.UUID, f dto.TransaccionFilter) (*dto.TransaccionListResponse, error) {
	return &dto.TransaccionListResponse{Page: f.Page, Limit: f.Limit}, s.err
}

var _ service.TransaccionService = (*stubTransaccionService)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

// conClaims stands in for JWTAuth.
func conClaims(userID string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{UserID: userID, Roles: roles})
		c.Next()
	}
}

func nuevoRouter(claims gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	if claims != nil {
		r.Use(claims)
	}
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pedidoValido() dto.CrearPedidoRequest {
	return dto.CrearPedidoRequest{
		TiendaID:      uuid.NewString(),
		ClienteNombre: "Ana",
		ClienteEmail:  "ana@example.com",
		Lineas:        []dto.LineaPedidoRequest{{ProductoID: uuid.NewString(), Cantidad: 2}},
	}
}

// ── Pedidos ───────────────────────────────────────────────────────────────────

func TestCrearPedido_Respuestas(t *testing.T) {
	productoID := uuid.New()
	stockErr := &service.LineaError{
		Indice:     1,
		ProductoID: productoID,
		Err:        &service.StockInsuficienteError{ProductoID: productoID, Disponible: 2, Solicitado: 3},
	}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"creado", nil, http.StatusCreated},
		{"linea sin stock", stockErr, http.StatusBadRequest},
		{"producto inexistente en linea", &service.LineaError{Err: &service.NoEncontradoError{Recurso: "producto"}}, http.StatusBadRequest},
		{"tienda inexistente", &service.NoEncontradoError{Recurso: "tienda"}, http.StatusNotFound},
		{"conflicto", fmt.Errorf("%w: deadlock", service.ErrConflictoConcurrencia), http.StatusConflict},
		{"infraestructura", errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPedidoService{err: tc.err, resp: &dto.PedidoResponse{ID: uuid.NewString()}}
			r := nuevoRouter(conClaims(uuid.NewString(), middleware.RolCliente))
			r.POST("/v1/pedidos", NewPedidosHandler(svc).Crear)

			w := doJSON(r, http.MethodPost, "/v1/pedidos", pedidoValido())
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestCrearPedido_CuerpoDeErrorDeLinea(t *testing.T) {
	productoID := uuid.New()
	svc := &stubPedidoService{err: &service.LineaError{
		Indice:     1,
		ProductoID: productoID,
		Err:        &service.StockInsuficienteError{ProductoID: productoID, Disponible: 2, Solicitado: 3},
	}}
	r := nuevoRouter(conClaims(uuid.NewString()))
	r.POST("/v1/pedidos", NewPedidosHandler(svc).Crear)

	w := doJSON(r, http.MethodPost, "/v1/pedidos", pedidoValido())
	require.Equal(t, http.StatusBadRequest, w.Code)

	var got apierror.LineaError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	disponible := 2
	want := apierror.LineaError{
		Detail:     got.Detail,
		Linea:      1,
		ProductoID: productoID.String(),
		Solicitado: 3,
		Disponible: &disponible,
		Faltante:   1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cuerpo de error (-want +got):\n%s", diff)
	}
	assert.Contains(t, got.Detail, "stock insuficiente")
}

func TestCrearPedido_ValidacionYCliente(t *testing.T) {
	svc := &stubPedidoService{resp: &dto.PedidoResponse{}}
	userID := uuid.New()
	r := nuevoRouter(conClaims(userID.String(), middleware.RolCliente))
	r.POST("/v1/pedidos", NewPedidosHandler(svc).Crear)

	sinLineas := pedidoValido()
	sinLineas.Lineas = nil
	w := doJSON(r, http.MethodPost, "/v1/pedidos", sinLineas)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cantidadCero := pedidoValido()
	cantidadCero.Lineas[0].Cantidad = 0
	w = doJSON(r, http.MethodPost, "/v1/pedidos", cantidadCero)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/pedidos", pedidoValido())
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.cliente)
	assert.Equal(t, userID, *svc.cliente)
}

func TestActualizarEstadoPedido(t *testing.T) {
	svc := &stubPedidoService{}
	r := nuevoRouter(conClaims(uuid.NewString(), middleware.RolTendero))
	h := NewPedidosHandler(svc)
	r.PUT("/v1/pedidos/:id/estado", h.ActualizarEstado)

	w := doJSON(r, http.MethodPut, "/v1/pedidos/"+uuid.NewString()+"/estado", dto.ActualizarEstadoPedidoRequest{Estado: "Cancelado"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Cancelado", svc.estado)

	w = doJSON(r, http.MethodPut, "/v1/pedidos/"+uuid.NewString()+"/estado", dto.ActualizarEstadoPedidoRequest{Estado: "Perdido"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/v1/pedidos/no-es-uuid/estado", dto.ActualizarEstadoPedidoRequest{Estado: "Enviado"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = &service.NoEncontradoError{Recurso: "pedido"}
	w = doJSON(r, http.MethodPut, "/v1/pedidos/"+uuid.NewString()+"/estado", dto.ActualizarEstadoPedidoRequest{Estado: "Enviado"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ── Comisiones ────────────────────────────────────────────────────────────────

func TestCalcularComision(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"calculada", nil, http.StatusOK},
		{"ya procesado", service.ErrYaProcesado, http.StatusBadRequest},
		{"estado invalido", &service.ValidacionError{Campo: "estado", Mensaje: "Pendiente"}, http.StatusBadRequest},
		{"pedido inexistente", &service.NoEncontradoError{Recurso: "pedido"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := nuevoRouter(conClaims(uuid.NewString(), middleware.RolTendero))
			r.POST("/v1/comisiones/calcular/:pedidoId", NewComisionesHandler(&stubComisionService{err: tc.err}).Calcular)
			w := doJSON(r, http.MethodPost, "/v1/comisiones/calcular/"+uuid.NewString(), nil)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

// ── Transacciones ─────────────────────────────────────────────────────────────

func TestRegistrarTransaccion_Propiedad(t *testing.T) {
	owner := uuid.NewString()
	body := dto.RegistrarTransaccionRequest{UsuarioID: owner, Tipo: "Recarga", Monto: decimal.RequireFromString("10.00")}

	cases := []struct {
		name   string
		claims gin.HandlerFunc
		want   int
	}{
		{"propio", conClaims(owner, middleware.RolCliente), http.StatusCreated},
		{"ajeno", conClaims(uuid.NewString(), middleware.RolCliente), http.StatusForbidden},
		{"admin", conClaims(uuid.NewString(), middleware.RolAdmin), http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := nuevoRouter(tc.claims)
			r.POST("/v1/transacciones", NewTransaccionesHandler(&stubTransaccionService{}, "COP").Registrar)
			w := doJSON(r, http.MethodPost, "/v1/transacciones", body)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRegistrarTransaccion_Rechazos(t *testing.T) {
	owner := uuid.NewString()
	r := nuevoRouter(conClaims(owner))
	svc := &stubTransaccionService{}
	r.POST("/v1/transacciones", NewTransaccionesHandler(svc, "COP").Registrar)

	w := doJSON(r, http.MethodPost, "/v1/transacciones",
		dto.RegistrarTransaccionRequest{UsuarioID: owner, Tipo: "Recarga", Monto: decimal.RequireFromString("-1")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/transacciones",
		dto.RegistrarTransaccionRequest{UsuarioID: owner, Tipo: "Venta", Monto: decimal.RequireFromString("5")})
	assert.Equal(t, http.StatusBadRequest, w.Code, "Venta solo la escribe el calculo de comisiones")

	svc.err = &service.SaldoInsuficienteError{Saldo: decimal.Zero, Monto: decimal.NewFromInt(5)}
	w = doJSON(r, http.MethodPost, "/v1/transacciones",
		dto.RegistrarTransaccionRequest{UsuarioID: owner, Tipo: "Retiro", Monto: decimal.RequireFromString("5")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "saldo insuficiente")
}

func TestSaldo(t *testing.T) {
	owner := uuid.NewString()
	r := nuevoRouter(conClaims(owner))
	r.GET("/v1/transacciones/saldo/:usuarioId",
		NewTransaccionesHandler(&stubTransaccionService{saldo: decimal.RequireFromString("90.00")}, "COP").Saldo)

	w := doJSON(r, http.MethodGet, "/v1/transacciones/saldo/"+owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.SaldoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, owner, got.UsuarioID)
	assert.Equal(t, "COP", got.Moneda)
	assert.True(t, decimal.RequireFromString("90.00").Equal(got.Saldo))

	w = doJSON(r, http.MethodGet, "/v1/transacciones/saldo/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorInterno_IncluyeCorrelationID(t *testing.T) {
	r := nuevoRouter(conClaims(uuid.NewString(), middleware.RolAdmin))
	r.PUT("/v1/transacciones/:id/estado",
		NewTransaccionesHandler(&stubTransaccionService{err: errors.New("pq: relation missing")}, "COP").ActualizarEstado)

	req := httptest.NewRequest(http.MethodPut, "/v1/transacciones/"+uuid.NewString()+"/estado",
		bytes.NewBufferString(`{"estado":"Completada"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "corr-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "corr-42", body.CorrelationID)
	assert.NotContains(t, body.Detail, "relation")
}
