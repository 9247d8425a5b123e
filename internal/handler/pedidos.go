package handler

import (
	"net/http"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/middleware"
	"tiendaapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PedidosHandler struct{ svc service.PedidoService }

func NewPedidosHandler(svc service.PedidoService) *PedidosHandler { return &PedidosHandler{svc: svc} }

// Crear godoc
// @Summary      Crear pedido
// @Description  Reserva stock de todas las lineas en una sola unidad de trabajo. Si una linea falla, ninguna queda reservada.
// @Description  Con clave_idempotencia repetida se devuelve el pedido original aunque el cuerpo traiga otras lineas.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearPedidoRequest true "Pedido"
// @Success      201  {object} dto.PedidoResponse
// @Failure      400  {object} apierror.LineaError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/pedidos [post]
func (h *PedidosHandler) Crear(c *gin.Context) {
	var req dto.CrearPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var clienteID *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		if id, err := uuid.Parse(claims.UserID); err == nil {
			clienteID = &id
		}
	}

	resp, err := h.svc.CrearPedido(c.Request.Context(), clienteID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary      Obtener pedido
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del pedido"
// @Success      200 {object} dto.PedidoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/pedidos/{id} [get]
func (h *PedidosHandler) Obtener(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPedido(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPorTienda godoc
// @Summary      Listar pedidos de una tienda
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "UUID de la tienda"
// @Param        estado query string false "Filtrar por estado"
// @Param        page   query int    false "Pagina"
// @Param        limit  query int    false "Tamaño de pagina"
// @Success      200 {object} dto.PedidoListResponse
// @Router       /v1/tiendas/{id}/pedidos [get]
func (h *PedidosHandler) ListarPorTienda(c *gin.Context) {
	tiendaID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var filter dto.PedidoFilter
	if !bindQuery(c, &filter) {
		return
	}
	filter.TiendaID = tiendaID.String()

	resp, err := h.svc.ListarPorTienda(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarLinea godoc
// @Summary      Agregar linea a un pedido Pendiente
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID del pedido"
// @Param        body body dto.LineaPedidoRequest true "Linea"
// @Success      200  {object} dto.PedidoResponse
// @Failure      400  {object} apierror.LineaError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/pedidos/{id}/lineas [post]
func (h *PedidosHandler) AgregarLinea(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.LineaPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarLinea(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarEstado godoc
// @Summary      Cambiar estado de un pedido
// @Description  Pasar a Cancelado libera el stock de todas las lineas una sola vez.
// @Tags         pedidos
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string                            true "UUID del pedido"
// @Param        body body dto.ActualizarEstadoPedidoRequest true "Nuevo estado"
// @Success      204
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/pedidos/{id}/estado [put]
func (h *PedidosHandler) ActualizarEstado(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarEstadoPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ActualizarEstado(c.Request.Context(), id, req.Estado); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
