package handler

import (
	"net/http"

	"tiendaapi/internal/service"

	"github.com/gin-gonic/gin"
)

type ComisionesHandler struct{ svc service.ComisionService }

func NewComisionesHandler(svc service.ComisionService) *ComisionesHandler {
	return &ComisionesHandler{svc: svc}
}

// Calcular godoc
// @Summary      Calcular comision de plataforma de un pedido
// @Description  Solo pedidos Confirmado o Entregado. Una segunda llamada responde 400 sin escribir nada.
// @Tags         comisiones
// @Produce      json
// @Security     BearerAuth
// @Param        pedidoId path string true "UUID del pedido"
// @Success      200 {object} dto.ComisionResultado
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /v1/comisiones/calcular/{pedidoId} [post]
func (h *ComisionesHandler) Calcular(c *gin.Context) {
	pedidoID, ok := uuidParam(c, "pedidoId")
	if !ok {
		return
	}
	resp, err := h.svc.CalcularParaPedido(c.Request.Context(), pedidoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPorPedido godoc
// @Summary      Listar comisiones de un pedido
// @Tags         comisiones
// @Produce      json
// @Security     BearerAuth
// @Param        pedidoId path string true "UUID del pedido"
// @Success      200 {array} dto.ComisionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/comisiones/pedido/{pedidoId} [get]
func (h *ComisionesHandler) ListarPorPedido(c *gin.Context) {
	pedidoID, ok := uuidParam(c, "pedidoId")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorPedido(c.Request.Context(), pedidoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
