package handler

import (
	"net/http"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct {
	svc        service.ProductoService
	inventario service.InventarioService
}

func NewProductosHandler(svc service.ProductoService, inventario service.InventarioService) *ProductosHandler {
	return &ProductosHandler{svc: svc, inventario: inventario}
}

// ObtenerPorID godoc
// @Summary      Consultar producto (sin autenticacion)
// @Description  Respuesta cacheada en Redis; el stock puede tener unos segundos de atraso.
// @Tags         productos
// @Produce      json
// @Param        id path string true "UUID del producto"
// @Success      200 {object} dto.ProductoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/{id} [get]
func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos godoc
// @Summary      Movimientos de stock de un producto
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "UUID del producto"
// @Param        page  query int    false "Pagina"
// @Param        limit query int    false "Tamaño de pagina"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/{id}/movimientos [get]
func (h *ProductosHandler) Movimientos(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var filter dto.MovimientoStockFilter
	if !bindQuery(c, &filter) {
		return
	}
	data, total, err := h.inventario.ListarMovimientos(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": filter.Page, "limit": filter.Limit})
}
