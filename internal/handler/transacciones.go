package handler

import (
	"net/http"

	"tiendaapi/internal/apierror"
	"tiendaapi/internal/dto"
	"tiendaapi/internal/service"

	"github.com/gin-gonic/gin"
)

type TransaccionesHandler struct {
	svc    service.TransaccionService
	moneda string
}

func NewTransaccionesHandler(svc service.TransaccionService, moneda string) *TransaccionesHandler {
	return &TransaccionesHandler{svc: svc, moneda: moneda}
}

// Registrar godoc
// @Summary      Registrar transaccion
// @Description  Un Retiro mayor al saldo disponible se rechaza sin escribir nada.
// @Tags         transacciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarTransaccionRequest true "Transaccion"
// @Success      201  {object} dto.TransaccionResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /v1/transacciones [post]
func (h *TransaccionesHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarTransaccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !puedeActuarSobre(c, req.UsuarioID) {
		c.JSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarPorUsuario godoc
// @Summary      Listar transacciones de un usuario
// @Tags         transacciones
// @Produce      json
// @Security     BearerAuth
// @Param        usuarioId path  string true  "UUID del usuario"
// @Param        page      query int    false "Pagina"
// @Param        limit     query int    false "Tamaño de pagina"
// @Success      200 {object} dto.TransaccionListResponse
// @Failure      403 {object} apierror.APIError
// @Router       /v1/transacciones/usuario/{usuarioId} [get]
func (h *TransaccionesHandler) ListarPorUsuario(c *gin.Context) {
	usuarioID, ok := uuidParam(c, "usuarioId")
	if !ok {
		return
	}
	if !puedeActuarSobre(c, usuarioID.String()) {
		c.JSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
		return
	}
	var filter dto.TransaccionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarPorUsuario(c.Request.Context(), usuarioID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarEstado godoc
// @Summary      Cambiar estado de una transaccion
// @Tags         transacciones
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string                                 true "UUID de la transaccion"
// @Param        body body dto.ActualizarEstadoTransaccionRequest true "Nuevo estado"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Router       /v1/transacciones/{id}/estado [put]
func (h *TransaccionesHandler) ActualizarEstado(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarEstadoTransaccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ActualizarEstado(c.Request.Context(), id, req.Estado); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Saldo godoc
// @Summary      Saldo de un usuario
// @Description  Suma de transacciones Completada: Recarga y Venta suman, el resto resta.
// @Tags         transacciones
// @Produce      json
// @Security     BearerAuth
// @Param        usuarioId path string true "UUID del usuario"
// @Success      200 {object} dto.SaldoResponse
// @Failure      403 {object} apierror.APIError
// @Router       /v1/transacciones/saldo/{usuarioId} [get]
func (h *TransaccionesHandler) Saldo(c *gin.Context) {
	usuarioID, ok := uuidParam(c, "usuarioId")
	if !ok {
		return
	}
	if !puedeActuarSobre(c, usuarioID.String()) {
		c.JSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
		return
	}
	saldo, err := h.svc.Saldo(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SaldoResponse{UsuarioID: usuarioID.String(), Saldo: saldo, Moneda: h.moneda})
}
