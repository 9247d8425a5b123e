package handler

import (
	"errors"
	"net/http"
	"reflect"

	"tiendaapi/internal/apierror"
	"tiendaapi/internal/middleware"
	"tiendaapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Namespace()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
		return false
	}
	return true
}

// uuidParam parses a path parameter; writes 400 and returns false when invalid.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// puedeActuarSobre reports whether the caller is usuarioID or an Admin.
func puedeActuarSobre(c *gin.Context, usuarioID string) bool {
	claims := middleware.GetClaims(c)
	return claims != nil && (claims.EsAdmin() || claims.UserID == usuarioID)
}

func rechazo(err error) bool {
	return errors.Is(err, service.ErrNoEncontrado) ||
		errors.Is(err, service.ErrValidacion) ||
		errors.Is(err, service.ErrStockInsuficiente) ||
		errors.Is(err, service.ErrSaldoInsuficiente) ||
		errors.Is(err, service.ErrYaProcesado)
}

// respondError maps service errors to HTTP. Infrastructure failures go to
// c.Error so ErrorHandler logs them and answers an opaque 500.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrConflictoConcurrencia) {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, apierror.New("Conflicto de concurrencia, reintente la operacion"))
		return
	}

	var lineaErr *service.LineaError
	if errors.As(err, &lineaErr) && rechazo(lineaErr.Err) {
		productoID := ""
		if lineaErr.ProductoID != uuid.Nil {
			productoID = lineaErr.ProductoID.String()
		}
		body := apierror.NewLinea(lineaErr.Err.Error(), lineaErr.Indice, productoID)
		var stockErr *service.StockInsuficienteError
		if errors.As(lineaErr.Err, &stockErr) {
			body.WithStock(stockErr.Solicitado, stockErr.Disponible)
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	switch {
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case rechazo(err):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}
