// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail        string `json:"detail"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// NewInternal is the opaque 5xx body; the detail stays in the server log
// under the same correlation id.
func NewInternal(correlationID string) *APIError {
	return &APIError{Detail: "Error interno del servidor", CorrelationID: correlationID}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// LineaError points at the order line that made a pedido fail.
type LineaError struct {
	Detail     string `json:"detail"`
	Linea      int    `json:"linea"`
	ProductoID string `json:"producto_id"`
	Solicitado int    `json:"solicitado,omitempty"`
	Disponible *int   `json:"disponible,omitempty"`
	Faltante   int    `json:"faltante,omitempty"`
}

func NewLinea(detail string, linea int, productoID string) *LineaError {
	return &LineaError{Detail: detail, Linea: linea, ProductoID: productoID}
}

// WithStock adds the available-vs-requested detail of a stock shortfall.
func (e *LineaError) WithStock(solicitado, disponible int) *LineaError {
	e.Solicitado = solicitado
	e.Disponible = &disponible
	e.Faltante = solicitado - disponible
	return e
}
