package service

import (
	"context"
	"errors"
	"time"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/events"
	"tiendaapi/internal/model"
	"tiendaapi/internal/repository"
	"tiendaapi/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type PedidoService interface {
	CrearPedido(ctx context.Context, clienteID *uuid.UUID, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error)
	ActualizarEstado(ctx context.Context, pedidoID uuid.UUID, estado string) error
	AgregarLinea(ctx context.Context, pedidoID uuid.UUID, req dto.LineaPedidoRequest) (*dto.PedidoResponse, error)
	ObtenerPedido(ctx context.Context, pedidoID uuid.UUID) (*dto.PedidoResponse, error)
	ListarPorTienda(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error)
}

type pedidoService struct {
	tx          repository.TxRunner
	repo        repository.PedidoRepository
	tiendas     repository.TiendaRepository
	inventario  InventarioService
	publisher   events.Publisher
	notificador Notificador
}

func NewPedidoService(
	tx repository.TxRunner,
	repo repository.PedidoRepository,
	tiendas repository.TiendaRepository,
	inventario InventarioService,
	publisher events.Publisher,
	notificador Notificador,
) PedidoService {
	return &pedidoService{
		tx:          tx,
		repo:        repo,
		tiendas:     tiendas,
		inventario:  inventario,
		publisher:   publisher,
		notificador: notificador,
	}
}

type lineaSolicitada struct {
	productoID uuid.UUID
	cantidad   int
}

// ── CrearPedido ───────────────────────────────────────────────────────────────
//   1. Validate tienda and lines (outside the unit of work)
//   2. Replay: an existing pedido with the same clave_idempotencia is returned
//   3. One unit: reserve every line (price frozen), insert pedido + lineas
//   4. After commit: PedidoCreado event + client notification

func (s *pedidoService) CrearPedido(ctx context.Context, clienteID *uuid.UUID, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	tiendaID, err := uuid.Parse(req.TiendaID)
	if err != nil {
		return nil, validacion("tienda_id", "UUID invalido")
	}
	if len(req.Lineas) == 0 {
		return nil, validacion("lineas", "el pedido debe tener al menos una linea")
	}
	solicitadas := make([]lineaSolicitada, 0, len(req.Lineas))
	for i, l := range req.Lineas {
		pid, err := uuid.Parse(l.ProductoID)
		if err != nil {
			return nil, &LineaError{Indice: i, Err: validacion("producto_id", "UUID invalido")}
		}
		if l.Cantidad <= 0 {
			return nil, &LineaError{Indice: i, ProductoID: pid, Err: validacion("cantidad", "debe ser mayor a cero")}
		}
		solicitadas = append(solicitadas, lineaSolicitada{productoID: pid, cantidad: l.Cantidad})
	}

	tienda, err := s.tiendas.FindByID(ctx, tiendaID)
	if err != nil {
		return nil, noEncontrado(err, "tienda", tiendaID)
	}
	if !tienda.Activa {
		return nil, validacion("tienda_id", "la tienda no está activa")
	}

	if req.ClaveIdempotencia != nil {
		existente, err := s.repo.FindByClave(ctx, tiendaID, *req.ClaveIdempotencia)
		if err == nil {
			log.Info().Str("pedido_id", existente.ID.String()).Msg("crear_pedido: reintento idempotente")
			advertirLineasDistintas(existente, solicitadas)
			return pedidoToResponse(existente, nil), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	metodoPago := req.MetodoPago
	if metodoPago == "" {
		metodoPago = "Efectivo"
	}

	var pedido model.Pedido
	var nombres map[uuid.UUID]string
	txErr := s.tx.RunTx(ctx, func(tx *gorm.DB) error {
		pedido = model.Pedido{
			ID:                uuid.New(),
			TiendaID:          tiendaID,
			ClienteID:         clienteID,
			ClienteNombre:     req.ClienteNombre,
			ClienteEmail:      req.ClienteEmail,
			ClienteTelefono:   req.ClienteTelefono,
			DireccionEntrega:  req.DireccionEntrega,
			MetodoPago:        metodoPago,
			Estado:            model.PedidoPendiente,
			ClaveIdempotencia: req.ClaveIdempotencia,
		}
		nombres = make(map[uuid.UUID]string, len(solicitadas))

		for i, l := range solicitadas {
			reserva, err := s.inventario.Reservar(ctx, tx, l.productoID, l.cantidad, pedido.ID)
			if err != nil {
				return &LineaError{Indice: i, ProductoID: l.productoID, Err: err}
			}
			if reserva.TiendaID != tiendaID {
				return &LineaError{Indice: i, ProductoID: l.productoID,
					Err: validacion("producto_id", "el producto no pertenece a la tienda del pedido")}
			}
			pedido.Lineas = append(pedido.Lineas, model.PedidoLinea{
				ID:             uuid.New(),
				PedidoID:       pedido.ID,
				ProductoID:     l.productoID,
				Cantidad:       l.cantidad,
				PrecioUnitario: reserva.PrecioUnitario,
			})
			nombres[l.productoID] = reserva.Nombre
		}

		pedido.RecalcularTotal()
		return s.repo.CreateTx(tx, &pedido)
	})
	if txErr != nil {
		if req.ClaveIdempotencia != nil && repository.EsViolacionUnica(txErr, repository.IndicePedidoClave) {
			if existente, err := s.repo.FindByClave(ctx, tiendaID, *req.ClaveIdempotencia); err == nil {
				advertirLineasDistintas(existente, solicitadas)
				return pedidoToResponse(existente, nil), nil
			}
		}
		logFallo(txErr, "crear_pedido").Str("tienda_id", tiendaID.String()).Msg("pedido rechazado")
		return nil, txErr
	}

	log.Info().Str("pedido_id", pedido.ID.String()).Str("tienda_id", tiendaID.String()).
		Str("total", pedido.Total.StringFixed(2)).Int("lineas", len(pedido.Lineas)).Msg("pedido creado")

	lineas := make([]events.LineaPayload, 0, len(pedido.Lineas))
	for _, l := range pedido.Lineas {
		lineas = append(lineas, events.LineaPayload{ProductoID: l.ProductoID.String(), Cantidad: l.Cantidad, PrecioUnitario: l.PrecioUnitario})
	}
	publicar(ctx, s.publisher, events.EventPedidoCreado, pedido.ID.String(), events.PedidoCreadoPayload{
		PedidoID: pedido.ID.String(),
		TiendaID: tiendaID.String(),
		Total:    pedido.Total,
		Lineas:   lineas,
	})
	notificar(ctx, s.notificador, worker.NotificacionPayload{PedidoID: pedido.ID.String(), Tipo: worker.NotificacionPedidoCreado})

	return pedidoToResponse(&pedido, nombres), nil
}

// ── ActualizarEstado ──────────────────────────────────────────────────────────
// Transitions are permissive. The only rule: entering Cancelado from any other
// state releases every line's stock once; repeating the same state is a no-op.

func (s *pedidoService) ActualizarEstado(ctx context.Context, pedidoID uuid.UUID, estado string) error {
	nuevo := model.EstadoPedido(estado)
	if !nuevo.Valido() {
		return validacion("estado", "estado desconocido: "+estado)
	}

	var anterior model.EstadoPedido
	var liberado bool
	txErr := s.tx.RunTx(ctx, func(tx *gorm.DB) error {
		liberado = false
		p, err := s.repo.FindByIDForUpdateTx(tx, pedidoID)
		if err != nil {
			return noEncontrado(err, "pedido", pedidoID)
		}
		anterior = p.Estado
		if anterior == nuevo {
			return nil
		}

		if nuevo == model.PedidoCancelado {
			for _, l := range p.Lineas {
				err := s.inventario.Liberar(ctx, tx, l.ProductoID, l.Cantidad, p.ID)
				if errors.Is(err, ErrNoEncontrado) {
					log.Warn().Str("pedido_id", p.ID.String()).Str("producto_id", l.ProductoID.String()).
						Int("cantidad", l.Cantidad).Msg("cancelar_pedido: producto eliminado, liberación omitida")
					continue
				}
				if err != nil {
					return err
				}
			}
			liberado = true
		}
		if anterior.Terminal() {
			log.Warn().Str("pedido_id", p.ID.String()).Str("desde", string(anterior)).Str("hacia", string(nuevo)).
				Msg("actualizar_estado: transición desde estado terminal")
		}
		return s.repo.UpdateEstadoTx(tx, p.ID, nuevo)
	})
	if txErr != nil {
		logFallo(txErr, "actualizar_estado").Str("pedido_id", pedidoID.String()).Msg("cambio de estado rechazado")
		return txErr
	}
	if anterior == nuevo {
		log.Debug().Str("pedido_id", pedidoID.String()).Str("estado", estado).Msg("actualizar_estado: sin cambios")
		return nil
	}

	log.Info().Str("pedido_id", pedidoID.String()).Str("desde", string(anterior)).Str("hacia", estado).
		Bool("stock_liberado", liberado).Msg("estado de pedido actualizado")
	publicar(ctx, s.publisher, events.EventPedidoEstadoActualizado, pedidoID.String(), events.PedidoEstadoPayload{
		PedidoID:       pedidoID.String(),
		EstadoAnterior: string(anterior),
		EstadoNuevo:    estado,
		StockLiberado:  liberado,
	})
	notificar(ctx, s.notificador, worker.NotificacionPayload{PedidoID: pedidoID.String(), Tipo: worker.NotificacionPedidoEstado, Estado: estado})
	return nil
}

// AgregarLinea reserves stock for one more line of a Pendiente pedido and
// recomputes its total in the same unit of work.
func (s *pedidoService) AgregarLinea(ctx context.Context, pedidoID uuid.UUID, req dto.LineaPedidoRequest) (*dto.PedidoResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, validacion("producto_id", "UUID invalido")
	}
	if req.Cantidad <= 0 {
		return nil, validacion("cantidad", "debe ser mayor a cero")
	}

	txErr := s.tx.RunTx(ctx, func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDForUpdateTx(tx, pedidoID)
		if err != nil {
			return noEncontrado(err, "pedido", pedidoID)
		}
		if p.Estado != model.PedidoPendiente {
			return validacion("estado", "solo se pueden agregar lineas a pedidos Pendiente")
		}

		indice := len(p.Lineas)
		reserva, err := s.inventario.Reservar(ctx, tx, productoID, req.Cantidad, p.ID)
		if err != nil {
			return &LineaError{Indice: indice, ProductoID: productoID, Err: err}
		}
		if reserva.TiendaID != p.TiendaID {
			return &LineaError{Indice: indice, ProductoID: productoID,
				Err: validacion("producto_id", "el producto no pertenece a la tienda del pedido")}
		}

		linea := model.PedidoLinea{
			ID:             uuid.New(),
			PedidoID:       p.ID,
			ProductoID:     productoID,
			Cantidad:       req.Cantidad,
			PrecioUnitario: reserva.PrecioUnitario,
		}
		if err := s.repo.CreateLineaTx(tx, &linea); err != nil {
			return err
		}
		p.Lineas = append(p.Lineas, linea)
		p.RecalcularTotal()
		return s.repo.UpdateTotalTx(tx, p)
	})
	if txErr != nil {
		logFallo(txErr, "agregar_linea").Str("pedido_id", pedidoID.String()).Msg("linea rechazada")
		return nil, txErr
	}
	return s.ObtenerPedido(ctx, pedidoID)
}

func (s *pedidoService) ObtenerPedido(ctx context.Context, pedidoID uuid.UUID) (*dto.PedidoResponse, error) {
	p, err := s.repo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, noEncontrado(err, "pedido", pedidoID)
	}
	return pedidoToResponse(p, nil), nil
}

func (s *pedidoService) ListarPorTienda(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	if _, err := uuid.Parse(filter.TiendaID); err != nil {
		return nil, validacion("tienda_id", "UUID invalido")
	}
	if filter.Estado != "" && !model.EstadoPedido(filter.Estado).Valido() {
		return nil, validacion("estado", "estado desconocido: "+filter.Estado)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	pedidos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		data = append(data, *pedidoToResponse(&pedidos[i], nil))
	}
	return &dto.PedidoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// pedidoToResponse maps the model; nombres overrides product names when the
// lines were not loaded with their Producto.
// advertirLineasDistintas logs a replay whose body no longer matches the stored
// pedido. The stored pedido always wins.
func advertirLineasDistintas(existente *model.Pedido, solicitadas []lineaSolicitada) {
	if mismasLineas(existente.Lineas, solicitadas) {
		return
	}
	log.Warn().Str("pedido_id", existente.ID.String()).Int("lineas_guardadas", len(existente.Lineas)).
		Int("lineas_recibidas", len(solicitadas)).
		Msg("crear_pedido: clave_idempotencia reutilizada con otras lineas, se devuelve el pedido original")
}

// mismasLineas compares quantities per product, ignoring order.
func mismasLineas(guardadas []model.PedidoLinea, solicitadas []lineaSolicitada) bool {
	cantidades := make(map[uuid.UUID]int, len(guardadas))
	for _, l := range guardadas {
		cantidades[l.ProductoID] += l.Cantidad
	}
	for _, l := range solicitadas {
		cantidades[l.productoID] -= l.cantidad
	}
	for _, n := range cantidades {
		if n != 0 {
			return false
		}
	}
	return true
}

func pedidoToResponse(p *model.Pedido, nombres map[uuid.UUID]string) *dto.PedidoResponse {
	lineas := make([]dto.LineaPedidoResponse, 0, len(p.Lineas))
	for _, l := range p.Lineas {
		nombre := nombres[l.ProductoID]
		if nombre == "" && l.Producto != nil {
			nombre = l.Producto.Nombre
		}
		lineas = append(lineas, dto.LineaPedidoResponse{
			ID:             l.ID.String(),
			ProductoID:     l.ProductoID.String(),
			Producto:       nombre,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			Subtotal:       l.Subtotal(),
		})
	}
	return &dto.PedidoResponse{
		ID:               p.ID.String(),
		TiendaID:         p.TiendaID.String(),
		ClienteNombre:    p.ClienteNombre,
		ClienteEmail:     p.ClienteEmail,
		ClienteTelefono:  p.ClienteTelefono,
		DireccionEntrega: p.DireccionEntrega,
		MetodoPago:       p.MetodoPago,
		Total:            p.Total,
		Estado:           string(p.Estado),
		Lineas:           lineas,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}
