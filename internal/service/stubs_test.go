package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/events"
	"tiendaapi/internal/model"
	"tiendaapi/internal/repository"
	"tiendaapi/internal/service"
	"tiendaapi/internal/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── memStore ──────────────────────────────────────────────────────────────────
// memStore is the in-memory database behind every stub repository. RunTx holds
// the single lock for the whole unit of work and restores a snapshot when fn
// fails, which gives the stubs serializable all-or-nothing semantics.
// *Tx methods assume the lock is held; ctx methods take it themselves.

type memStore struct {
	mu            sync.Mutex
	productos     map[uuid.UUID]model.Producto
	tiendas       map[uuid.UUID]model.Tienda
	pedidos       map[uuid.UUID]model.Pedido
	lineas        []model.PedidoLinea
	movimientos   []model.MovimientoStock
	comisiones    []model.Comision
	transacciones []model.Transaccion
	txCount       int
}

func newMemStore() *memStore {
	return &memStore{
		productos: make(map[uuid.UUID]model.Producto),
		tiendas:   make(map[uuid.UUID]model.Tienda),
		pedidos:   make(map[uuid.UUID]model.Pedido),
	}
}

type memSnapshot struct {
	productos     map[uuid.UUID]model.Producto
	pedidos       map[uuid.UUID]model.Pedido
	lineas        []model.PedidoLinea
	movimientos   []model.MovimientoStock
	comisiones    []model.Comision
	transacciones []model.Transaccion
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		productos:     make(map[uuid.UUID]model.Producto, len(s.productos)),
		pedidos:       make(map[uuid.UUID]model.Pedido, len(s.pedidos)),
		lineas:        append([]model.PedidoLinea(nil), s.lineas...),
		movimientos:   append([]model.MovimientoStock(nil), s.movimientos...),
		comisiones:    append([]model.Comision(nil), s.comisiones...),
		transacciones: append([]model.Transaccion(nil), s.transacciones...),
	}
	for k, v := range s.productos {
		snap.productos[k] = v
	}
	for k, v := range s.pedidos {
		snap.pedidos[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.productos = snap.productos
	s.pedidos = snap.pedidos
	s.lineas = snap.lineas
	s.movimientos = snap.movimientos
	s.comisiones = snap.comisiones
	s.transacciones = snap.transacciones
}

func (s *memStore) RunTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

var _ repository.TxRunner = (*memStore)(nil)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: constraint}
}

// ── Stub repositories ─────────────────────────────────────────────────────────

type stubProductoRepo struct{ s *memStore }

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.productos[p.ID] = *p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.FindByIDTx(nil, id)
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.s.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *stubProductoRepo) DescontarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) (bool, error) {
	p, ok := r.s.productos[id]
	if !ok || !p.Activo || p.Stock < cantidad {
		return false, nil
	}
	p.Stock -= cantidad
	r.s.productos[id] = p
	return true, nil
}

func (r *stubProductoRepo) IncrementarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) (bool, error) {
	p, ok := r.s.productos[id]
	if !ok {
		return false, nil
	}
	p.Stock += cantidad
	r.s.productos[id] = p
	return true, nil
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

type stubMovimientoRepo struct{ s *memStore }

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.s.movimientos = append(r.s.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) ListByProducto(_ context.Context, productoID uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range r.s.movimientos {
		if m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return paginar(out, page, limit), int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

type stubTiendaRepo struct{ s *memStore }

func (r *stubTiendaRepo) Create(_ context.Context, t *model.Tienda) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.tiendas[t.ID] = *t
	return nil
}

func (r *stubTiendaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tienda, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tiendas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

var _ repository.TiendaRepository = (*stubTiendaRepo)(nil)

type stubPedidoRepo struct{ s *memStore }

func (r *stubPedidoRepo) CreateTx(_ *gorm.DB, p *model.Pedido) error {
	if p.ClaveIdempotencia != nil {
		for _, existente := range r.s.pedidos {
			if existente.TiendaID == p.TiendaID && existente.ClaveIdempotencia != nil &&
				*existente.ClaveIdempotencia == *p.ClaveIdempotencia {
				return uniqueViolation(repository.IndicePedidoClave)
			}
		}
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	row := *p
	row.Lineas = nil
	r.s.pedidos[p.ID] = row
	for i := range p.Lineas {
		if err := r.CreateLineaTx(nil, &p.Lineas[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubPedidoRepo) CreateLineaTx(_ *gorm.DB, l *model.PedidoLinea) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	r.s.lineas = append(r.s.lineas, *l)
	return nil
}

func (r *stubPedidoRepo) cargar(id uuid.UUID, conProducto bool) (*model.Pedido, error) {
	p, ok := r.s.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.Lineas = nil
	for _, l := range r.s.lineas {
		if l.PedidoID != id {
			continue
		}
		if conProducto {
			if prod, ok := r.s.productos[l.ProductoID]; ok {
				l.Producto = &prod
			}
		}
		p.Lineas = append(p.Lineas, l)
	}
	return &p, nil
}

func (r *stubPedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.cargar(id, true)
}

func (r *stubPedidoRepo) FindByClave(_ context.Context, tiendaID uuid.UUID, clave string) (*model.Pedido, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.pedidos {
		if p.TiendaID == tiendaID && p.ClaveIdempotencia != nil && *p.ClaveIdempotencia == clave {
			return r.cargar(id, true)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPedidoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Pedido, error) {
	return r.cargar(id, false)
}

func (r *stubPedidoRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado model.EstadoPedido) error {
	p, ok := r.s.pedidos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Estado = estado
	r.s.pedidos[id] = p
	return nil
}

func (r *stubPedidoRepo) UpdateTotalTx(_ *gorm.DB, p *model.Pedido) error {
	row, ok := r.s.pedidos[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Total = p.Total
	r.s.pedidos[p.ID] = row
	return nil
}

func (r *stubPedidoRepo) List(_ context.Context, filter dto.PedidoFilter) ([]model.Pedido, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Pedido
	for id, p := range r.s.pedidos {
		if p.TiendaID.String() != filter.TiendaID {
			continue
		}
		if filter.Estado != "" && string(p.Estado) != filter.Estado {
			continue
		}
		full, _ := r.cargar(id, false)
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginar(out, filter.Page, filter.Limit), int64(len(out)), nil
}

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

type stubComisionRepo struct {
	s *memStore
	// ocultarExistentes makes the existence check miss, so only the unique
	// index stops a duplicate (the lost-race path).
	ocultarExistentes bool
}

func (r *stubComisionRepo) ExistePlatformFeeTx(_ *gorm.DB, pedidoID uuid.UUID) (bool, error) {
	if r.ocultarExistentes {
		return false, nil
	}
	return r.tienePlatformFee(pedidoID), nil
}

func (r *stubComisionRepo) tienePlatformFee(pedidoID uuid.UUID) bool {
	for _, c := range r.s.comisiones {
		if c.Tipo == model.ComisionPlatformFee && c.PedidoID != nil && *c.PedidoID == pedidoID {
			return true
		}
	}
	return false
}

func (r *stubComisionRepo) CreateTx(_ *gorm.DB, c *model.Comision) error {
	if c.Tipo == model.ComisionPlatformFee && c.PedidoID != nil && r.tienePlatformFee(*c.PedidoID) {
		return uniqueViolation(repository.IndiceComisionPlatformFee)
	}
	c.CreatedAt = time.Now()
	r.s.comisiones = append(r.s.comisiones, *c)
	return nil
}

func (r *stubComisionRepo) ListByPedido(_ context.Context, pedidoID uuid.UUID) ([]model.Comision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Comision
	for _, c := range r.s.comisiones {
		if c.PedidoID != nil && *c.PedidoID == pedidoID {
			out = append(out, c)
		}
	}
	return out, nil
}

var _ repository.ComisionRepository = (*stubComisionRepo)(nil)

type stubTransaccionRepo struct{ s *memStore }

func (r *stubTransaccionRepo) CreateTx(_ *gorm.DB, t *model.Transaccion) error {
	if !t.Monto.IsPositive() {
		return &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "transacciones_monto_check"}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.transacciones = append(r.s.transacciones, *t)
	return nil
}

func (r *stubTransaccionRepo) BloquearUsuarioTx(_ *gorm.DB, _ uuid.UUID) error { return nil }

func (r *stubTransaccionRepo) SaldoTx(_ *gorm.DB, usuarioID uuid.UUID) (decimal.Decimal, error) {
	return model.CalcularSaldo(r.delUsuario(usuarioID)), nil
}

func (r *stubTransaccionRepo) Saldo(_ context.Context, usuarioID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.SaldoTx(nil, usuarioID)
}

func (r *stubTransaccionRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.transacciones {
		if r.s.transacciones[i].ID == id {
			r.s.transacciones[i].Estado = estado
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubTransaccionRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID, page, limit int) ([]model.Transaccion, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	txs := r.delUsuario(usuarioID)
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
	return paginar(txs, page, limit), int64(len(txs)), nil
}

func (r *stubTransaccionRepo) delUsuario(usuarioID uuid.UUID) []model.Transaccion {
	var out []model.Transaccion
	for _, t := range r.s.transacciones {
		if t.UsuarioID == usuarioID {
			out = append(out, t)
		}
	}
	return out
}

var _ repository.TransaccionRepository = (*stubTransaccionRepo)(nil)

func paginar[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ── Side-effect recorders ─────────────────────────────────────────────────────

type recordingPublisher struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) tipos() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.envs))
	for _, e := range p.envs {
		out = append(out, e.EventType)
	}
	return out
}

var _ events.Publisher = (*recordingPublisher)(nil)

type recordingNotificador struct {
	mu       sync.Mutex
	payloads []worker.NotificacionPayload
}

func (n *recordingNotificador) EncolarNotificacion(_ context.Context, p worker.NotificacionPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	return nil
}

var _ service.Notificador = (*recordingNotificador)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	store         *memStore
	productoRepo  *stubProductoRepo
	tiendaRepo    *stubTiendaRepo
	pedidoRepo    *stubPedidoRepo
	comisionRepo  *stubComisionRepo
	txRepo        *stubTransaccionRepo
	publisher     *recordingPublisher
	notificador   *recordingNotificador
	plataformaID  uuid.UUID
	inventario    service.InventarioService
	pedidos       service.PedidoService
	comisiones    service.ComisionService
	transacciones service.TransaccionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	f := &fixture{
		store:        s,
		productoRepo: &stubProductoRepo{s: s},
		tiendaRepo:   &stubTiendaRepo{s: s},
		pedidoRepo:   &stubPedidoRepo{s: s},
		comisionRepo: &stubComisionRepo{s: s},
		txRepo:       &stubTransaccionRepo{s: s},
		publisher:    &recordingPublisher{},
		notificador:  &recordingNotificador{},
		plataformaID: uuid.New(),
	}
	f.inventario = service.NewInventarioService(f.productoRepo, &stubMovimientoRepo{s: s})
	f.pedidos = service.NewPedidoService(s, f.pedidoRepo, f.tiendaRepo, f.inventario, f.publisher, f.notificador)
	f.comisiones = service.NewComisionService(s, f.pedidoRepo, f.tiendaRepo, f.comisionRepo, f.txRepo, f.publisher,
		service.ComisionConfig{Tasa: decimal.RequireFromString("0.10"), PlataformaID: f.plataformaID, Moneda: "COP"})
	f.transacciones = service.NewTransaccionService(s, f.txRepo, f.publisher, "COP")
	return f
}

func (f *fixture) tienda(t *testing.T) model.Tienda {
	t.Helper()
	tienda := model.Tienda{ID: uuid.New(), UsuarioID: uuid.New(), Nombre: "Tienda Centro", Activa: true}
	require.NoError(t, f.tiendaRepo.Create(context.Background(), &tienda))
	return tienda
}

func (f *fixture) producto(t *testing.T, tiendaID uuid.UUID, precio string, stock int) model.Producto {
	t.Helper()
	p := model.Producto{
		ID:       uuid.New(),
		TiendaID: tiendaID,
		Nombre:   "Producto " + precio,
		Precio:   decimal.RequireFromString(precio),
		Stock:    stock,
		Activo:   true,
	}
	require.NoError(t, f.productoRepo.Create(context.Background(), &p))
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.productoRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) contar() (pedidos, comisiones, transacciones int) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.pedidos), len(f.store.comisiones), len(f.store.transacciones)
}

func pedidoReq(tiendaID uuid.UUID, lineas ...dto.LineaPedidoRequest) dto.CrearPedidoRequest {
	return dto.CrearPedidoRequest{
		TiendaID:      tiendaID.String(),
		ClienteNombre: "Ana Pérez",
		ClienteEmail:  "ana@example.com",
		MetodoPago:    "Efectivo",
		Lineas:        lineas,
	}
}

func linea(productoID uuid.UUID, cantidad int) dto.LineaPedidoRequest {
	return dto.LineaPedidoRequest{ProductoID: productoID.String(), Cantidad: cantidad}
}

func (f *fixture) editarProducto(id uuid.UUID, fn func(p *model.Producto)) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p := f.store.productos[id]
	fn(&p)
	f.store.productos[id] = p
}

func (f *fixture) borrarProducto(id uuid.UUID) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	delete(f.store.productos, id)
}
