package router

import (
	"context"

	"tiendaapi/internal/config"
	"tiendaapi/internal/events"
	"tiendaapi/internal/handler"
	"tiendaapi/internal/infra"
	"tiendaapi/internal/middleware"
	"tiendaapi/internal/repository"
	"tiendaapi/internal/service"
	"tiendaapi/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds background goroutines owned by the router (rate limiter janitor).
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, pub events.Publisher, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())

	// ── Repositories ─────────────────────────────────────────────────────────
	txRunner := repository.NewTxRunner(db, repository.TxOptions{Timeout: cfg.TxTimeout, MaxIntentos: cfg.TxMaxIntentos})
	productoRepo := repository.NewProductoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	tiendaRepo := repository.NewTiendaRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)
	comisionRepo := repository.NewComisionRepository(db)
	transaccionRepo := repository.NewTransaccionRepository(db)

	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo)
	productoSvc := service.NewProductoService(productoRepo, rdb, cfg.ProductoCacheTTL)
	pedidoSvc := service.NewPedidoService(txRunner, pedidoRepo, tiendaRepo, inventarioSvc, pub, dispatcher)
	comisionSvc := service.NewComisionService(txRunner, pedidoRepo, tiendaRepo, comisionRepo, transaccionRepo, pub,
		service.ComisionConfig{Tasa: cfg.TasaComision(), PlataformaID: cfg.PlataformaID(), Moneda: cfg.MonedaDefault})
	transaccionSvc := service.NewTransaccionService(txRunner, transaccionRepo, pub, cfg.MonedaDefault)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productosH := handler.NewProductosHandler(productoSvc, inventarioSvc)
	pedidosH := handler.NewPedidosHandler(pedidoSvc)
	comisionesH := handler.NewComisionesHandler(comisionSvc)
	transaccionesH := handler.NewTransaccionesHandler(transaccionSvc, cfg.MonedaDefault)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	r.GET("/v1/productos/:id", productosH.ObtenerPorID)

	tenderoOAdmin := middleware.RequireRole(middleware.RolTendero, middleware.RolAdmin)
	soloAdmin := middleware.RequireRole(middleware.RolAdmin)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/productos/:id/movimientos", tenderoOAdmin, productosH.Movimientos)

		v1.POST("/pedidos", pedidosH.Crear)
		v1.GET("/pedidos/:id", pedidosH.Obtener)
		v1.POST("/pedidos/:id/lineas", pedidosH.AgregarLinea)
		v1.PUT("/pedidos/:id/estado", tenderoOAdmin, pedidosH.ActualizarEstado)
		v1.GET("/tiendas/:id/pedidos", tenderoOAdmin, pedidosH.ListarPorTienda)

		v1.POST("/comisiones/calcular/:pedidoId", tenderoOAdmin, comisionesH.Calcular)
		v1.GET("/comisiones/pedido/:pedidoId", soloAdmin, comisionesH.ListarPorPedido)

		// Ownership (caller == usuario or Admin) is checked in the handlers.
		v1.POST("/transacciones", transaccionesH.Registrar)
		v1.GET("/transacciones/usuario/:usuarioId", transaccionesH.ListarPorUsuario)
		v1.GET("/transacciones/saldo/:usuarioId", transaccionesH.Saldo)
		v1.PUT("/transacciones/:id/estado", soloAdmin, transaccionesH.ActualizarEstado)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
