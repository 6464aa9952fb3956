package v1

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/domain/aging"
	"tillbook/internal/domain/auth"
	"tillbook/internal/domain/catalogs/customer"
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/domain/catalogs/partner"
	"tillbook/internal/domain/catalogs/warehouse"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/reconciliation"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/domain/shift"
	"tillbook/internal/infrastructure/http/v1/handlers"
	"tillbook/internal/infrastructure/http/v1/middleware"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	// Pool is the database connection, nil when running on the
	// in-memory store.
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for the login endpoint
	AuthService *auth.Service

	Ledger         *ledger.Service
	LedgerAudit    ledger.AuditReader
	Shifts         *shift.Manager
	Invoices       *invoice.Service
	Stock          *stock.Service
	Reconciliation *reconciliation.Service
	Aging          *aging.Service

	Customers  *customer.Service
	Partners   *partner.Service
	Warehouses *warehouse.Service
	Employees  *employee.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		// Public auth endpoint
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		api.POST("/auth/login", authHandler.Login)

		// Everything else requires a valid token
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerCatalogRoutes(protected, baseHandler, cfg)
		registerLedgerRoutes(protected, baseHandler, cfg)
		registerShiftRoutes(protected, baseHandler, cfg)
		registerInvoiceRoutes(protected, baseHandler, cfg)
		registerRegisterRoutes(protected, baseHandler, cfg)
		registerReportRoutes(protected, baseHandler, cfg)
	}

	return router
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")

	RegisterCatalogRoutes(
		catalogs.Group("/customers"),
		handlers.NewCustomerHandler(base, cfg.Customers),
		"manager",
	)
	RegisterCatalogRoutes(
		catalogs.Group("/partners"),
		handlers.NewPartnerHandler(base, cfg.Partners),
		"manager",
	)
	RegisterCatalogRoutes(
		catalogs.Group("/warehouses"),
		handlers.NewWarehouseHandler(base, cfg.Warehouses),
		"manager",
	)
	// Employee records carry PIN hashes; only admins manage them.
	RegisterCatalogRoutes(
		catalogs.Group("/employees"),
		handlers.NewEmployeeHandler(base, cfg.Employees),
	)
}

// registerLedgerRoutes registers transaction endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewLedgerHandler(base, cfg.Ledger, cfg.LedgerAudit)

	transactions := rg.Group("/transactions")
	transactions.GET("", handler.List)
	transactions.POST("", handler.Create)
	transactions.GET("/:id", handler.Get)
	transactions.PATCH("/:id", handler.Update)
	transactions.POST("/:id/transition", handler.Transition)
	transactions.DELETE("/:id", middleware.RequireAdmin(), handler.Delete)
	transactions.GET("/:id/audit", middleware.RequireAdmin(), handler.DeletionHistory)
}

// registerShiftRoutes registers shift lifecycle endpoints.
func registerShiftRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewShiftHandler(base, cfg.Shifts)

	shifts := rg.Group("/shifts")
	shifts.GET("", handler.List)
	shifts.POST("", handler.Open)
	shifts.GET("/open", handler.GetOpen)
	shifts.GET("/:id", handler.Get)
	shifts.POST("/:id/close", handler.Close)
}

// registerInvoiceRoutes registers invoice endpoints.
func registerInvoiceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewInvoiceHandler(base, cfg.Invoices)

	invoices := rg.Group("/invoices")
	invoices.GET("", handler.List)
	invoices.POST("", middleware.RequireRole("manager"), handler.Create)
	invoices.GET("/:id", handler.Get)
}

// registerRegisterRoutes registers accumulation register endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewStockHandler(base, cfg.Stock)

	stockGroup := rg.Group("/registers/stock")
	stockGroup.GET("/balance", handler.GetBalance)
	stockGroup.GET("/balances/:warehouseId", handler.GetWarehouseStock)
	stockGroup.GET("/movements/:productId", handler.GetMovements)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewReportsHandler(base, cfg.Reconciliation, cfg.Aging)

	reports := rg.Group("/reports")
	reports.GET("/shift-summary/:id", handler.ShiftSummary)
	reports.GET("/aging", middleware.RequireRole("manager"), handler.Aging)
}
