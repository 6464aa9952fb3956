// Package main is the entry point for the tillbook API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tillbook/internal/cache"
	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
	"tillbook/internal/core/tx"
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
	v1 "tillbook/internal/infrastructure/http/v1"
	"tillbook/internal/infrastructure/storage/memory"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/internal/infrastructure/storage/postgres/catalog_repo"
	"tillbook/internal/infrastructure/storage/postgres/invoice_repo"
	"tillbook/internal/infrastructure/storage/postgres/ledger_repo"
	"tillbook/internal/infrastructure/storage/postgres/register_repo"
	"tillbook/internal/infrastructure/storage/postgres/report_repo"
	"tillbook/internal/infrastructure/storage/postgres/shift_repo"
	"tillbook/pkg/logger"
)

// repos collects every repository the services are built from, so the
// postgres and in-memory assemblies share one wiring path.
type repos struct {
	txManager tx.Manager
	generator sequence.Generator
	audit     ledger.AuditSink
	auditRead ledger.AuditReader

	ledger     ledger.Repository
	shifts     shift.Repository
	invoices   invoice.Repository
	stock      stock.Repository
	aging      aging.Repository
	customers  customer.Repository
	partners   partner.Repository
	warehouses warehouse.Repository
	employees  employee.Repository
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting tillbook server")

	// --- Storage ---
	var (
		r    repos
		pool *postgres.Pool
	)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err = postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		txManager := postgres.NewTxManager(pool)
		auditService, err := postgres.NewAuditService(txManager)
		if err != nil {
			log.Fatalw("failed to initialize audit service", "error", err)
		}

		r = repos{
			txManager:  txManager,
			generator:  postgres.NewSequenceGenerator(txManager),
			audit:      auditService,
			auditRead:  auditService,
			ledger:     ledger_repo.NewLedgerRepo(txManager),
			shifts:     shift_repo.NewShiftRepo(txManager),
			invoices:   invoice_repo.NewInvoiceRepo(txManager),
			stock:      register_repo.NewStockRepo(txManager),
			aging:      report_repo.NewAgingRepo(txManager),
			customers:  catalog_repo.NewCustomerRepo(txManager),
			partners:   catalog_repo.NewPartnerRepo(txManager),
			warehouses: catalog_repo.NewWarehouseRepo(txManager),
			employees:  catalog_repo.NewEmployeeRepo(txManager),
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")

		store := memory.NewStore()
		auditRepo := memory.NewAuditRepo(store)
		r = repos{
			txManager:  memory.NewTxManager(store),
			generator:  sequence.NewMemoryGenerator(),
			audit:      auditRepo,
			auditRead:  auditRepo,
			ledger:     memory.NewLedgerRepo(store),
			shifts:     memory.NewShiftRepo(store),
			invoices:   memory.NewInvoiceRepo(store),
			stock:      memory.NewStockRepo(store),
			aging:      memory.NewAgingRepo(store),
			customers:  store.Customers,
			partners:   store.Partners,
			warehouses: store.Warehouses,
			employees:  store.Employees,
		}
	}

	// --- Report cache ---
	var reportCache cache.ReportCache = cache.Noop{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisCache := cache.NewRedis(addr, os.Getenv("REDIS_PASSWORD"), getEnvInt("REDIS_DB", 0))
		if err := redisCache.Ping(ctx); err != nil {
			log.Warnw("redis unreachable, report caching disabled", "error", err)
		} else {
			reportCache = redisCache
			defer redisCache.Close()
			log.Info("redis report cache enabled")
		}
	}

	// --- Services ---
	stockService := stock.NewService(r.stock)
	shiftManager := shift.NewManager(r.shifts, r.employees, r.warehouses, r.txManager)
	ledgerService := ledger.NewService(
		r.ledger, stockService, r.shifts,
		r.customers, r.partners, r.invoices,
		r.generator, r.txManager, r.audit,
	)
	invoiceService := invoice.NewService(r.invoices, r.customers, r.txManager)
	reconciliationService := reconciliation.NewService(r.shifts, r.ledger, reportCache)
	agingService := aging.NewService(r.aging, reportCache)

	// A closed shift gets a fresh summary on the next request, and
	// post-close overrides (transition, administrative delete) drop the
	// cached one.
	shiftManager.WithCloseHook(func(ctx context.Context, s *shift.Shift) {
		reconciliationService.InvalidateSummary(ctx, s.ID)
	})
	ledgerService.WithShiftChangeHook(func(ctx context.Context, shiftID id.ID) {
		reconciliationService.InvalidateSummary(ctx, shiftID)
	})

	customerService := customer.NewService(r.customers, r.txManager)
	partnerService := partner.NewService(r.partners, r.txManager)
	warehouseService := warehouse.NewService(r.warehouses, r.txManager)
	employeeService := employee.NewService(r.employees, r.txManager)

	// --- Auth ---
	jwtSecret := getEnv("JWT_SECRET", "change-me-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(r.employees, jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		Ledger:         ledgerService,
		LedgerAudit:    r.auditRead,
		Shifts:         shiftManager,
		Invoices:       invoiceService,
		Stock:          stockService,
		Reconciliation: reconciliationService,
		Aging:          agingService,
		Customers:      customerService,
		Partners:       partnerService,
		Warehouses:     warehouseService,
		Employees:      employeeService,
	})

	if pool != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				postgres.LogPoolStats(ctx, pool.Pool)
			}
		}()
	}

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}
