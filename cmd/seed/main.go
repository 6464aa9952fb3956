// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/customer"
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/domain/catalogs/partner"
	"tillbook/internal/domain/catalogs/warehouse"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/internal/infrastructure/storage/postgres/catalog_repo"
	"tillbook/internal/infrastructure/storage/postgres/invoice_repo"
	"tillbook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	employees := catalog_repo.NewEmployeeRepo(txManager)
	warehouses := catalog_repo.NewWarehouseRepo(txManager)
	customers := catalog_repo.NewCustomerRepo(txManager)
	partners := catalog_repo.NewPartnerRepo(txManager)

	if err := seedAdmin(ctx, txManager, employees, log); err != nil {
		log.Fatalw("failed to seed admin employee", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txManager, employees, warehouses, customers, partners, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}

		invoices := invoice_repo.NewInvoiceRepo(txManager)
		if err := seedDemoInvoices(ctx, txManager, customers, invoices, log); err != nil {
			log.Fatalw("failed to seed demo invoices", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdmin(ctx context.Context, txManager *postgres.TxManager, repo employee.Repository, log *logger.Logger) error {
	adminPIN := os.Getenv("ADMIN_PIN")
	if adminPIN == "" {
		adminPIN = "00000000"
	}

	admin := employee.NewEmployee("ADMIN", "Administrator", employee.RoleAdmin)
	if err := admin.SetPIN(adminPIN); err != nil {
		return err
	}

	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.Create(ctx, admin)
	})
	if isDuplicate(err) {
		log.Info("admin employee already exists")
		return nil
	}
	if err != nil {
		return err
	}

	log.Infow("admin employee created", "employee_id", admin.ID, "code", admin.Code)
	return nil
}

func seedDemoData(
	ctx context.Context,
	txManager *postgres.TxManager,
	employees employee.Repository,
	warehouses warehouse.Repository,
	customers customer.Repository,
	partners partner.Repository,
	log *logger.Logger,
) error {
	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cashier := employee.NewEmployee("EMP-001", "Dewi Lestari", employee.RoleCashier)
		if err := cashier.SetPIN("1234"); err != nil {
			return err
		}
		manager := employee.NewEmployee("EMP-002", "Budi Santoso", employee.RoleManager)
		if err := manager.SetPIN("5678"); err != nil {
			return err
		}
		for _, e := range []*employee.Employee{cashier, manager} {
			if err := employees.Create(ctx, e); err != nil && !isDuplicate(err) {
				return fmt.Errorf("create employee %s: %w", e.Code, err)
			}
		}

		mainStore := warehouse.NewWarehouse("WH-MAIN", "Main Store")
		addr := "Jl. Sudirman 12"
		mainStore.Address = &addr
		if err := warehouses.Create(ctx, mainStore); err != nil && !isDuplicate(err) {
			return fmt.Errorf("create warehouse: %w", err)
		}

		retail := customer.NewCustomer("CUST-001", "Toko Maju Jaya")
		limit := types.MustMoney("5000000")
		retail.CreditLimit = &limit
		walkIn := customer.NewCustomer("CUST-002", "Walk-in Customer")
		for _, c := range []*customer.Customer{retail, walkIn} {
			if err := customers.Create(ctx, c); err != nil && !isDuplicate(err) {
				return fmt.Errorf("create customer %s: %w", c.Code, err)
			}
		}

		supplier := partner.NewPartner("SUP-001", "PT Sumber Makmur", partner.TypeSupplier)
		if err := partners.Create(ctx, supplier); err != nil && !isDuplicate(err) {
			return fmt.Errorf("create partner: %w", err)
		}

		log.Info("demo catalogs seeded")
		return nil
	})
}

func seedDemoInvoices(
	ctx context.Context,
	txManager *postgres.TxManager,
	customers customer.Repository,
	invoices invoice.Repository,
	log *logger.Logger,
) error {
	retail, err := customers.GetByCode(ctx, "CUST-001")
	if err != nil {
		return fmt.Errorf("find demo customer: %w", err)
	}

	now := time.Now().UTC()
	overdue := now.AddDate(0, 0, -45)
	overdueDue := overdue.AddDate(0, 0, 14)
	recent := now.AddDate(0, 0, -5)
	recentDue := recent.AddDate(0, 0, 30)

	demo := []*invoice.Invoice{
		invoice.NewInvoice("INV-2026-0001", retail.ID, overdue, &overdueDue, types.MustMoney("1250000")),
		invoice.NewInvoice("INV-2026-0002", retail.ID, recent, &recentDue, types.MustMoney("480000")),
	}

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, inv := range demo {
			if err := invoices.Create(ctx, inv); err != nil && !isDuplicate(err) {
				return fmt.Errorf("create invoice %s: %w", inv.Number, err)
			}
		}
		log.Info("demo invoices seeded")
		return nil
	})
}

func isDuplicate(err error) bool {
	return apperror.IsCode(err, apperror.CodeDuplicate) || apperror.IsCode(err, apperror.CodeDuplicateCode)
}
