// Package memory provides an in-memory implementation of every repository
// interface. It backs the test suite and dev mode when no DATABASE_URL is
// configured; PostgreSQL is the production store.
package memory

import (
	"context"
	"sync"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/domain/catalogs/customer"
	"tillbook/internal/domain/catalogs/employee"
	"tillbook/internal/domain/catalogs/partner"
	"tillbook/internal/domain/catalogs/warehouse"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/domain/shift"
)

type balanceKey struct {
	productID   id.ID
	warehouseID id.ID
}

// DeletionRecord is one audited administrative delete.
type DeletionRecord struct {
	Transaction ledger.Transaction
	Reason      string
	DeletedBy   string
	DeletedAt   time.Time
}

// Store holds all ledger state behind a single mutex.
type Store struct {
	mu sync.RWMutex

	transactions map[id.ID]*ledger.Transaction
	txCodes      map[string]id.ID

	shifts map[id.ID]*shift.Shift
	// openShifts indexes the open shift per (employee, warehouse) pair,
	// standing in for the partial unique index of the postgres store.
	openShifts map[openShiftKey]id.ID

	invoices  map[id.ID]*invoice.Invoice
	movements []stock.Movement
	balances  map[balanceKey]stock.Balance

	deletionAudit []DeletionRecord

	Customers  *CatalogRepo[customer.Customer, *customer.Customer]
	Partners   *CatalogRepo[partner.Partner, *partner.Partner]
	Warehouses *CatalogRepo[warehouse.Warehouse, *warehouse.Warehouse]
	Employees  *CatalogRepo[employee.Employee, *employee.Employee]
}

type openShiftKey struct {
	employeeID  id.ID
	warehouseID id.ID
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[id.ID]*ledger.Transaction),
		txCodes:      make(map[string]id.ID),
		shifts:       make(map[id.ID]*shift.Shift),
		openShifts:   make(map[openShiftKey]id.ID),
		invoices:     make(map[id.ID]*invoice.Invoice),
		balances:     make(map[balanceKey]stock.Balance),
		Customers:    NewCatalogRepo[customer.Customer, *customer.Customer]("customer"),
		Partners:     NewCatalogRepo[partner.Partner, *partner.Partner]("partner"),
		Warehouses:   NewCatalogRepo[warehouse.Warehouse, *warehouse.Warehouse]("warehouse"),
		Employees:    NewCatalogRepo[employee.Employee, *employee.Employee]("employee"),
	}
}

// DeletionAudit returns a copy of the audit trail.
func (s *Store) DeletionAudit() []DeletionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DeletionRecord, len(s.deletionAudit))
	copy(out, s.deletionAudit)
	return out
}

// --- snapshot / restore ---

type snapshot struct {
	transactions map[id.ID]*ledger.Transaction
	txCodes      map[string]id.ID
	shifts       map[id.ID]*shift.Shift
	openShifts   map[openShiftKey]id.ID
	invoices     map[id.ID]*invoice.Invoice
	movements    []stock.Movement
	balances     map[balanceKey]stock.Balance
	auditLen     int
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		transactions: make(map[id.ID]*ledger.Transaction, len(s.transactions)),
		txCodes:      make(map[string]id.ID, len(s.txCodes)),
		shifts:       make(map[id.ID]*shift.Shift, len(s.shifts)),
		openShifts:   make(map[openShiftKey]id.ID, len(s.openShifts)),
		invoices:     make(map[id.ID]*invoice.Invoice, len(s.invoices)),
		movements:    make([]stock.Movement, len(s.movements)),
		balances:     make(map[balanceKey]stock.Balance, len(s.balances)),
		auditLen:     len(s.deletionAudit),
	}
	for k, v := range s.transactions {
		cp := *v
		snap.transactions[k] = &cp
	}
	for k, v := range s.txCodes {
		snap.txCodes[k] = v
	}
	for k, v := range s.shifts {
		cp := *v
		snap.shifts[k] = &cp
	}
	for k, v := range s.openShifts {
		snap.openShifts[k] = v
	}
	for k, v := range s.invoices {
		cp := *v
		snap.invoices[k] = &cp
	}
	copy(snap.movements, s.movements)
	for k, v := range s.balances {
		snap.balances[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = snap.transactions
	s.txCodes = snap.txCodes
	s.shifts = snap.shifts
	s.openShifts = snap.openShifts
	s.invoices = snap.invoices
	s.movements = snap.movements
	s.balances = snap.balances
	if len(s.deletionAudit) > snap.auditLen {
		s.deletionAudit = s.deletionAudit[:snap.auditLen]
	}
}

// --- transaction manager ---

type txKeyType struct{}

var txKey txKeyType

// TxManager provides transactional semantics over the in-memory store:
// transactions serialize on a mutex, and a failed function restores the
// store from a snapshot taken at begin. Nested calls join the outer
// transaction.
type TxManager struct {
	store *Store
	txMu  sync.Mutex
}

// NewTxManager creates a transaction manager for the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.store.snapshot()
	err := fn(context.WithValue(ctx, txKey, struct{}{}))
	if err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager. The in-memory store has no
// read-only enforcement; the call just runs the function.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
