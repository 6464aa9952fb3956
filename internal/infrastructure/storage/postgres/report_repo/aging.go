// Package report_repo provides PostgreSQL read models for reports.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/domain/aging"
	"tillbook/internal/infrastructure/storage/postgres"
)

// AgingRepo implements aging.Repository.
type AgingRepo struct {
	txManager *postgres.TxManager
}

// NewAgingRepo creates a new aging report repository.
func NewAgingRepo(txManager *postgres.TxManager) *AgingRepo {
	return &AgingRepo{txManager: txManager}
}

var _ aging.Repository = (*AgingRepo)(nil)

// ListOutstanding returns every unpaid invoice slice with its customer,
// as of the reference date. The bucketing happens in the service; the
// read model only delivers the rows.
func (r *AgingRepo) ListOutstanding(ctx context.Context, asOf time.Time) ([]aging.OutstandingItem, error) {
	sql := `
		SELECT i.customer_id,
		       c.code AS customer_code,
		       c.name AS customer_name,
		       i.id AS invoice_id,
		       i.due_date,
		       i.total - i.paid_amount AS outstanding
		FROM doc_invoices i
		JOIN cat_customers c ON c.id = i.customer_id
		WHERE i.total > i.paid_amount
		  AND i.issue_date <= $1
		ORDER BY c.code, i.due_date NULLS LAST
	`

	var items []aging.OutstandingItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, asOf); err != nil {
		return nil, fmt.Errorf("select outstanding invoices: %w", err)
	}

	return items, nil
}
