// Package invoice_repo provides the PostgreSQL implementation of the
// invoice repository.
package invoice_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
	"tillbook/internal/domain/invoice"
	"tillbook/internal/infrastructure/storage/postgres"
)

const invoicesTable = "doc_invoices"

var invoiceCols = postgres.ExtractDBColumns[invoice.Invoice]()

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	data := postgres.StructToMap(inv)

	q := r.builder.Insert(invoicesTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate("invoice", "number", inv.Number)
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewReferenceNotFound("customer", inv.CustomerID.String()).WithCause(err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, invID id.ID) (*invoice.Invoice, error) {
	q := r.builder.Select(invoiceCols...).
		From(invoicesTable).
		Where(squirrel.Eq{"id": invID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv invoice.Invoice
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", invID.String())
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	return &inv, nil
}

func (r *InvoiceRepo) Exists(ctx context.Context, invID id.ID) (bool, error) {
	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM doc_invoices WHERE id = $1)",
		invID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice exists: %w", err)
	}
	return exists, nil
}

// ApplyPayment locks the invoice row and applies the payment through the
// domain method, so the overpayment rule lives in exactly one place.
func (r *InvoiceRepo) ApplyPayment(ctx context.Context, invID id.ID, amount types.Money, at time.Time) (*invoice.Invoice, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("ApplyPayment requires transaction context")
	}

	inv, err := r.getForUpdate(ctx, invID)
	if err != nil {
		return nil, err
	}
	if err := inv.ApplyPayment(amount, at); err != nil {
		return nil, err
	}

	return r.savePayment(ctx, inv)
}

func (r *InvoiceRepo) RevertPayment(ctx context.Context, invID id.ID, amount types.Money, at time.Time) (*invoice.Invoice, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("RevertPayment requires transaction context")
	}

	inv, err := r.getForUpdate(ctx, invID)
	if err != nil {
		return nil, err
	}
	if err := inv.RevertPayment(amount, at); err != nil {
		return nil, err
	}

	return r.savePayment(ctx, inv)
}

func (r *InvoiceRepo) getForUpdate(ctx context.Context, invID id.ID) (*invoice.Invoice, error) {
	q := r.builder.Select(invoiceCols...).
		From(invoicesTable).
		Where(squirrel.Eq{"id": invID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv invoice.Invoice
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", invID.String())
		}
		return nil, fmt.Errorf("get invoice for update: %w", err)
	}

	return &inv, nil
}

func (r *InvoiceRepo) savePayment(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	q := r.builder.Update(invoicesTable).
		Set("paid_amount", inv.PaidAmount).
		Set("status", inv.Status).
		Set("updated_at", inv.UpdatedAt).
		Set("version", inv.Version).
		Where(squirrel.Eq{"id": inv.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	return inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, filter invoice.Filter) (domain.ListResult[*invoice.Invoice], error) {
	result := domain.ListResult[*invoice.Invoice]{
		Limit:  domain.ClampLimit(filter.Limit, 50, 500),
		Offset: filter.Offset,
	}

	var conds []squirrel.Sqlizer
	if filter.CustomerID != nil {
		conds = append(conds, squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Status != "" {
		conds = append(conds, squirrel.Eq{"status": filter.Status})
	}
	if filter.OutstandingOnly {
		conds = append(conds, squirrel.Expr("total > paid_amount"))
	}
	if filter.DueBefore != nil {
		conds = append(conds, squirrel.Lt{"due_date": *filter.DueBefore})
	}

	countQ := r.builder.Select("COUNT(*)").From(invoicesTable)
	q := r.builder.Select(invoiceCols...).From(invoicesTable)
	for _, c := range conds {
		countQ = countQ.Where(c)
		q = q.Where(c)
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count invoices: %w", err)
	}

	q = q.OrderBy("number ASC").
		Limit(uint64(result.Limit)).
		Offset(uint64(result.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var items []*invoice.Invoice
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return result, fmt.Errorf("select invoices: %w", err)
	}

	result.Items = items
	return result, nil
}
