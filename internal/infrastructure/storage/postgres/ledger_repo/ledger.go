// Package ledger_repo provides the PostgreSQL implementation of the
// transaction ledger repository.
package ledger_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/infrastructure/storage/postgres"
)

const transactionsTable = "doc_transactions"

var transactionCols = postgres.ExtractDBColumns[ledger.Transaction]()

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*LedgerRepo)(nil)

func (r *LedgerRepo) Create(ctx context.Context, tx *ledger.Transaction) error {
	data := postgres.StructToMap(tx)

	q := r.builder.Insert(transactionsTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "doc_transactions_code_key") {
			return apperror.NewDuplicateCode(tx.Code)
		}
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewConflict("transaction already exists")
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewReferenceNotFound("transaction reference", tx.ID.String()).WithCause(err)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

func (r *LedgerRepo) GetByID(ctx context.Context, txID id.ID) (*ledger.Transaction, error) {
	q := r.builder.Select(transactionCols...).
		From(transactionsTable).
		Where(squirrel.Eq{"id": txID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tx ledger.Transaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tx, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", txID.String())
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return &tx, nil
}

func (r *LedgerRepo) UpdateMutable(ctx context.Context, tx *ledger.Transaction) error {
	q := r.builder.Update(transactionsTable).
		Set("notes", tx.Notes).
		Set("due_date", tx.DueDate).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": tx.ID}).
		Where(squirrel.Eq{"version": tx.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("transaction", tx.ID.String())
	}

	tx.Version++
	return nil
}

// TransitionStatus performs the status change as a single conditional
// UPDATE: only a pending row matches, so exactly one concurrent caller
// wins. Losers re-read the row to distinguish an idempotent repeat from
// an illegal transition.
func (r *LedgerRepo) TransitionStatus(ctx context.Context, txID id.ID, next ledger.Status, at time.Time) (*ledger.Transaction, bool, error) {
	utc := at.UTC()
	querier := r.txManager.GetQuerier(ctx)

	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = $1,
		    transaction_date = CASE
		        WHEN $1 = 'completed' AND transaction_date IS NULL THEN $2
		        ELSE transaction_date
		    END,
		    updated_at = $2,
		    version = version + 1
		WHERE id = $3 AND status = 'pending'
		RETURNING %s
	`, transactionsTable, strings.Join(transactionCols, ", "))

	var tx ledger.Transaction
	err := pgxscan.Get(ctx, querier, &tx, sql, string(next), utc, txID)
	if err == nil {
		return &tx, true, nil
	}
	if !pgxscan.NotFound(err) {
		return nil, false, fmt.Errorf("transition status: %w", err)
	}

	// No pending row matched: either the transaction does not exist, the
	// transition was already applied, or the row is in another terminal
	// state.
	cur, getErr := r.GetByID(ctx, txID)
	if getErr != nil {
		return nil, false, getErr
	}
	if cur.Status == next {
		return cur, false, nil
	}
	return nil, false, apperror.NewInvalidStateTransition("transaction", string(cur.Status), string(next)).
		WithDetail("transaction_id", txID.String())
}

func (r *LedgerRepo) Delete(ctx context.Context, txID id.ID) error {
	q := r.builder.Delete(transactionsTable).
		Where(squirrel.Eq{"id": txID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("transaction", txID.String())
	}

	return nil
}

func (r *LedgerRepo) List(ctx context.Context, filter ledger.Filter) (domain.ListResult[*ledger.Transaction], error) {
	result := domain.ListResult[*ledger.Transaction]{
		Limit:  domain.ClampLimit(filter.Limit, 50, 500),
		Offset: filter.Offset,
	}

	conds := filterConditions(filter)

	countQ := r.builder.Select("COUNT(*)").From(transactionsTable)
	q := r.builder.Select(transactionCols...).From(transactionsTable)
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
		return result, fmt.Errorf("count transactions: %w", err)
	}

	q = q.OrderBy(orderClause(filter.OrderBy)).
		Limit(uint64(result.Limit)).
		Offset(uint64(result.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var items []*ledger.Transaction
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return result, fmt.Errorf("select transactions: %w", err)
	}

	result.Items = items
	return result, nil
}

func (r *LedgerRepo) ListByShift(ctx context.Context, shiftID id.ID) ([]*ledger.Transaction, error) {
	q := r.builder.Select(transactionCols...).
		From(transactionsTable).
		Where(squirrel.Eq{"shift_id": shiftID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*ledger.Transaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select shift transactions: %w", err)
	}

	return items, nil
}

func filterConditions(f ledger.Filter) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if f.CodeContains != "" {
		conds = append(conds, squirrel.Like{"LOWER(code)": "%" + strings.ToLower(f.CodeContains) + "%"})
	}
	if f.Type != "" {
		conds = append(conds, squirrel.Eq{"type": f.Type})
	}
	if f.Status != "" {
		conds = append(conds, squirrel.Eq{"status": f.Status})
	}
	if f.Category != "" {
		conds = append(conds, squirrel.Eq{"category": f.Category})
	}
	if f.CreatedBy != "" {
		conds = append(conds, squirrel.Eq{"created_by": f.CreatedBy})
	}
	if f.CustomerID != nil {
		conds = append(conds, squirrel.Eq{"customer_id": *f.CustomerID})
	}
	if f.PartnerID != nil {
		conds = append(conds, squirrel.Eq{"partner_id": *f.PartnerID})
	}
	if f.InvoiceID != nil {
		conds = append(conds, squirrel.Eq{"invoice_id": *f.InvoiceID})
	}
	if f.ShiftID != nil {
		conds = append(conds, squirrel.Eq{"shift_id": *f.ShiftID})
	}
	if f.DateFrom != nil {
		conds = append(conds, squirrel.GtOrEq{"COALESCE(transaction_date, created_at)": *f.DateFrom})
	}
	if f.DateTo != nil {
		conds = append(conds, squirrel.LtOrEq{"COALESCE(transaction_date, created_at)": *f.DateTo})
	}
	return conds
}

func orderClause(orderBy string) string {
	if orderBy == "" {
		orderBy = "-transaction_date"
	}
	desc := strings.HasPrefix(orderBy, "-")
	col := strings.TrimPrefix(orderBy, "-")
	switch col {
	case "code", "amount", "created_at":
	case "transaction_date":
		col = "COALESCE(transaction_date, created_at)"
	default:
		col = "COALESCE(transaction_date, created_at)"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
