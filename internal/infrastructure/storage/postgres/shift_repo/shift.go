// Package shift_repo provides the PostgreSQL implementation of the shift
// repository.
package shift_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
	"tillbook/internal/domain/shift"
	"tillbook/internal/infrastructure/storage/postgres"
)

const shiftsTable = "doc_shifts"

// openShiftConstraint is a partial unique index:
//
//	CREATE UNIQUE INDEX doc_shifts_open_key
//	ON doc_shifts (employee_id, warehouse_id) WHERE status = 'open'
//
// It is the durable form of the one-open-shift rule; the repository only
// translates its violation into a domain error.
const openShiftConstraint = "doc_shifts_open_key"

var shiftCols = postgres.ExtractDBColumns[shift.Shift]()

// ShiftRepo implements shift.Repository.
type ShiftRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewShiftRepo creates a new shift repository.
func NewShiftRepo(txManager *postgres.TxManager) *ShiftRepo {
	return &ShiftRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ shift.Repository = (*ShiftRepo)(nil)

func (r *ShiftRepo) CreateOpen(ctx context.Context, s *shift.Shift) error {
	data := postgres.StructToMap(s)

	q := r.builder.Insert(shiftsTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, openShiftConstraint) {
			return apperror.NewShiftAlreadyOpen(s.EmployeeID.String())
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewReferenceNotFound("shift reference", s.ID.String()).WithCause(err)
		}
		return fmt.Errorf("insert shift: %w", err)
	}

	return nil
}

func (r *ShiftRepo) GetByID(ctx context.Context, shiftID id.ID) (*shift.Shift, error) {
	q := r.builder.Select(shiftCols...).
		From(shiftsTable).
		Where(squirrel.Eq{"id": shiftID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s shift.Shift
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("shift", shiftID.String())
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}

	return &s, nil
}

func (r *ShiftRepo) GetOpen(ctx context.Context, employeeID, warehouseID id.ID) (*shift.Shift, error) {
	q := r.builder.Select(shiftCols...).
		From(shiftsTable).
		Where(squirrel.Eq{
			"employee_id":  employeeID,
			"warehouse_id": warehouseID,
			"status":       shift.StatusOpen,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s shift.Shift
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("open shift", employeeID.String())
		}
		return nil, fmt.Errorf("get open shift: %w", err)
	}

	return &s, nil
}

// Close is a single conditional UPDATE: only an open row matches, so one
// concurrent close wins and the rest see CodeShiftNotOpen.
func (r *ShiftRepo) Close(ctx context.Context, shiftID id.ID, closingCash types.Money, at time.Time) (*shift.Shift, error) {
	utc := at.UTC()
	querier := r.txManager.GetQuerier(ctx)

	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = 'closed',
		    end_time = $1,
		    closing_cash = $2,
		    updated_at = $1,
		    version = version + 1
		WHERE id = $3 AND status = 'open'
		RETURNING %s
	`, shiftsTable, strings.Join(shiftCols, ", "))

	var s shift.Shift
	err := pgxscan.Get(ctx, querier, &s, sql, utc, closingCash, shiftID)
	if err == nil {
		return &s, nil
	}
	if !pgxscan.NotFound(err) {
		return nil, fmt.Errorf("close shift: %w", err)
	}

	// Lost the race or never existed.
	if _, getErr := r.GetByID(ctx, shiftID); getErr != nil {
		return nil, getErr
	}
	return nil, apperror.NewShiftNotOpen(shiftID.String())
}

func (r *ShiftRepo) List(ctx context.Context, filter shift.Filter) (domain.ListResult[*shift.Shift], error) {
	result := domain.ListResult[*shift.Shift]{
		Limit:  domain.ClampLimit(filter.Limit, 50, 500),
		Offset: filter.Offset,
	}

	var conds []squirrel.Sqlizer
	if filter.EmployeeID != nil {
		conds = append(conds, squirrel.Eq{"employee_id": *filter.EmployeeID})
	}
	if filter.WarehouseID != nil {
		conds = append(conds, squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != "" {
		conds = append(conds, squirrel.Eq{"status": filter.Status})
	}
	if filter.FromDate != nil {
		conds = append(conds, squirrel.GtOrEq{"start_time": *filter.FromDate})
	}
	if filter.ToDate != nil {
		conds = append(conds, squirrel.LtOrEq{"start_time": *filter.ToDate})
	}

	countQ := r.builder.Select("COUNT(*)").From(shiftsTable)
	q := r.builder.Select(shiftCols...).From(shiftsTable)
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
		return result, fmt.Errorf("count shifts: %w", err)
	}

	q = q.OrderBy("start_time DESC").
		Limit(uint64(result.Limit)).
		Offset(uint64(result.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var items []*shift.Shift
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return result, fmt.Errorf("select shifts: %w", err)
	}

	result.Items = items
	return result, nil
}
