package memory

import (
	"context"
	"sort"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain"
	"tillbook/internal/domain/shift"
)

// ShiftRepo implements shift.Repository on the store.
type ShiftRepo struct {
	store *Store
}

func NewShiftRepo(store *Store) *ShiftRepo {
	return &ShiftRepo{store: store}
}

func (r *ShiftRepo) CreateOpen(ctx context.Context, sh *shift.Shift) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := openShiftKey{employeeID: sh.EmployeeID, warehouseID: sh.WarehouseID}
	if existing, ok := s.openShifts[key]; ok {
		return apperror.NewShiftAlreadyOpen(existing.String())
	}

	cp := *sh
	s.shifts[sh.ID] = &cp
	s.openShifts[key] = sh.ID
	return nil
}

func (r *ShiftRepo) GetByID(ctx context.Context, shiftID id.ID) (*shift.Shift, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shifts[shiftID]
	if !ok {
		return nil, apperror.NewNotFound("shift", shiftID)
	}
	cp := *sh
	return &cp, nil
}

func (r *ShiftRepo) GetOpen(ctx context.Context, employeeID, warehouseID id.ID) (*shift.Shift, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := openShiftKey{employeeID: employeeID, warehouseID: warehouseID}
	shiftID, ok := s.openShifts[key]
	if !ok {
		return nil, apperror.NewNotFound("open shift", employeeID)
	}
	cp := *s.shifts[shiftID]
	return &cp, nil
}

func (r *ShiftRepo) Close(ctx context.Context, shiftID id.ID, closingCash types.Money, at time.Time) (*shift.Shift, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shifts[shiftID]
	if !ok {
		return nil, apperror.NewNotFound("shift", shiftID)
	}
	if !sh.IsOpen() {
		return nil, apperror.NewShiftNotOpen(shiftID.String())
	}

	cp := *sh
	if err := cp.Close(closingCash, at); err != nil {
		return nil, err
	}
	s.shifts[shiftID] = &cp
	delete(s.openShifts, openShiftKey{employeeID: sh.EmployeeID, warehouseID: sh.WarehouseID})

	out := cp
	return &out, nil
}

func (r *ShiftRepo) List(ctx context.Context, filter shift.Filter) (domain.ListResult[*shift.Shift], error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*shift.Shift
	for _, sh := range s.shifts {
		if filter.EmployeeID != nil && sh.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.WarehouseID != nil && sh.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Status != "" && sh.Status != filter.Status {
			continue
		}
		if filter.FromDate != nil && sh.StartTime.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && sh.StartTime.After(*filter.ToDate) {
			continue
		}
		cp := *sh
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartTime.After(matched[j].StartTime)
	})

	total := int64(len(matched))
	limit := domain.ClampLimit(filter.Limit, 50, 500)
	matched = paginate(matched, filter.Offset, limit)

	return domain.ListResult[*shift.Shift]{
		Items:      matched,
		TotalCount: total,
		Limit:      limit,
		Offset:     filter.Offset,
	}, nil
}
