package reconciliation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"tillbook/internal/cache"
	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/shift"
	"tillbook/pkg/logger"
)

const summaryCacheTTL = 24 * time.Hour

// Service computes shift summaries from the ledger.
type Service struct {
	shifts shift.Repository
	ledger ledger.Repository
	cache  cache.ReportCache
}

// NewService creates a new reconciliation service.
// Pass cache.Noop{} when no cache backend is configured.
func NewService(shifts shift.Repository, ledg ledger.Repository, reportCache cache.ReportCache) *Service {
	if reportCache == nil {
		reportCache = cache.Noop{}
	}
	return &Service{
		shifts: shifts,
		ledger: ledg,
		cache:  reportCache,
	}
}

// SummaryCacheKey returns the cache key for a shift's summary.
func SummaryCacheKey(shiftID id.ID) string {
	return "shift_summary:" + shiftID.String()
}

// InvalidateSummary drops a cached summary. Called whenever transactions
// belonging to the shift change after close (administrative overrides).
func (s *Service) InvalidateSummary(ctx context.Context, shiftID id.ID) {
	if err := s.cache.Del(ctx, SummaryCacheKey(shiftID)); err != nil {
		logger.Warn(ctx, "failed to invalidate cached shift summary",
			"shift_id", shiftID, "error", err)
	}
}

// Summarize computes the ShiftSummary for a closed shift.
// Reconciling an open shift is rejected: its totals are not final.
//
// All sums use exact decimal arithmetic; rounding, if any, belongs to the
// presentation layer, never to the summation.
func (s *Service) Summarize(ctx context.Context, shiftID id.ID) (*ShiftSummary, error) {
	sh, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.IsOpen() {
		return nil, apperror.NewShiftStillOpen(shiftID.String())
	}

	key := SummaryCacheKey(shiftID)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached ShiftSummary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	txs, err := s.ledger.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("list shift transactions: %w", err)
	}

	summary := s.compute(sh, txs)

	if raw, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, raw, summaryCacheTTL); err != nil {
			logger.Warn(ctx, "failed to cache shift summary", "shift_id", shiftID, "error", err)
		}
	}

	return summary, nil
}

func (s *Service) compute(sh *shift.Shift, txs []*ledger.Transaction) *ShiftSummary {
	byMethod := make(map[ledger.Method]*MethodTotal)

	summary := &ShiftSummary{
		ShiftID:     sh.ID,
		OpeningCash: sh.OpeningCash,
		GeneratedAt: time.Now().UTC(),
	}

	cashNet := types.ZeroMoney()

	for _, t := range txs {
		summary.TotalCount++
		switch t.Status {
		case ledger.StatusCanceled:
			summary.CanceledCount++
			continue
		case ledger.StatusFailed:
			summary.FailedCount++
			continue
		case ledger.StatusPending:
			summary.PendingCount++
			continue
		}
		summary.CompletedCount++

		mt := byMethod[t.Method]
		if mt == nil {
			mt = &MethodTotal{
				Method:   t.Method,
				Receipts: types.ZeroMoney(),
				Payments: types.ZeroMoney(),
				Net:      types.ZeroMoney(),
			}
			byMethod[t.Method] = mt
		}
		mt.Count++

		if t.Type == ledger.TypeReceipt {
			mt.Receipts = mt.Receipts.Add(t.Amount)
			mt.Net = mt.Net.Add(t.Amount)
		} else {
			mt.Payments = mt.Payments.Add(t.Amount)
			mt.Net = mt.Net.Sub(t.Amount)
		}

		if t.Method == ledger.MethodCash {
			if t.Type == ledger.TypeReceipt {
				cashNet = cashNet.Add(t.Amount)
			} else {
				cashNet = cashNet.Sub(t.Amount)
			}
		}
	}

	summary.ExpectedCash = sh.OpeningCash.Add(cashNet)
	if sh.ClosingCash != nil {
		summary.ActualCash = *sh.ClosingCash
	} else {
		summary.ActualCash = types.ZeroMoney()
	}
	summary.Discrepancy = summary.ActualCash.Sub(summary.ExpectedCash)

	summary.ByMethod = make([]MethodTotal, 0, len(byMethod))
	for _, mt := range byMethod {
		summary.ByMethod = append(summary.ByMethod, *mt)
	}
	sort.Slice(summary.ByMethod, func(i, j int) bool {
		return summary.ByMethod[i].Method < summary.ByMethod[j].Method
	})

	return summary
}
