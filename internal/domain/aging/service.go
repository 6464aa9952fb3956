package aging

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"time"

	"tillbook/internal/cache"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/pkg/logger"
)

const reportCacheTTL = 15 * time.Minute

// Options tune a single report run.
type Options struct {
	// Boundaries override DefaultBoundaries. Must be positive and
	// strictly increasing.
	Boundaries []int
	// IncludeZeroBalance keeps customers whose outstanding total is
	// zero in the report.
	IncludeZeroBalance bool
	// CustomerFilter is an optional CEL expression over the string
	// variables code and name. Only matching customers are reported.
	CustomerFilter string
}

// Service builds receivables aging reports.
type Service struct {
	repo  Repository
	cache cache.ReportCache
}

// NewService creates a new aging service.
// Pass cache.Noop{} when no cache backend is configured.
func NewService(repo Repository, reportCache cache.ReportCache) *Service {
	if reportCache == nil {
		reportCache = cache.Noop{}
	}
	return &Service{repo: repo, cache: reportCache}
}

// ReportCacheKey derives the cache key for one report run. Two runs with
// the same day, boundaries, filter and zero-balance flag share an entry.
func ReportCacheKey(asOf time.Time, opts Options) string {
	parts := make([]string, 0, len(opts.Boundaries))
	for _, b := range opts.Boundaries {
		parts = append(parts, strconv.Itoa(b))
	}
	h := fnv.New64a()
	h.Write([]byte(opts.CustomerFilter))
	return fmt.Sprintf("aging_report:%s:%s:%t:%x",
		truncateDay(asOf).Format("20060102"),
		strings.Join(parts, "-"),
		opts.IncludeZeroBalance,
		h.Sum64())
}

// AgeReceivables distributes every customer's outstanding invoices into
// overdue buckets as of the given date.
func (s *Service) AgeReceivables(ctx context.Context, asOf time.Time, opts Options) (*Report, error) {
	buckets, err := NewBuckets(opts.Boundaries)
	if err != nil {
		return nil, err
	}

	var filter *customerFilter
	if opts.CustomerFilter != "" {
		filter, err = compileCustomerFilter(opts.CustomerFilter)
		if err != nil {
			return nil, err
		}
	}

	key := ReportCacheKey(asOf, opts)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached Report
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	items, err := s.repo.ListOutstanding(ctx, asOf)
	if err != nil {
		return nil, err
	}

	n := buckets.Count()
	rows := make(map[id.ID]*CustomerAging)
	for _, item := range items {
		if filter != nil {
			ok, err := filter.Match(item.CustomerCode, item.CustomerName)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		row := rows[item.CustomerID]
		if row == nil {
			row = &CustomerAging{
				CustomerID:   item.CustomerID,
				CustomerCode: item.CustomerCode,
				CustomerName: item.CustomerName,
				Buckets:      zeroBuckets(n),
				Total:        types.ZeroMoney(),
			}
			rows[item.CustomerID] = row
		}

		idx := buckets.Index(item.DueDate, asOf)
		row.Buckets[idx] = row.Buckets[idx].Add(item.Outstanding)
		row.Total = row.Total.Add(item.Outstanding)
	}

	report := &Report{
		AsOf:        truncateDay(asOf),
		Labels:      buckets.Labels(),
		Totals:      zeroBuckets(n),
		GrandTotal:  types.ZeroMoney(),
		GeneratedAt: time.Now().UTC(),
	}

	for _, row := range rows {
		if !opts.IncludeZeroBalance && row.Total.IsZero() {
			continue
		}
		report.Rows = append(report.Rows, *row)
		for i := range row.Buckets {
			report.Totals[i] = report.Totals[i].Add(row.Buckets[i])
		}
		report.GrandTotal = report.GrandTotal.Add(row.Total)
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].CustomerCode < report.Rows[j].CustomerCode
	})

	if raw, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, key, raw, reportCacheTTL); err != nil {
			logger.Warn(ctx, "failed to cache aging report", "key", key, "error", err)
		}
	}

	logger.Debug(ctx, "aging report generated",
		"as_of", report.AsOf, "customers", len(report.Rows), "invoices", len(items))

	return report, nil
}

func zeroBuckets(n int) []types.Money {
	out := make([]types.Money, n)
	for i := range out {
		out[i] = types.ZeroMoney()
	}
	return out
}
