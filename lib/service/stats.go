package service

import (
	"context"
	"sync"
	"time"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db"
)

// Stats is the dashboard snapshot derived from the ledger. Day boundaries
// are UTC throughout.
type Stats struct {
	TotalEarnings   int64   `json:"totalEarnings"`
	PaymentsToday   int64   `json:"paymentsToday"`
	PendingInvoices int64   `json:"pendingInvoices"`
	WeeklyHistogram []int64 `json:"weeklyHistogram"`
}

type statsCache struct {
	mu         sync.Mutex
	stats      *Stats
	computedAt time.Time
	epoch      uint64
	seenEpoch  uint64
}

// InvalidateStats marks the cached snapshot stale. Called on every ledger
// append.
func (svc *KassohubService) InvalidateStats() {
	cache := &svc.statsCache
	cache.mu.Lock()
	cache.epoch++
	cache.mu.Unlock()
}

// ComputeStats returns the dashboard aggregates over the trailing week,
// recomputing when the cached view aged past its TTL or the ledger grew.
// An empty ledger yields all zeros.
func (svc *KassohubService) ComputeStats(ctx context.Context) (*Stats, error) {
	ttl := time.Duration(svc.Config.StatsCacheTTL) * time.Second
	now := time.Now().UTC()

	cache := &svc.statsCache
	cache.mu.Lock()
	if cache.stats != nil && cache.seenEpoch == cache.epoch && now.Sub(cache.computedAt) < ttl {
		stats := *cache.stats
		cache.mu.Unlock()
		return &stats, nil
	}
	epoch := cache.epoch
	cache.mu.Unlock()

	stats, err := svc.computeStats(ctx, now)
	if err != nil {
		return nil, err
	}

	cache.mu.Lock()
	cache.stats = stats
	cache.computedAt = now
	cache.seenEpoch = epoch
	cache.mu.Unlock()

	result := *stats
	return &result, nil
}

func (svc *KassohubService) computeStats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{WeeklyHistogram: make([]int64, 7)}

	entries, err := svc.Store.ListTransactions(ctx, db.TransactionFilter{Status: common.TransactionStatusPaid})
	if err != nil {
		return nil, err
	}

	startOfToday := now.Truncate(24 * time.Hour)
	for _, entry := range entries {
		// Earnings are settled invoices only: unmatched entries are parked
		// for review and withdrawal entries carry no source invoice.
		if entry.Unmatched || entry.SourceInvoiceID == "" {
			continue
		}
		stats.TotalEarnings += entry.Amount

		occurred := entry.OccurredAt.UTC()
		if !occurred.Before(startOfToday) && occurred.Before(startOfToday.Add(24*time.Hour)) {
			stats.PaymentsToday++
		}
		daysAgo := int(startOfToday.Sub(occurred.Truncate(24 * time.Hour)).Hours() / 24)
		if daysAgo >= 0 && daysAgo <= 6 && !occurred.After(now) {
			// oldest day first
			stats.WeeklyHistogram[6-daysAgo]++
		}
	}

	pending, err := svc.Store.CountInvoices(ctx, common.InvoiceStatePending)
	if err != nil {
		return nil, err
	}
	stats.PendingInvoices = pending

	return stats, nil
}
