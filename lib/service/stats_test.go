package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db/models"
)

func TestComputeStatsEmptyLedger(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.ComputeStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalEarnings)
	assert.Equal(t, int64(0), stats.PaymentsToday)
	assert.Equal(t, int64(0), stats.PendingInvoices)
	require.Len(t, stats.WeeklyHistogram, 7)
	for _, bucket := range stats.WeeklyHistogram {
		assert.Equal(t, int64(0), bucket)
	}
}

func TestComputeStatsAggregates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, 50000, "Payment of 50000 XOF")
	require.NoError(t, err)
	require.NoError(t, svc.ProcessSettlementEvent(ctx, &SettlementEvent{
		InvoiceID:  invoice.ID,
		Amount:     50000,
		OccurredAt: time.Now(),
	}))

	_, err = svc.CreateInvoice(ctx, 100, "still pending")
	require.NoError(t, err)

	// backfill older settlements directly on the ledger
	now := time.Now().UTC()
	for _, daysAgo := range []int{3, 6} {
		err = svc.Store.AppendTransaction(ctx, &models.Transaction{
			PaymentID:       "backfill",
			SourceInvoiceID: invoice.ID,
			Amount:          1000,
			Status:          common.TransactionStatusPaid,
			OccurredAt:      now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}
	// a settlement older than the window still counts toward earnings
	err = svc.Store.AppendTransaction(ctx, &models.Transaction{
		PaymentID:       "backfill",
		SourceInvoiceID: invoice.ID,
		Amount:          1000,
		Status:          common.TransactionStatusPaid,
		OccurredAt:      now.Add(-10 * 24 * time.Hour),
	})
	require.NoError(t, err)
	svc.InvalidateStats()

	stats, err := svc.ComputeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(53000), stats.TotalEarnings)
	assert.Equal(t, int64(1), stats.PaymentsToday)
	assert.Equal(t, int64(1), stats.PendingInvoices)

	// oldest day first
	require.Len(t, stats.WeeklyHistogram, 7)
	assert.Equal(t, int64(1), stats.WeeklyHistogram[0]) // six days ago
	assert.Equal(t, int64(1), stats.WeeklyHistogram[3]) // three days ago
	assert.Equal(t, int64(1), stats.WeeklyHistogram[6]) // today
}

func TestComputeStatsExcludesWithdrawalsAndUnmatched(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, 50000, "")
	require.NoError(t, err)
	require.NoError(t, svc.ProcessSettlementEvent(ctx, &SettlementEvent{
		InvoiceID:  invoice.ID,
		Amount:     50000,
		OccurredAt: time.Now(),
	}))

	// withdrawals carry no source invoice
	require.NoError(t, svc.Store.AppendTransaction(ctx, &models.Transaction{
		PaymentID:  "withdrawal",
		Amount:     20000,
		Status:     common.TransactionStatusPaid,
		OccurredAt: time.Now(),
	}))
	// unmatched settlements are parked for review
	require.NoError(t, svc.ProcessSettlementEvent(ctx, &SettlementEvent{
		InvoiceID:  "unknown",
		Amount:     999,
		OccurredAt: time.Now(),
	}))
	svc.InvalidateStats()

	stats, err := svc.ComputeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), stats.TotalEarnings)
	assert.Equal(t, int64(1), stats.PaymentsToday)
}

func TestStatsCacheInvalidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	stats, err := svc.ComputeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalEarnings)

	// a write the service does not see keeps serving the cached view
	invoice, err := svc.CreateInvoice(ctx, 1000, "")
	require.NoError(t, err)
	require.NoError(t, svc.Store.SettleInvoice(ctx, &models.Invoice{
		ID:     invoice.ID,
		Amount: 1000,
		State:  common.InvoiceStatePaid,
	}, &models.Transaction{
		PaymentID:       invoice.ID,
		SourceInvoiceID: invoice.ID,
		Amount:          1000,
		Status:          common.TransactionStatusPaid,
		OccurredAt:      time.Now(),
	}))

	stats, err = svc.ComputeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalEarnings)

	svc.InvalidateStats()
	stats, err = svc.ComputeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stats.TotalEarnings)
}
