package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kassolightning/kassohub/common"
)

func TestPayWithdrawal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// any signed payment request works as a withdrawal destination
	destination, err := svc.CreateInvoice(ctx, 10000, "withdrawal destination")
	require.NoError(t, err)

	entry, err := svc.PayWithdrawal(ctx, destination.PaymentRequest)
	require.NoError(t, err)
	assert.Equal(t, common.TransactionStatusPaid, entry.Status)
	assert.Equal(t, int64(10000), entry.Amount)
	assert.Equal(t, destination.ID, entry.PaymentID)
	assert.Empty(t, entry.SourceInvoiceID)

	entries, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, common.TransactionStatusPaid, entries[0].Status)
}

func TestPayWithdrawalFailureRecorded(t *testing.T) {
	svc, mlnd := newTestService(t)
	ctx := context.Background()

	destination, err := svc.CreateInvoice(ctx, 10000, "")
	require.NoError(t, err)

	mlnd.paymentError = "no route"
	entry, err := svc.PayWithdrawal(ctx, destination.PaymentRequest)
	assert.ErrorIs(t, err, ErrPaymentFailed)
	require.NotNil(t, entry)
	assert.Equal(t, common.TransactionStatusFailed, entry.Status)

	// the failed attempt stays on the ledger
	entries, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, common.TransactionStatusFailed, entries[0].Status)

	// failed withdrawals never count as earnings
	stats, err := svc.ComputeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalEarnings)
}

func TestPayWithdrawalGatewayTimeout(t *testing.T) {
	svc, mlnd := newTestService(t)
	ctx := context.Background()

	destination, err := svc.CreateInvoice(ctx, 10000, "")
	require.NoError(t, err)

	mlnd.sendPaymentErr = status.Error(codes.DeadlineExceeded, "deadline exceeded")
	_, err = svc.PayWithdrawal(ctx, destination.PaymentRequest)
	assert.ErrorIs(t, err, ErrGatewayTimeout)
	// the node call runs under a bounded timeout
	assert.True(t, mlnd.lastSendHadDeadline)

	// nothing reached the ledger
	entries, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPayWithdrawalInvalidPaymentRequest(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PayWithdrawal(context.Background(), "notaninvoice")
	assert.ErrorIs(t, err, ErrInvalidPaymentRequest)

	entries, err := svc.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
