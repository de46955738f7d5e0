package service

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/lnd"
)

// brokenStream fails every read, forcing the consumer to reconnect.
type brokenStream struct{}

func (s *brokenStream) Recv() (*lnrpc.Invoice, error) {
	return nil, errors.New("stream reset by peer")
}

// flakySubscribeGateway hands out a broken stream first, refuses the
// reconnect once, then serves the real stream.
type flakySubscribeGateway struct {
	*mockLND
	mu    sync.Mutex
	calls int
}

func (g *flakySubscribeGateway) SubscribeInvoices(ctx context.Context, req *lnrpc.InvoiceSubscription, options ...grpc.CallOption) (lnd.SubscribeInvoicesWrapper, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	switch g.calls {
	case 1:
		return &brokenStream{}, nil
	case 2:
		return nil, errors.New("node unreachable")
	default:
		return g.mockLND.Sub, nil
	}
}

func TestInvoiceSubscriptionSurvivesReconnectFailure(t *testing.T) {
	svc, mlnd := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	invoice, err := svc.CreateInvoice(ctx, 1200, "")
	require.NoError(t, err)

	gateway := &flakySubscribeGateway{mockLND: mlnd}
	svc.LndClient = gateway

	done := make(chan error, 1)
	go func() {
		done <- svc.InvoiceUpdateSubscription(ctx)
	}()

	rawHash, err := hex.DecodeString(invoice.ID)
	require.NoError(t, err)
	mlnd.Sub.invoiceChan <- &lnrpc.Invoice{
		RHash:      rawHash,
		Settled:    true,
		AmtPaidSat: 1200,
		SettleDate: time.Now().Unix(),
		State:      lnrpc.Invoice_SETTLED,
	}

	// the consumer outlived both the stream error and the failed reconnect
	require.Eventually(t, func() bool {
		stored, err := svc.GetInvoice(context.Background(), invoice.ID)
		return err == nil && stored.State == common.InvoiceStatePaid
	}, 10*time.Second, 10*time.Millisecond)

	cancel()
	// nudge the blocked read so the loop observes the cancellation
	go func() {
		mlnd.Sub.invoiceChan <- &lnrpc.Invoice{State: lnrpc.Invoice_OPEN}
	}()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(10 * time.Second):
		t.Fatal("subscription did not stop after cancellation")
	}
}
