package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getsentry/sentry-go"
	"github.com/lightningnetwork/lnd/lnrpc"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db"
	"github.com/kassolightning/kassohub/lnd"
)

// ConnectInvoiceSubscription opens the node's settlement stream, resuming
// from the oldest pending invoice so settlements that happened while we
// were down are replayed.
func (svc *KassohubService) ConnectInvoiceSubscription(ctx context.Context) (lnd.SubscribeInvoicesWrapper, error) {
	subscriptionOptions := lnrpc.InvoiceSubscription{}
	pending, err := svc.Store.ListInvoices(ctx, db.InvoiceFilter{State: common.InvoiceStatePending})
	if err == nil {
		var oldest uint64
		for _, invoice := range pending {
			if invoice.AddIndex != 0 && (oldest == 0 || invoice.AddIndex < oldest) {
				oldest = invoice.AddIndex
			}
		}
		if oldest > 0 {
			// -1 because we want updates for that invoice already
			subscriptionOptions.AddIndex = oldest - 1
		}
	}
	svc.Logger.Infof("Starting invoice subscription from index: %v", subscriptionOptions.AddIndex)
	return svc.LndClient.SubscribeInvoices(ctx, &subscriptionOptions)
}

// InvoiceUpdateSubscription consumes the settlement stream until the
// context is canceled, reconnecting with backoff on stream errors.
func (svc *KassohubService) InvoiceUpdateSubscription(ctx context.Context) error {
	stream, err := svc.ConnectInvoiceSubscription(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}
	reconnect := backoff.NewExponentialBackOff()
	reconnect.MaxElapsedTime = 0
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		default:
			rawInvoice, err := stream.Recv()
			if err != nil {
				svc.Logger.Errorf("Error on invoice subscription stream: %v", err)
				sentry.CaptureException(err)
				// keep backing off until we hold a live stream again
				for stream == nil || err != nil {
					select {
					case <-ctx.Done():
						return context.Canceled
					case <-time.After(reconnect.NextBackOff()):
					}
					stream, err = svc.ConnectInvoiceSubscription(ctx)
					if err != nil {
						svc.Logger.Errorf("Error reconnecting invoice subscription: %v", err)
						sentry.CaptureException(err)
					}
				}
				continue
			}
			reconnect.Reset()

			// Open invoices are stored by CreateInvoice; acting on the
			// notification could race that call.
			if rawInvoice.State == lnrpc.Invoice_OPEN {
				continue
			}

			if err := svc.ProcessInvoiceUpdate(ctx, rawInvoice); err != nil && err != context.Canceled {
				svc.Logger.Errorf("Error processing invoice update: r_hash:%x %v", rawInvoice.RHash, err)
				sentry.CaptureException(err)
			}
		}
	}
}

// StartInvoiceRoutine picks the settlement-event source: the AMQP consumer
// when RabbitMQ is configured, the node's gRPC stream otherwise.
func (svc *KassohubService) StartInvoiceRoutine(ctx context.Context) error {
	if svc.RabbitMQClient != nil {
		err := svc.RabbitMQClient.SubscribeToLndInvoices(ctx, svc.ProcessInvoiceUpdate)
		if err != nil && err != context.Canceled {
			return err
		}
		return nil
	}
	err := svc.InvoiceUpdateSubscription(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
