package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/kassolightning/kassohub/db/models"
)

// SubscribeInvoiceUpdates bridges the notification hub to the rabbitmq
// publisher: every event carrying an invoice payload is forwarded.
func (svc *KassohubService) SubscribeInvoiceUpdates(ctx context.Context) (chan models.Invoice, error) {
	subId, events := svc.EventPubSub.Subscribe(TopicAll)
	invoices := make(chan models.Invoice)
	go func() {
		defer svc.EventPubSub.Unsubscribe(subId, TopicAll)
		defer close(invoices)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				invoice, ok := event.Payload.(models.Invoice)
				if !ok {
					continue
				}
				select {
				case invoices <- invoice:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return invoices, nil
}

func (svc *KassohubService) EncodeInvoice(ctx context.Context, w io.Writer, invoice models.Invoice) error {
	return json.NewEncoder(w).Encode(invoice)
}
