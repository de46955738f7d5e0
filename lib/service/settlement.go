package service

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getsentry/sentry-go"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/uptrace/bun"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db"
	"github.com/kassolightning/kassohub/db/models"
)

// SettlementEvent is a node-supplied notification that an invoice's
// requested amount was received. Delivery is at-least-once and unordered.
type SettlementEvent struct {
	InvoiceID  string    `json:"invoiceId" validate:"required"`
	Amount     int64     `json:"amountSats"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ProcessInvoiceUpdate adapts a raw node invoice update to a settlement
// event. Updates for unsettled invoices carry no state we track beyond
// expiry, which the sweeper owns, so they are ignored.
func (svc *KassohubService) ProcessInvoiceUpdate(ctx context.Context, rawInvoice *lnrpc.Invoice) error {
	rHashStr := hex.EncodeToString(rawInvoice.RHash)
	svc.Logger.Infof("Invoice update: r_hash:%s state:%v", rHashStr, rawInvoice.State.String())
	if !rawInvoice.Settled {
		return nil
	}
	return svc.ProcessSettlementEvent(ctx, &SettlementEvent{
		InvoiceID:  rHashStr,
		Amount:     rawInvoice.AmtPaidSat,
		OccurredAt: time.Unix(rawInvoice.SettleDate, 0),
	})
}

// ProcessSettlementEvent applies a settlement exactly once. Duplicates are
// discarded, events without a matching pending invoice are recorded on the
// ledger flagged unmatched, and persistence failures are retried with
// exponential backoff for as long as the context lives: the event is not
// consumed until the write is durable.
func (svc *KassohubService) ProcessSettlementEvent(ctx context.Context, event *SettlementEvent) error {
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0 // settlement writes are retried until canceled
	return backoff.RetryNotify(func() error {
		err := svc.applySettlement(ctx, event)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(retry, ctx), func(err error, wait time.Duration) {
		svc.Logger.Errorf("SettlementPersistenceFailure: invoice_id:%s retrying in %v: %v", event.InvoiceID, wait, err)
		sentry.CaptureException(err)
	})
}

func (svc *KassohubService) applySettlement(ctx context.Context, event *SettlementEvent) error {
	invoice, err := svc.Store.GetInvoice(ctx, event.InvoiceID)
	if err != nil {
		if errors.Is(err, db.ErrInvoiceNotFound) {
			return svc.recordUnmatched(ctx, event, "no matching invoice")
		}
		return err
	}

	switch invoice.State {
	case common.InvoiceStatePaid:
		// duplicate delivery, not an error
		svc.Logger.Infof("DuplicateSettlement: invoice_id:%s already paid, ignoring", invoice.ID)
		return nil
	case common.InvoiceStateExpired, common.InvoiceStateFailed:
		// Late payments are never honored automatically; the ledger entry
		// keeps the money visible for manual reconciliation.
		return svc.recordUnmatched(ctx, event, "invoice "+invoice.State)
	}

	if event.Amount != invoice.Amount {
		svc.Logger.Infof("Settlement amount mismatch: invoice_id:%s amt:%d amt_paid:%d", invoice.ID, invoice.Amount, event.Amount)
	}

	invoice.State = common.InvoiceStatePaid
	invoice.SettledAt = bun.NullTime{Time: event.OccurredAt}
	entry := &models.Transaction{
		PaymentID:       event.InvoiceID,
		SourceInvoiceID: invoice.ID,
		Amount:          event.Amount,
		Status:          common.TransactionStatusPaid,
		OccurredAt:      event.OccurredAt,
	}

	err = svc.Store.SettleInvoice(ctx, invoice, entry)
	if err != nil {
		// another delivery of the same event won the transition
		if errors.Is(err, db.ErrStateConflict) {
			svc.Logger.Infof("DuplicateSettlement: invoice_id:%s lost the transition race, ignoring", invoice.ID)
			return nil
		}
		return err
	}

	svc.Logger.Infof("Invoice settled: invoice_id:%s amount:%d settled_at:%v", invoice.ID, event.Amount, event.OccurredAt)
	svc.InvalidateStats()
	svc.PublishEvent(Event{Type: common.EventTypePaymentReceived, Payload: *invoice})
	return nil
}

func (svc *KassohubService) recordUnmatched(ctx context.Context, event *SettlementEvent, reason string) error {
	svc.Logger.Warnf("Unmatched settlement event: invoice_id:%s amount:%d (%s), recording for review", event.InvoiceID, event.Amount, reason)
	entry := &models.Transaction{
		PaymentID:  event.InvoiceID,
		Amount:     event.Amount,
		Status:     common.TransactionStatusPaid,
		Unmatched:  true,
		OccurredAt: event.OccurredAt,
	}
	if err := svc.Store.AppendTransaction(ctx, entry); err != nil {
		return err
	}
	svc.InvalidateStats()
	return nil
}
