package service

import (
	"context"
	"errors"
	"time"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db"
)

// ExpireStaleInvoices transitions pending invoices past their expiry to
// expired. Reapplying it is a no-op: the conditional update only matches
// invoices that are still pending.
func (svc *KassohubService) ExpireStaleInvoices(ctx context.Context, now time.Time) (int, error) {
	pending, err := svc.Store.ListInvoices(ctx, db.InvoiceFilter{State: common.InvoiceStatePending})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, invoice := range pending {
		if invoice.ExpiresAt.IsZero() || invoice.ExpiresAt.Time.After(now) {
			continue
		}
		invoice.State = common.InvoiceStateExpired
		err := svc.Store.TransitionInvoice(ctx, &invoice, common.InvoiceStatePending)
		if err != nil {
			// a settlement won the race, leave the invoice alone
			if errors.Is(err, db.ErrStateConflict) {
				continue
			}
			return expired, err
		}
		expired++
		svc.Logger.Infof("Invoice expired: invoice_id:%s created_at:%v", invoice.ID, invoice.CreatedAt)
		svc.PublishEvent(Event{Type: common.EventTypeInvoiceExpired, Payload: invoice})
	}
	return expired, nil
}

// StartExpirySweeper runs the expiry sweep periodically until the context
// is canceled. Sweeps never touch in-flight creations: a fresh invoice is
// not pending-and-stale until its TTL has passed.
func (svc *KassohubService) StartExpirySweeper(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(svc.Config.ExpirySweepInterval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ExpireStaleInvoices(ctx, time.Now()); err != nil {
				svc.Logger.Errorf("Expiry sweep failed: %v", err)
			}
		}
	}
}
