package service

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/uptrace/bun"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db"
	"github.com/kassolightning/kassohub/db/models"
)

// CreateInvoice asks the node for a new invoice and persists it as pending.
// The node call happens first: if it fails nothing is stored, so there is
// never a half-created record without a matching node-side payment request.
func (svc *KassohubService) CreateInvoice(ctx context.Context, amount int64, memo string) (*models.Invoice, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	lnInvoice := lnrpc.Invoice{
		Memo:      memo,
		Value:     amount,
		RPreimage: makePreimageHex(),
		Expiry:    svc.Config.InvoiceExpiry,
	}
	gatewayCtx, cancel := context.WithTimeout(ctx, time.Duration(svc.Config.GatewayTimeout)*time.Second)
	defer cancel()
	lnInvoiceResult, err := svc.LndClient.AddInvoice(gatewayCtx, &lnInvoice)
	if err != nil {
		svc.Logger.Errorf("Gateway error creating invoice: amount:%v %v", amount, err)
		return nil, gatewayError(err)
	}

	now := time.Now()
	invoice := &models.Invoice{
		ID:             hex.EncodeToString(lnInvoiceResult.RHash),
		Amount:         amount,
		Memo:           memo,
		PaymentRequest: lnInvoiceResult.PaymentRequest,
		State:          common.InvoiceStatePending,
		AddIndex:       lnInvoiceResult.AddIndex,
		CreatedAt:      now,
		ExpiresAt:      bun.NullTime{Time: now.Add(time.Duration(svc.Config.InvoiceExpiry) * time.Second)},
	}

	if err := svc.Store.CreateInvoice(ctx, invoice); err != nil {
		svc.Logger.Errorf("Could not persist invoice: invoice_id:%s %v", invoice.ID, err)
		return nil, err
	}
	svc.Logger.Infof("Created invoice: invoice_id:%s amount:%v", invoice.ID, amount)
	return invoice, nil
}

func (svc *KassohubService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	return svc.Store.GetInvoice(ctx, id)
}

// ListInvoices returns a snapshot of all invoices, newest first.
func (svc *KassohubService) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return svc.Store.ListInvoices(ctx, db.InvoiceFilter{})
}

func (svc *KassohubService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return svc.Store.ListTransactions(ctx, db.TransactionFilter{})
}

func (svc *KassohubService) DecodePaymentRequest(bolt11 string) (*zpay32.Invoice, error) {
	if len(bolt11) < 4 {
		return nil, ErrInvalidPaymentRequest
	}
	return zpay32.Decode(bolt11, ChainFromCurrency(bolt11[2:]))
}

func ChainFromCurrency(currency string) *chaincfg.Params {
	if strings.HasPrefix(currency, "bcrt") {
		return &chaincfg.RegressionNetParams
	} else if strings.HasPrefix(currency, "tb") {
		return &chaincfg.TestNet3Params
	} else if strings.HasPrefix(currency, "sb") {
		return &chaincfg.SimNetParams
	} else {
		return &chaincfg.MainNetParams
	}
}

func gatewayError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded {
		return ErrGatewayTimeout
	}
	return ErrGatewayUnavailable
}
