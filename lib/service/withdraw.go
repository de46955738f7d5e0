package service

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db/models"
)

// PayWithdrawal pays an external invoice through the node and records the
// outcome on the ledger. A failed node payment is recorded as a failed
// entry; entries are never edited afterwards.
func (svc *KassohubService) PayWithdrawal(ctx context.Context, paymentRequest string) (*models.Transaction, error) {
	decoded, err := svc.DecodePaymentRequest(paymentRequest)
	if err != nil {
		svc.Logger.Errorf("Could not decode withdrawal payment request: %v", err)
		return nil, ErrInvalidPaymentRequest
	}

	var amount int64
	if decoded.MilliSat != nil {
		amount = int64(decoded.MilliSat.ToSatoshis())
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	paymentHash := ""
	if decoded.PaymentHash != nil {
		ph := *decoded.PaymentHash
		paymentHash = hex.EncodeToString(ph[:])
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, time.Duration(svc.Config.GatewayTimeout)*time.Second)
	defer cancel()
	sendResult, err := svc.LndClient.SendPaymentSync(gatewayCtx, &lnrpc.SendRequest{
		PaymentRequest: paymentRequest,
	})
	if err != nil {
		svc.Logger.Errorf("Gateway error paying withdrawal: payment_hash:%s %v", paymentHash, err)
		return nil, gatewayError(err)
	}

	entry := &models.Transaction{
		PaymentID:  paymentHash,
		Amount:     amount,
		OccurredAt: time.Now(),
	}
	if sendResult.GetPaymentError() != "" || sendResult.GetPaymentPreimage() == nil {
		entry.Status = common.TransactionStatusFailed
		if appendErr := svc.Store.AppendTransaction(ctx, entry); appendErr != nil {
			svc.Logger.Errorf("Could not record failed withdrawal: payment_hash:%s %v", paymentHash, appendErr)
			return nil, appendErr
		}
		svc.InvalidateStats()
		svc.Logger.Errorf("Withdrawal failed: payment_hash:%s %s", paymentHash, sendResult.GetPaymentError())
		return entry, ErrPaymentFailed
	}

	entry.Status = common.TransactionStatusPaid
	if err := svc.Store.AppendTransaction(ctx, entry); err != nil {
		svc.Logger.Errorf("Could not record withdrawal: payment_hash:%s %v", paymentHash, err)
		return nil, err
	}
	svc.InvalidateStats()
	svc.Logger.Infof("Withdrawal paid: payment_hash:%s amount:%d", paymentHash, amount)
	return entry, nil
}
