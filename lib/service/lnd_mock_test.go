package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	btcec "github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"google.golang.org/grpc"

	"github.com/kassolightning/kassohub/lnd"
)

// mockLND produces real, signed payment requests so the decode paths run
// against the same wire format the node emits.
type mockLND struct {
	Sub     *mockSubscribeInvoices
	privKey *btcec.PrivateKey
	pubKey  *btcec.PublicKey

	mu                  sync.Mutex
	addIndexCounter     uint64
	addInvoiceErr       error
	sendPaymentErr      error
	paymentError        string
	lastSendHadDeadline bool
	lastSubscription    *lnrpc.InvoiceSubscription
}

type mockSubscribeInvoices struct {
	invoiceChan chan *lnrpc.Invoice
}

func (mockSub *mockSubscribeInvoices) Recv() (*lnrpc.Invoice, error) {
	inv := <-mockSub.invoiceChan
	return inv, nil
}

func newMockLND(privkey string, invoiceChan chan *lnrpc.Invoice) (*mockLND, error) {
	privKeyBytes, err := hex.DecodeString(privkey)
	if err != nil {
		return nil, err
	}
	privKey, pubKey := btcec.PrivKeyFromBytes(privKeyBytes)
	return &mockLND{
		Sub:     &mockSubscribeInvoices{invoiceChan: invoiceChan},
		privKey: privKey,
		pubKey:  pubKey,
	}, nil
}

func (mlnd *mockLND) signMsg(msg []byte) ([]byte, error) {
	hash := sha256.Sum256(msg)
	return ecdsa.SignCompact(mlnd.privKey, hash[:], true)
}

func (mlnd *mockLND) AddInvoice(ctx context.Context, req *lnrpc.Invoice, options ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if mlnd.addInvoiceErr != nil {
		return nil, mlnd.addInvoiceErr
	}

	pHash := sha256.Sum256(req.RPreimage)
	msat := lnwire.MilliSatoshi(1000 * req.Value)
	invoice := &zpay32.Invoice{
		Net:         &chaincfg.RegressionNetParams,
		MilliSat:    &msat,
		Timestamp:   time.Now(),
		PaymentHash: &[32]byte{},
		PaymentAddr: &[32]byte{},
		Features: &lnwire.FeatureVector{
			RawFeatureVector: &lnwire.RawFeatureVector{},
		},
	}
	zpay32.Expiry(time.Duration(req.Expiry) * time.Second)(invoice)
	copy(invoice.PaymentHash[:], pHash[:])
	// the encoder requires a description; lnd accepts an empty memo
	invoice.Description = &req.Memo
	pr, err := invoice.Encode(zpay32.MessageSigner{
		SignCompact: mlnd.signMsg,
	})
	if err != nil {
		return nil, err
	}
	mlnd.addIndexCounter++
	return &lnrpc.AddInvoiceResponse{
		RHash:          pHash[:],
		PaymentRequest: pr,
		AddIndex:       mlnd.addIndexCounter,
	}, nil
}

func (mlnd *mockLND) SendPaymentSync(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	_, mlnd.lastSendHadDeadline = ctx.Deadline()
	if mlnd.sendPaymentErr != nil {
		return nil, mlnd.sendPaymentErr
	}
	if mlnd.paymentError != "" {
		return &lnrpc.SendResponse{PaymentError: mlnd.paymentError}, nil
	}
	return &lnrpc.SendResponse{
		PaymentPreimage: []byte("preimage"),
		PaymentHash:     req.PaymentHash,
	}, nil
}

func (mlnd *mockLND) SubscribeInvoices(ctx context.Context, req *lnrpc.InvoiceSubscription, options ...grpc.CallOption) (lnd.SubscribeInvoicesWrapper, error) {
	mlnd.mu.Lock()
	mlnd.lastSubscription = req
	mlnd.mu.Unlock()
	return mlnd.Sub, nil
}

func (mlnd *mockLND) DecodeBolt11(ctx context.Context, bolt11 string, options ...grpc.CallOption) (*lnrpc.PayReq, error) {
	inv, err := zpay32.Decode(bolt11, &chaincfg.RegressionNetParams)
	if err != nil {
		return nil, err
	}
	result := &lnrpc.PayReq{
		Destination: hex.EncodeToString(inv.Destination.SerializeCompressed()),
		PaymentHash: hex.EncodeToString(inv.PaymentHash[:]),
		NumSatoshis: int64(*inv.MilliSat) / 1000,
		NumMsat:     int64(*inv.MilliSat),
		Timestamp:   inv.Timestamp.Unix(),
		Expiry:      int64(inv.Expiry()),
	}
	if inv.Description != nil {
		result.Description = *inv.Description
	}
	return result, nil
}

func (mlnd *mockLND) GetInfo(ctx context.Context, req *lnrpc.GetInfoRequest, options ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {
	return &lnrpc.GetInfoResponse{
		Version:        "v1.0.0",
		IdentityPubkey: mlnd.GetMainPubkey(),
		Alias:          "Mocky McMockface",
		SyncedToChain:  true,
		Chains: []*lnrpc.Chain{{
			Chain:   "BTC",
			Network: "regtest",
		}},
	}, nil
}

func (mlnd *mockLND) GetMainPubkey() string {
	return hex.EncodeToString(mlnd.pubKey.SerializeCompressed())
}

var _ lnd.LightningClientWrapper = (*mockLND)(nil)
