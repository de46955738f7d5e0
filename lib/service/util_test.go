package service

import (
	"testing"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/require"

	"github.com/kassolightning/kassohub/db"
	"github.com/kassolightning/kassohub/lib/logging"
)

func newTestService(t *testing.T) (*KassohubService, *mockLND) {
	mlnd, err := newMockLND("1234567890abcdef", make(chan *lnrpc.Invoice))
	require.NoError(t, err)

	svc := &KassohubService{
		Config: &Config{
			GatewayTimeout:       10,
			InvoiceExpiry:        3600,
			ExpirySweepInterval:  60,
			StatsCacheTTL:        30,
			SubscriberBufferSize: 4,
		},
		Store:       db.NewMemoryStore(),
		LndClient:   mlnd,
		Logger:      logging.Logger(""),
		EventPubSub: NewPubsub(4),
	}
	return svc, mlnd
}
