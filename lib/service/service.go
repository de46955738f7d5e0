package service

import (
	"math/rand"

	"github.com/labstack/gommon/random"
	"github.com/ziflex/lecho/v3"

	"github.com/kassolightning/kassohub/db"
	"github.com/kassolightning/kassohub/lnd"
	"github.com/kassolightning/kassohub/rabbitmq"
)

type KassohubService struct {
	Config         *Config
	Store          db.Store
	LndClient      lnd.LightningClientWrapper
	Logger         *lecho.Logger
	EventPubSub    *Pubsub
	RabbitMQClient rabbitmq.Client

	statsCache statsCache
}

const hexBytes = random.Hex

func makePreimageHex() []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = hexBytes[rand.Intn(len(hexBytes))]
	}
	return b
}
