package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Invoice is a request for payment of a fixed amount.
// The ID is the payment hash assigned by the node when the invoice is issued.
type Invoice struct {
	ID             string       `json:"id" bun:",pk"`
	Amount         int64        `json:"amount" validate:"gt=0"`
	Memo           string       `json:"memo" bun:",nullzero"`
	PaymentRequest string       `json:"payment_request" bun:",nullzero"`
	State          string       `json:"state" bun:",default:'pending'"`
	AddIndex       uint64       `json:"-" bun:",nullzero"`
	CreatedAt      time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	ExpiresAt      bun.NullTime `json:"expires_at" bun:",nullzero"`
	UpdatedAt      bun.NullTime `json:"updated_at"`
	SettledAt      bun.NullTime `json:"settled_at"`
}

func (i *Invoice) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		i.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Invoice)(nil)
