package models

import (
	"time"
)

// Transaction is one entry of the append-only ledger. Entries are never
// updated or deleted; corrections are recorded as new entries.
type Transaction struct {
	ID              int64     `json:"-" bun:",pk,autoincrement"`
	PaymentID       string    `json:"id" bun:",notnull"`
	SourceInvoiceID string    `json:"source_invoice_id" bun:",nullzero"`
	SourceInvoice   *Invoice  `json:"-" bun:"rel:belongs-to,join:source_invoice_id=id"`
	Amount          int64     `json:"amount" bun:",notnull"`
	Status          string    `json:"status" bun:",notnull"`
	// Unmatched marks entries recorded for settlement events that could not
	// be attributed to a live pending invoice. They are kept for operator
	// review instead of being dropped.
	Unmatched  bool      `json:"unmatched,omitempty" bun:",nullzero"`
	OccurredAt time.Time `json:"occurred_at" bun:",notnull"`
	CreatedAt  time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
