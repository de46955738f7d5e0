package db

import (
	"context"
	"errors"
	"time"

	"github.com/kassolightning/kassohub/db/models"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrStateConflict is returned by the conditional updates when the
	// invoice is no longer in the expected state. Callers treat it as a
	// lost compare-and-swap, not as a failure.
	ErrStateConflict = errors.New("invoice state conflict")
)

type InvoiceFilter struct {
	State        string
	CreatedUntil time.Time
}

type TransactionFilter struct {
	Status        string
	OccurredSince time.Time
}

// Store is the single owner of persisted invoice and ledger state.
// Every state mutation goes through one of these methods; invoice state
// transitions are conditional on the current state so that concurrent
// writers race safely.
type Store interface {
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error)
	CountInvoices(ctx context.Context, state string) (int64, error)

	// TransitionInvoice updates the invoice iff its stored state equals
	// fromState, returning ErrStateConflict otherwise.
	TransitionInvoice(ctx context.Context, invoice *models.Invoice, fromState string) error

	// SettleInvoice applies the paid transition and appends the ledger
	// entry in one transaction. Either both are durable or neither is.
	SettleInvoice(ctx context.Context, invoice *models.Invoice, entry *models.Transaction) error

	AppendTransaction(ctx context.Context, entry *models.Transaction) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
}
