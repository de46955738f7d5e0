package db

import (
	"context"
	"sort"
	"sync"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db/models"
)

// MemoryStore keeps invoices and the ledger in process memory with the
// same compare-and-swap semantics as BunStore. It backs the unit tests
// and lets the server run without a DATABASE_URI for local development.
type MemoryStore struct {
	mu       sync.Mutex
	invoices map[string]models.Invoice
	ledger   []models.Transaction
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{invoices: make(map[string]models.Invoice)}
}

func (s *MemoryStore) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[invoice.ID] = *invoice
	return nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoice, ok := s.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return &invoice, nil
}

func (s *MemoryStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoices := []models.Invoice{}
	for _, invoice := range s.invoices {
		if filter.State != "" && invoice.State != filter.State {
			continue
		}
		if !filter.CreatedUntil.IsZero() && !invoice.CreatedAt.Before(filter.CreatedUntil) {
			continue
		}
		invoices = append(invoices, invoice)
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices, nil
}

func (s *MemoryStore) CountInvoices(ctx context.Context, state string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, invoice := range s.invoices {
		if invoice.State == state {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) TransitionInvoice(ctx context.Context, invoice *models.Invoice, fromState string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[invoice.ID]
	if !ok {
		return ErrInvoiceNotFound
	}
	if stored.State != fromState {
		return ErrStateConflict
	}
	s.invoices[invoice.ID] = *invoice
	return nil
}

func (s *MemoryStore) SettleInvoice(ctx context.Context, invoice *models.Invoice, entry *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[invoice.ID]
	if !ok {
		return ErrInvoiceNotFound
	}
	if stored.State != common.InvoiceStatePending {
		return ErrStateConflict
	}
	s.invoices[invoice.ID] = *invoice
	s.appendLocked(entry)
	return nil
}

func (s *MemoryStore) AppendTransaction(ctx context.Context, entry *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(entry)
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []models.Transaction{}
	for _, entry := range s.ledger {
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		if !filter.OccurredSince.IsZero() && entry.OccurredAt.Before(filter.OccurredSince) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	return entries, nil
}

func (s *MemoryStore) appendLocked(entry *models.Transaction) {
	s.nextID++
	entry.ID = s.nextID
	s.ledger = append(s.ledger, *entry)
}

var _ Store = (*MemoryStore)(nil)
