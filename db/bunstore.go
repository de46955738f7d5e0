package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/db/models"
)

// BunStore is the postgres-backed Store.
type BunStore struct {
	DB *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{DB: db}
}

func (s *BunStore) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	_, err := s.DB.NewInsert().Model(invoice).Exec(ctx)
	return err
}

func (s *BunStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.DB.NewSelect().Model(&invoice).Where("invoice.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *BunStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	q := s.DB.NewSelect().Model(&invoices)
	if filter.State != "" {
		q = q.Where("state = ?", filter.State)
	}
	if !filter.CreatedUntil.IsZero() {
		q = q.Where("created_at < ?", filter.CreatedUntil)
	}
	err := q.OrderExpr("created_at DESC").Scan(ctx)
	return invoices, err
}

func (s *BunStore) CountInvoices(ctx context.Context, state string) (int64, error) {
	count, err := s.DB.NewSelect().Model((*models.Invoice)(nil)).Where("state = ?", state).Count(ctx)
	return int64(count), err
}

func (s *BunStore) TransitionInvoice(ctx context.Context, invoice *models.Invoice, fromState string) error {
	res, err := s.DB.NewUpdate().Model(invoice).WherePK().Where("invoice.state = ?", fromState).Exec(ctx)
	if err != nil {
		return err
	}
	return checkTransition(res)
}

// SettleInvoice expects the invoice to carry its new state and settle
// timestamp already; the conditional update only applies if the stored
// row is still pending.
func (s *BunStore) SettleInvoice(ctx context.Context, invoice *models.Invoice, entry *models.Transaction) error {
	return s.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(invoice).WherePK().Where("invoice.state = ?", common.InvoiceStatePending).Exec(ctx)
		if err != nil {
			return err
		}
		if err := checkTransition(res); err != nil {
			return err
		}
		_, err = tx.NewInsert().Model(entry).Exec(ctx)
		return err
	})
}

func (s *BunStore) AppendTransaction(ctx context.Context, entry *models.Transaction) error {
	_, err := s.DB.NewInsert().Model(entry).Exec(ctx)
	return err
}

func (s *BunStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	entries := []models.Transaction{}
	q := s.DB.NewSelect().Model(&entries)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if !filter.OccurredSince.IsZero() {
		q = q.Where("occurred_at >= ?", filter.OccurredSince)
	}
	err := q.OrderExpr("occurred_at DESC").Scan(ctx)
	return entries, err
}

func checkTransition(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStateConflict
	}
	return nil
}

var _ Store = (*BunStore)(nil)
