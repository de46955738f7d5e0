package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/kassolightning/kassohub/db/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*models.Invoice)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.Transaction)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().Model((*models.Invoice)(nil)).Index("invoices_state_created_at_idx").Column("state", "created_at").Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().Model((*models.Transaction)(nil)).Index("transactions_status_occurred_at_idx").Column("status", "occurred_at").Exec(ctx); err != nil {
			return err
		}
		return nil
	}, nil)
}
