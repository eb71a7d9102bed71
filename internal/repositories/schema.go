package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// migrations create every table the engine needs. Tables reference each other only through
// (ref_kind, ref_id) pairs, never through foreign keys.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id UUID PRIMARY KEY,
		balance NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		type VARCHAR(16) NOT NULL,
		amount NUMERIC(20,2) NOT NULL CHECK (amount > 0),
		description TEXT NOT NULL DEFAULT '',
		ref_kind VARCHAR(32) NOT NULL,
		ref_id UUID NOT NULL,
		status VARCHAR(32) NOT NULL,
		balance_after NUMERIC(20,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, ref_kind, ref_id, type)
	);`,
	`CREATE INDEX IF NOT EXISTS wallet_transactions_user_created_idx
		ON wallet_transactions (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS bank_accounts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		account_number VARCHAR(32) NOT NULL,
		bank_code VARCHAR(32) NOT NULL,
		bank_name VARCHAR(128) NOT NULL DEFAULT '',
		account_name VARCHAR(128) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, account_number, bank_code)
	);`,
	`CREATE TABLE IF NOT EXISTS settlement_items (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		calculated_total_amount NUMERIC(20,2) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'WAIT',
		cancel_reason TEXT,
		cr_image TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		kind VARCHAR(16) NOT NULL,
		amount NUMERIC(20,2) NOT NULL,
		fee NUMERIC(20,2) NOT NULL,
		net_amount NUMERIC(20,2) NOT NULL,
		converted_amount NUMERIC(30,8),
		quote_key VARCHAR(64),
		quote_price NUMERIC(30,8),
		bank_account_id UUID,
		chain_address VARCHAR(128),
		status VARCHAR(16) NOT NULL,
		rejection_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS withdrawal_requests_one_pending_idx
		ON withdrawal_requests (user_id) WHERE status = 'Pending';`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		type VARCHAR(64) NOT NULL,
		message TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		ref_kind VARCHAR(32) NOT NULL,
		ref_id UUID NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		rejection_reason TEXT,
		cancel_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS notifications_user_created_idx
		ON notifications (user_id, created_at DESC);`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		_, err := db.ExecContext(ctx, m)
		logQuery(m, nil, nil, err)
		if err != nil {
			return err
		}
	}
	return nil
}
