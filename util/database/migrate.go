package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies the schema. Every statement is idempotent so it runs
// unconditionally on boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			address       TEXT,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			id              BIGSERIAL PRIMARY KEY,
			title           TEXT NOT NULL,
			author          TEXT NOT NULL,
			genre           VARCHAR(100),
			price           NUMERIC(10,2) NOT NULL CHECK (price > 0),
			description     TEXT,
			isbn            VARCHAR(13) UNIQUE,
			cover_image_url TEXT,
			stock           BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id               BIGSERIAL PRIMARY KEY,
			user_id          BIGINT NOT NULL REFERENCES users(id),
			total_price      NUMERIC(10,2) NOT NULL,
			status           VARCHAR(20) NOT NULL DEFAULT 'pending',
			payment_method   VARCHAR(50) NOT NULL,
			payment_status   VARCHAR(20) NOT NULL DEFAULT 'pending',
			shipping_address TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id         BIGSERIAL PRIMARY KEY,
			order_id   BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			book_id    BIGINT NOT NULL REFERENCES books(id),
			quantity   BIGINT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(10,2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_books_genre ON books(genre)`,
		`CREATE INDEX IF NOT EXISTS idx_books_author ON books(author)`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
