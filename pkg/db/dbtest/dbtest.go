// Package dbtest opens throwaway SQLite databases carrying the application
// schema, for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/sugicreations/sugi-backend/pkg/config"
	"github.com/sugicreations/sugi-backend/pkg/db"
)

// schema mirrors pkg/migrate/migrations in SQLite dialect.
var schema = []string{
	`CREATE TABLE members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('USER','ADMIN')),
		last_login_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_members_email ON members (lower(email))`,
	`CREATE TABLE categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_categories_name ON categories (lower(name))`,
	`CREATE TABLE materials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_materials_name ON materials (lower(name))`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL CHECK (price >= 0),
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		status TEXT NOT NULL,
		images TEXT NOT NULL DEFAULT '{}',
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
		material_id TEXT REFERENCES materials(id) ON DELETE RESTRICT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('Processing','Shipped','Delivered','Cancelled')),
		total NUMERIC NOT NULL CHECK (total >= 0),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price NUMERIC NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// Open returns a client on a fresh in-memory database with foreign keys
// enforced. The database is dropped when the test ends.
func Open(t testing.TB) *db.Client {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	client, err := db.New(ctx, config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          dsn,
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	for _, stmt := range schema {
		if err := client.Exec(ctx, stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return client
}
