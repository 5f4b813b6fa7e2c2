package repository

import (
	"database/sql"
	"fmt"
	"log"
)

// InitializeSchema creates the tables the sign pipeline works against.
// Safe to run on every start.
func InitializeSchema(db *sql.DB) error {
	log.Println("Checking database schema...")

	schema := `
	-- SIGNS: identity plus pointer to the current event
	CREATE TABLE IF NOT EXISTS signs (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL
	);

	-- SIGN EVENTS: append-only status history
	CREATE TABLE IF NOT EXISTS sign_events (
		id UUID PRIMARY KEY,
		sign_id UUID NOT NULL,
		order_id UUID,
		status TEXT NOT NULL,
		profile_id UUID NOT NULL,
		seller_id UUID,
		material_id UUID NOT NULL,
		offer_const UUID,
		variation_const UUID,
		modification_const UUID,
		batch_id UUID,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- LEASES: TTL mutual exclusion per sign
	CREATE TABLE IF NOT EXISTS sign_leases (
		key TEXT PRIMARY KEY,
		expires_at TIMESTAMP NOT NULL
	);

	-- ORDER EVENTS: immutable order snapshots
	CREATE TABLE IF NOT EXISTS order_events (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL,
		status TEXT NOT NULL,
		delivery_type TEXT NOT NULL DEFAULT '',
		payment_type TEXT NOT NULL DEFAULT '',
		profile_event_id UUID NOT NULL,
		order_profile_id UUID NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_event_id UUID NOT NULL REFERENCES order_events(id),
		position INT NOT NULL,
		product_event_id UUID NOT NULL,
		offer_value TEXT,
		variation_value TEXT,
		modification_value TEXT,
		quantity INT NOT NULL
	);

	-- CLIENT PROFILES: current snapshot with classification type
	CREATE TABLE IF NOT EXISTS profile_events (
		id UUID PRIMARY KEY,
		profile_id UUID NOT NULL,
		type TEXT NOT NULL
	);

	-- CATALOG: which regulated materials a product resolves to
	CREATE TABLE IF NOT EXISTS product_materials (
		product_event_id UUID NOT NULL,
		material_id UUID NOT NULL,
		PRIMARY KEY (product_event_id, material_id)
	);

	CREATE TABLE IF NOT EXISTS material_variants (
		material_id UUID NOT NULL,
		offer_value TEXT,
		variation_value TEXT,
		modification_value TEXT,
		offer_const UUID,
		variation_const UUID,
		modification_const UUID
	);

	-- INDEXES
	CREATE INDEX IF NOT EXISTS idx_sign_events_pool ON sign_events(status, material_id);
	CREATE INDEX IF NOT EXISTS idx_sign_events_order ON sign_events(order_id);
	CREATE INDEX IF NOT EXISTS idx_sign_leases_expiry ON sign_leases(expires_at);
	CREATE INDEX IF NOT EXISTS idx_order_events_order ON order_events(order_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_order_items_event ON order_items(order_event_id, position);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate database schema: %v", err)
	}

	log.Println("Database schema initialized successfully.")
	return nil
}
