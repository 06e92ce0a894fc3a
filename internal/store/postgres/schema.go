package postgres

import "context"

// schema is applied by Migrate. Outlet delivery columns are nullable; an
// outlet without coordinates has no delivery configuration.
const schema = `
CREATE TABLE IF NOT EXISTS outlets (
    id                 TEXT PRIMARY KEY,
    name               TEXT NOT NULL,
    address            TEXT NOT NULL DEFAULT '',
    latitude           DOUBLE PRECISION,
    longitude          DOUBLE PRECISION,
    base_delivery_fee  BIGINT NOT NULL DEFAULT 0,
    per_km_rate        BIGINT NOT NULL DEFAULT 0,
    service_radius_km  DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS catalog_items (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    pricing_mode  TEXT NOT NULL CHECK (pricing_mode IN ('PER_PIECE', 'PER_KG')),
    unit_price    BIGINT NOT NULL CHECK (unit_price >= 0),
    active        BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS orders (
    id                  TEXT PRIMARY KEY,
    outlet_id           TEXT NOT NULL REFERENCES outlets(id),
    customer_name       TEXT NOT NULL DEFAULT '',
    customer_username   TEXT NOT NULL DEFAULT '',
    customer_latitude   DOUBLE PRECISION,
    customer_longitude  DOUBLE PRECISION,
    status              TEXT NOT NULL,
    total_weight_kg     DOUBLE PRECISION NOT NULL DEFAULT 0,
    laundry_price       BIGINT NOT NULL DEFAULT 0,
    delivery_fee        BIGINT NOT NULL DEFAULT 0,
    distance_km         DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_price         BIGINT NOT NULL DEFAULT 0,
    total_is_partial    BOOLEAN NOT NULL DEFAULT false,
    processed_by        TEXT,
    processed_at        TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE orders ADD COLUMN IF NOT EXISTS customer_username TEXT NOT NULL DEFAULT '';

CREATE TABLE IF NOT EXISTS order_items (
    order_id         TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    line_no          INT NOT NULL,
    catalog_item_id  TEXT NOT NULL REFERENCES catalog_items(id),
    quantity         INT NOT NULL DEFAULT 0,
    weight_kg        DOUBLE PRECISION NOT NULL DEFAULT 0,
    color            TEXT NOT NULL DEFAULT '',
    brand            TEXT NOT NULL DEFAULT '',
    material         TEXT NOT NULL DEFAULT '',
    details          JSONB NOT NULL DEFAULT '[]',
    PRIMARY KEY (order_id, line_no)
);

CREATE TABLE IF NOT EXISTS work_processes (
    id            BIGSERIAL PRIMARY KEY,
    order_id      TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    stage         TEXT NOT NULL CHECK (stage IN ('WASHING', 'IRONING', 'PACKING')),
    started_at    TIMESTAMPTZ NOT NULL,
    completed_at  TIMESTAMPTZ,
    worker_name   TEXT NOT NULL DEFAULT '',
    notes         TEXT
);

CREATE INDEX IF NOT EXISTS idx_work_processes_order ON work_processes(order_id, started_at);

CREATE TABLE IF NOT EXISTS audit_logs (
    id              TEXT PRIMARY KEY,
    outlet_id       TEXT NOT NULL DEFAULT '',
    actor_username  TEXT NOT NULL,
    actor_role      TEXT NOT NULL,
    action          TEXT NOT NULL,
    entity_type     TEXT NOT NULL,
    entity_id       TEXT NOT NULL,
    detail          TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS app_users (
    username    TEXT PRIMARY KEY,
    password    TEXT NOT NULL,
    role        TEXT NOT NULL,
    outlet_id   TEXT NOT NULL DEFAULT '',
    active      BOOLEAN NOT NULL DEFAULT true,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates missing tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
