package database

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	    id            UUID PRIMARY KEY,
	    email         TEXT NOT NULL UNIQUE,
	    password_hash TEXT NOT NULL,
	    first_name    TEXT NOT NULL DEFAULT '',
	    last_name     TEXT NOT NULL DEFAULT '',
	    role          TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer', 'admin')),
	    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS schools (
	    id         UUID PRIMARY KEY,
	    name       TEXT NOT NULL,
	    slug       TEXT NOT NULL UNIQUE,
	    city       TEXT NOT NULL DEFAULT '',
	    image_url  TEXT NOT NULL DEFAULT '',
	    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS packs (
	    id         UUID PRIMARY KEY,
	    school_id  UUID NOT NULL REFERENCES schools(id),
	    grade      TEXT NOT NULL,
	    name       TEXT NOT NULL,
	    price      NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	    supplies   JSONB NOT NULL DEFAULT '[]',
	    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_packs_school_grade ON packs (school_id, grade)`,

	`CREATE TABLE IF NOT EXISTS electronics (
	    id         UUID PRIMARY KEY,
	    name       TEXT NOT NULL,
	    brand      TEXT NOT NULL DEFAULT '',
	    category   TEXT NOT NULL DEFAULT '',
	    price      NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	    stock      INT NOT NULL DEFAULT 0,
	    image_url  TEXT NOT NULL DEFAULT '',
	    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// stripe_session_id is the natural key of an order: one payment session, one row.
	`CREATE TABLE IF NOT EXISTS orders (
	    id                UUID PRIMARY KEY,
	    user_id           UUID NULL REFERENCES users(id),
	    items             JSONB NOT NULL,
	    total             NUMERIC(12,2) NOT NULL,
	    status            TEXT NOT NULL DEFAULT 'pendiente'
	                      CHECK (status IN ('pendiente', 'procesando', 'completada', 'cancelada')),
	    school_name       TEXT NOT NULL DEFAULT '',
	    grade             TEXT NOT NULL DEFAULT '',
	    stripe_session_id TEXT NOT NULL,
	    version           INT NOT NULL DEFAULT 1,
	    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    CONSTRAINT uq_orders_stripe_session UNIQUE (stripe_session_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_school_grade ON orders (school_name, grade)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
}
