// AngelaMos | 2026
// schema.go

package migrate

// Statements are written for PostgreSQL; core.Dialect.DDL rewrites the
// column types for sqlite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS businesses (
		id                   VARCHAR(36) PRIMARY KEY,
		name                 VARCHAR(255) NOT NULL,
		type                 VARCHAR(32) NOT NULL DEFAULT 'RESTAURANT',
		address              VARCHAR(500) NOT NULL DEFAULT '',
		phone                VARCHAR(32) NOT NULL DEFAULT '',
		email                VARCHAR(255) NOT NULL DEFAULT '',
		capacity             INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
		average_service_time INTEGER NOT NULL DEFAULT 60 CHECK (average_service_time >= 0),
		is_active            BOOLEAN NOT NULL DEFAULT TRUE,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_type ON businesses(type)`,

	`CREATE TABLE IF NOT EXISTS customers (
		id         VARCHAR(36) PRIMARY KEY,
		phone      VARCHAR(32) NOT NULL UNIQUE,
		name       VARCHAR(255) NOT NULL,
		email      VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(36) PRIMARY KEY,
		username      VARCHAR(255) NOT NULL UNIQUE,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(32) NOT NULL
			CHECK (role IN ('PLATFORM_ADMIN', 'BUSINESS_OWNER', 'BUSINESS_STAFF')),
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		token_version INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_businesses (
		user_id     VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		business_id VARCHAR(36) NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, business_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_businesses_business ON user_businesses(business_id)`,

	`CREATE TABLE IF NOT EXISTS customer_businesses (
		customer_id VARCHAR(36) NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		business_id VARCHAR(36) NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		PRIMARY KEY (customer_id, business_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_customer_businesses_business ON customer_businesses(business_id)`,

	`CREATE TABLE IF NOT EXISTS waitlist_entries (
		id                  VARCHAR(36) PRIMARY KEY,
		business_id         VARCHAR(36) NOT NULL REFERENCES businesses(id),
		customer_id         VARCHAR(36) NOT NULL REFERENCES customers(id),
		party_size          INTEGER NOT NULL CHECK (party_size > 0),
		position            INTEGER NOT NULL CHECK (position > 0),
		estimated_wait_time INTEGER NOT NULL DEFAULT 0,
		status              VARCHAR(16) NOT NULL DEFAULT 'WAITING',
		notes               TEXT NOT NULL DEFAULT '',
		notified_at         TIMESTAMPTZ,
		seated_at           TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waitlist_business_status ON waitlist_entries(business_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_waitlist_customer ON waitlist_entries(customer_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_waitlist_active_customer
		ON waitlist_entries(business_id, customer_id)
		WHERE status IN ('WAITING', 'NOTIFIED')`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id               VARCHAR(36) PRIMARY KEY,
		business_id      VARCHAR(36) NOT NULL REFERENCES businesses(id),
		customer_id      VARCHAR(36) NOT NULL REFERENCES customers(id),
		reservation_date DATE NOT NULL,
		reservation_time VARCHAR(5) NOT NULL,
		party_size       INTEGER NOT NULL CHECK (party_size > 0),
		status           VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		special_requests TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_slot
		ON reservations(business_id, reservation_date, reservation_time)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_id)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id                 VARCHAR(36) PRIMARY KEY,
		business_id        VARCHAR(36) NOT NULL UNIQUE REFERENCES businesses(id) ON DELETE CASCADE,
		plan               VARCHAR(16) NOT NULL DEFAULT 'BASIC',
		status             VARCHAR(16) NOT NULL DEFAULT 'TRIAL',
		start_date         TIMESTAMPTZ NOT NULL,
		end_date           TIMESTAMPTZ,
		billing_cycle_days INTEGER NOT NULL DEFAULT 30,
		monthly_price      NUMERIC(10, 2),
		auto_renew         BOOLEAN NOT NULL DEFAULT TRUE,
		trial_end_date     TIMESTAMPTZ,
		notes              TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_plan ON subscriptions(plan)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id             VARCHAR(36) PRIMARY KEY,
		user_id        VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash     VARCHAR(64) NOT NULL UNIQUE,
		family_id      VARCHAR(36) NOT NULL,
		expires_at     TIMESTAMPTZ NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		is_used        BOOLEAN NOT NULL DEFAULT FALSE,
		used_at        TIMESTAMPTZ,
		revoked_at     TIMESTAMPTZ,
		replaced_by_id VARCHAR(36),
		user_agent     VARCHAR(500) NOT NULL DEFAULT '',
		ip_address     VARCHAR(64) NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_family ON refresh_tokens(family_id)`,
}

type columnPatch struct {
	table      string
	column     string
	definition string
}

// Columns added after the first schema revision.
var columnPatches = []columnPatch{
	{"businesses", "average_service_time", "INTEGER NOT NULL DEFAULT 60"},
	{"businesses", "capacity", "INTEGER NOT NULL DEFAULT 0"},
	{"users", "token_version", "INTEGER NOT NULL DEFAULT 0"},
	{"users", "is_active", "BOOLEAN NOT NULL DEFAULT TRUE"},
	{"waitlist_entries", "notes", "TEXT NOT NULL DEFAULT ''"},
	{"waitlist_entries", "notified_at", "TIMESTAMPTZ"},
	{"waitlist_entries", "seated_at", "TIMESTAMPTZ"},
	{"reservations", "special_requests", "TEXT NOT NULL DEFAULT ''"},
}
