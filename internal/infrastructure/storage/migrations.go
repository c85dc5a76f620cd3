package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "seed_vaults",
		Up:      migration002SeedVaults,
	},
	{
		Version: 3,
		Name:    "add_installments_table",
		Up:      migration003AddInstallmentsTable,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func (s *Storage) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	return err
}

func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func migration001InitialSchema(tx *sql.Tx) error {
	schema := `
	CREATE TABLE vaults (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		direction TEXT NOT NULL CHECK (direction IN ('IN', 'OUT')),
		vault_id TEXT NOT NULL REFERENCES vaults(id),
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		original_date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		payment_kind TEXT NOT NULL DEFAULT 'general',
		matched INTEGER NOT NULL DEFAULT 0,
		matched_line_id TEXT,
		installment_id INTEGER,
		deleted_at TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX idx_transactions_vault ON transactions(vault_id);
	CREATE INDEX idx_transactions_date ON transactions(date);
	CREATE INDEX idx_transactions_amount ON transactions(amount);

	CREATE TABLE statement_lines (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		balance TEXT,
		source_file TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL,
		matched INTEGER NOT NULL DEFAULT 0,
		matched_tx_id TEXT,
		deleted_at TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX idx_statement_lines_date ON statement_lines(date);
	CREATE INDEX idx_statement_lines_hash ON statement_lines(content_hash);

	CREATE TABLE holidays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		recurring INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := tx.Exec(schema)
	return err
}

func migration002SeedVaults(tx *sql.Tx) error {
	_, err := tx.Exec(`
	INSERT INTO vaults (id, name, balance, updated_at) VALUES
		('BANK', 'Bank Account', '0', datetime('now')),
		('CASH', 'Cash Box', '0', datetime('now'))
	`)
	return err
}

func migration003AddInstallmentsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE installments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_id TEXT NOT NULL,
		client_name TEXT NOT NULL DEFAULT '',
		number INTEGER NOT NULL,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		received INTEGER NOT NULL DEFAULT 0,
		received_at TEXT,
		transaction_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX idx_installments_schedule ON installments(schedule_id);
	CREATE INDEX idx_installments_transaction ON installments(transaction_id);
	`)
	return err
}
