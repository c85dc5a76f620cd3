package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Date-only columns use dateLayout; timestamp columns use RFC 3339.
const dateLayout = "2006-01-02"

// Storage provides SQLite database access for the reconciliation core.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// --- Vaults ---

// ListVaults returns both vaults, ordered by id.
func (s *Storage) ListVaults(ctx context.Context) ([]Vault, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, balance, updated_at FROM vaults ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var vaults []Vault
	for rows.Next() {
		var v Vault
		var balance, updatedAt string
		if err := rows.Scan(&v.ID, &v.Name, &balance, &updatedAt); err != nil {
			return nil, err
		}
		if v.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("vault %s has invalid balance %q: %w", v.ID, balance, err)
		}
		v.UpdatedAt = parseTimestamp(updatedAt)
		vaults = append(vaults, v)
	}
	return vaults, rows.Err()
}

// UpdateVaultBalance writes the recomputed balance for a vault.
func (s *Storage) UpdateVaultBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE vaults SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("vault %s does not exist", id)
	}
	return nil
}

// --- Transactions ---

const transactionColumns = `id, direction, vault_id, amount, date, original_date,
	description, category, payment_kind, matched, matched_line_id, installment_id,
	deleted_at, created_at`

// InsertTransaction persists a new transaction.
func (s *Storage) InsertTransaction(ctx context.Context, tx *Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO transactions (`+transactionColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		string(tx.Direction),
		tx.VaultID,
		tx.Amount.String(),
		tx.Date.Format(dateLayout),
		tx.OriginalDate.Format(dateLayout),
		tx.Description,
		tx.Category,
		string(tx.PaymentKind),
		tx.Matched,
		tx.MatchedLineID,
		tx.InstallmentID,
		formatNullableTime(tx.DeletedAt),
		tx.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// GetTransaction retrieves a transaction by id, returning nil, nil when absent.
func (s *Storage) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns transactions matching the given filters.
func (s *Storage) ListTransactions(ctx context.Context, filters TransactionFilters) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []interface{}

	if !filters.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if filters.VaultID != "" {
		query += ` AND vault_id = ?`
		args = append(args, filters.VaultID)
	}
	if filters.Matched != nil {
		query += ` AND matched = ?`
		args = append(args, *filters.Matched)
	}
	if filters.Amount != nil {
		query += ` AND amount = ?`
		args = append(args, filters.Amount.String())
	}
	if filters.Start != nil {
		query += ` AND date >= ?`
		args = append(args, filters.Start.Format(dateLayout))
	}
	if filters.End != nil {
		query += ` AND date <= ?`
		args = append(args, filters.End.Format(dateLayout))
	}

	query += ` ORDER BY date DESC, created_at DESC`
	if filters.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// UpdateTransactionMatch sets the match flag and cross-reference.
func (s *Storage) UpdateTransactionMatch(ctx context.Context, id string, matched bool, lineID *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET matched = ?, matched_line_id = ? WHERE id = ?`,
		matched, lineID, id)
	return err
}

// UpdateTransactionDates persists a re-adjusted effective date.
func (s *Storage) UpdateTransactionDates(ctx context.Context, id string, original, effective time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET original_date = ?, date = ? WHERE id = ?`,
		original.Format(dateLayout), effective.Format(dateLayout), id)
	return err
}

// SoftDeleteTransaction marks a transaction deleted.
func (s *Storage) SoftDeleteTransaction(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at.UTC().Format(time.RFC3339), id)
	return err
}

// --- Statement lines ---

const statementColumns = `id, description, amount, date, balance, source_file,
	content_hash, matched, matched_tx_id, deleted_at, created_at`

// InsertStatementLine persists a new statement line.
func (s *Storage) InsertStatementLine(ctx context.Context, line *StatementLine) error {
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now().UTC()
	}
	var balance *string
	if line.Balance != nil {
		v := line.Balance.String()
		balance = &v
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO statement_lines (`+statementColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		line.ID,
		line.Description,
		line.Amount.String(),
		line.Date.Format(dateLayout),
		balance,
		line.SourceFile,
		line.ContentHash,
		line.Matched,
		line.MatchedTxID,
		formatNullableTime(line.DeletedAt),
		line.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// GetStatementLine retrieves a statement line by id, returning nil, nil when absent.
func (s *Storage) GetStatementLine(ctx context.Context, id string) (*StatementLine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statement_lines WHERE id = ?`, id)
	line, err := scanStatementLine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

// ListStatementLines returns statement lines matching the given filters.
func (s *Storage) ListStatementLines(ctx context.Context, filters StatementFilters) ([]StatementLine, error) {
	query := `SELECT ` + statementColumns + ` FROM statement_lines WHERE 1=1`
	var args []interface{}

	if !filters.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if filters.Matched != nil {
		query += ` AND matched = ?`
		args = append(args, *filters.Matched)
	}
	if filters.SourceFile != "" {
		query += ` AND source_file = ?`
		args = append(args, filters.SourceFile)
	}

	query += ` ORDER BY date DESC, created_at DESC`
	if filters.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []StatementLine
	for rows.Next() {
		line, err := scanStatementLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

// FindDuplicateLine looks for a previously imported line with the same amount
// and trimmed description within ±windowDays of the candidate's date.
func (s *Storage) FindDuplicateLine(ctx context.Context, amount decimal.Decimal, description string, date time.Time, windowDays int) (*StatementLine, error) {
	start := date.AddDate(0, 0, -windowDays).Format(dateLayout)
	end := date.AddDate(0, 0, windowDays).Format(dateLayout)

	row := s.db.QueryRowContext(ctx, `
	SELECT `+statementColumns+` FROM statement_lines
	WHERE deleted_at IS NULL
	  AND amount = ?
	  AND trim(description) = ?
	  AND date BETWEEN ? AND ?
	LIMIT 1`,
		amount.String(), strings.TrimSpace(description), start, end)

	line, err := scanStatementLine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateStatementMatch sets the match flag and cross-reference.
func (s *Storage) UpdateStatementMatch(ctx context.Context, id string, matched bool, txID *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE statement_lines SET matched = ?, matched_tx_id = ? WHERE id = ?`,
		matched, txID, id)
	return err
}

// SoftDeleteStatementLine marks a statement line deleted.
func (s *Storage) SoftDeleteStatementLine(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE statement_lines SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at.UTC().Format(time.RFC3339), id)
	return err
}

// --- Holidays ---

// ListHolidays returns all registered holidays.
func (s *Storage) ListHolidays(ctx context.Context) ([]Holiday, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, label, recurring FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Label, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, _ = time.Parse(dateLayout, date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// InsertHoliday registers a holiday and assigns its ID.
func (s *Storage) InsertHoliday(ctx context.Context, h *Holiday) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO holidays (date, label, recurring) VALUES (?, ?, ?)`,
		h.Date.Format(dateLayout), h.Label, h.Recurring)
	if err != nil {
		return err
	}
	h.ID, err = res.LastInsertId()
	return err
}

// DeleteHoliday removes a holiday from the registry. Holidays are registry
// data, not financial records, so this is a hard delete.
func (s *Storage) DeleteHoliday(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- Installments ---

const installmentColumns = `id, schedule_id, client_name, number, amount, due_date,
	received, received_at, transaction_id, created_at`

// InsertInstallments persists a generated schedule, assigning IDs.
func (s *Storage) InsertInstallments(ctx context.Context, installments []Installment) ([]Installment, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.CreatedAt.IsZero() {
			inst.CreatedAt = time.Now().UTC()
		}
		res, err := dbTx.ExecContext(ctx, `
		INSERT INTO installments (schedule_id, client_name, number, amount, due_date,
			received, received_at, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.ScheduleID,
			inst.ClientName,
			inst.Number,
			inst.Amount.String(),
			inst.DueDate.Format(dateLayout),
			inst.Received,
			formatNullableTime(inst.ReceivedAt),
			inst.TransactionID,
			inst.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			_ = dbTx.Rollback()
			return nil, err
		}
		if inst.ID, err = res.LastInsertId(); err != nil {
			_ = dbTx.Rollback()
			return nil, err
		}
		out = append(out, inst)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetInstallment retrieves an installment by id, returning nil, nil when absent.
func (s *Storage) GetInstallment(ctx context.Context, id int64) (*Installment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE id = ?`, id)
	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// ListInstallments returns a schedule's installments in order.
func (s *Storage) ListInstallments(ctx context.Context, scheduleID string) ([]Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE schedule_id = ? ORDER BY number`,
		scheduleID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var installments []Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, *inst)
	}
	return installments, rows.Err()
}

// UpdateInstallmentReceived sets or clears the received state.
func (s *Storage) UpdateInstallmentReceived(ctx context.Context, id int64, received bool, at *time.Time, txID *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE installments SET received = ?, received_at = ?, transaction_id = ? WHERE id = ?`,
		received, formatNullableTime(at), txID, id)
	return err
}

// GetInstallmentByTransaction finds the installment a transaction originated from.
func (s *Storage) GetInstallmentByTransaction(ctx context.Context, txID string) (*Installment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE transaction_id = ?`, txID)
	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// --- Scan helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var tx Transaction
	var direction, amount, date, originalDate, paymentKind, createdAt string
	var matchedLineID, deletedAt sql.NullString
	var installmentID sql.NullInt64

	err := row.Scan(
		&tx.ID,
		&direction,
		&tx.VaultID,
		&amount,
		&date,
		&originalDate,
		&tx.Description,
		&tx.Category,
		&paymentKind,
		&tx.Matched,
		&matchedLineID,
		&installmentID,
		&deletedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Direction = Direction(direction)
	tx.PaymentKind = PaymentKind(paymentKind)
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", tx.ID, amount, err)
	}
	tx.Date, _ = time.Parse(dateLayout, date)
	tx.OriginalDate, _ = time.Parse(dateLayout, originalDate)
	tx.CreatedAt = parseTimestamp(createdAt)
	if matchedLineID.Valid {
		tx.MatchedLineID = &matchedLineID.String
	}
	if installmentID.Valid {
		tx.InstallmentID = &installmentID.Int64
	}
	if deletedAt.Valid {
		t := parseTimestamp(deletedAt.String)
		tx.DeletedAt = &t
	}
	return &tx, nil
}

func scanStatementLine(row rowScanner) (*StatementLine, error) {
	var line StatementLine
	var amount, date, createdAt string
	var balance, matchedTxID, deletedAt sql.NullString

	err := row.Scan(
		&line.ID,
		&line.Description,
		&amount,
		&date,
		&balance,
		&line.SourceFile,
		&line.ContentHash,
		&line.Matched,
		&matchedTxID,
		&deletedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if line.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("statement line %s has invalid amount %q: %w", line.ID, amount, err)
	}
	line.Date, _ = time.Parse(dateLayout, date)
	line.CreatedAt = parseTimestamp(createdAt)
	if balance.Valid {
		if b, err := decimal.NewFromString(balance.String); err == nil {
			line.Balance = &b
		}
	}
	if matchedTxID.Valid {
		line.MatchedTxID = &matchedTxID.String
	}
	if deletedAt.Valid {
		t := parseTimestamp(deletedAt.String)
		line.DeletedAt = &t
	}
	return &line, nil
}

func scanInstallment(row rowScanner) (*Installment, error) {
	var inst Installment
	var amount, dueDate, createdAt string
	var receivedAt, transactionID sql.NullString

	err := row.Scan(
		&inst.ID,
		&inst.ScheduleID,
		&inst.ClientName,
		&inst.Number,
		&amount,
		&dueDate,
		&inst.Received,
		&receivedAt,
		&transactionID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if inst.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("installment %d has invalid amount %q: %w", inst.ID, amount, err)
	}
	inst.DueDate, _ = time.Parse(dateLayout, dueDate)
	inst.CreatedAt = parseTimestamp(createdAt)
	if receivedAt.Valid {
		t := parseTimestamp(receivedAt.String)
		inst.ReceivedAt = &t
	}
	if transactionID.Valid {
		inst.TransactionID = &transactionID.String
	}
	return &inst, nil
}

func formatNullableTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	// datetime('now') default from migrations
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}
