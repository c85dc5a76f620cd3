package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with the
// in-memory mock straightforward. All methods take a context so callers can
// bound the single round trip each one performs.
type Repository interface {
	VaultRepository
	TransactionRepository
	StatementRepository
	HolidayRepository
	InstallmentRepository
	Close() error
}

// VaultRepository handles the two singleton vault records.
type VaultRepository interface {
	// ListVaults returns both vaults, ordered by id.
	ListVaults(ctx context.Context) ([]Vault, error)

	// UpdateVaultBalance writes the recomputed balance for a vault.
	// Only the balance engine calls this.
	UpdateVaultBalance(ctx context.Context, id string, balance decimal.Decimal) error
}

// TransactionFilters narrows ListTransactions results.
type TransactionFilters struct {
	VaultID        string           // empty = all vaults
	Matched        *bool            // nil = any match state
	Amount         *decimal.Decimal // exact amount, nil = any
	Start, End     *time.Time       // inclusive effective-date window
	IncludeDeleted bool
	Limit          int // 0 = no limit
	Offset         int
}

// TransactionRepository handles internal transaction records.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, tx *Transaction) error

	// GetTransaction returns nil, nil when no row exists.
	GetTransaction(ctx context.Context, id string) (*Transaction, error)

	ListTransactions(ctx context.Context, filters TransactionFilters) ([]Transaction, error)

	// UpdateTransactionMatch sets the match flag and cross-reference.
	UpdateTransactionMatch(ctx context.Context, id string, matched bool, lineID *string) error

	// UpdateTransactionDates persists a re-adjusted effective date alongside
	// the nominal date it was derived from.
	UpdateTransactionDates(ctx context.Context, id string, original, effective time.Time) error

	SoftDeleteTransaction(ctx context.Context, id string, at time.Time) error
}

// StatementFilters narrows ListStatementLines results.
type StatementFilters struct {
	Matched        *bool
	SourceFile     string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// StatementRepository handles imported bank-statement lines.
type StatementRepository interface {
	InsertStatementLine(ctx context.Context, line *StatementLine) error

	// GetStatementLine returns nil, nil when no row exists.
	GetStatementLine(ctx context.Context, id string) (*StatementLine, error)

	ListStatementLines(ctx context.Context, filters StatementFilters) ([]StatementLine, error)

	// FindDuplicateLine looks for a non-deleted line with the same amount and
	// trimmed description whose date falls within ±windowDays of date.
	// Returns nil, nil when none exists.
	FindDuplicateLine(ctx context.Context, amount decimal.Decimal, description string, date time.Time, windowDays int) (*StatementLine, error)

	UpdateStatementMatch(ctx context.Context, id string, matched bool, txID *string) error

	SoftDeleteStatementLine(ctx context.Context, id string, at time.Time) error
}

// HolidayRepository is the holiday registry surface. The calendar treats it
// as read-only input.
type HolidayRepository interface {
	ListHolidays(ctx context.Context) ([]Holiday, error)
	InsertHoliday(ctx context.Context, h *Holiday) error
	DeleteHoliday(ctx context.Context, id int64) error
}

// InstallmentRepository handles persisted receivable schedules.
type InstallmentRepository interface {
	// InsertInstallments persists a generated schedule, assigning IDs.
	InsertInstallments(ctx context.Context, installments []Installment) ([]Installment, error)

	// GetInstallment returns nil, nil when no row exists.
	GetInstallment(ctx context.Context, id int64) (*Installment, error)

	ListInstallments(ctx context.Context, scheduleID string) ([]Installment, error)

	// UpdateInstallmentReceived sets or clears the received flag, the received
	// date, and the link to the transaction the receipt created.
	UpdateInstallmentReceived(ctx context.Context, id int64, received bool, at *time.Time, txID *string) error

	// GetInstallmentByTransaction finds the installment a transaction was
	// created from, nil, nil when the transaction has no originating installment.
	GetInstallmentByTransaction(ctx context.Context, txID string) (*Installment, error)
}
