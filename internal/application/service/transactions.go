package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obraflow/ledger-backend/internal/domain/calendar"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// Transactions handles manual entries and date re-adjustment.
type Transactions struct {
	repo   storage.Repository
	ledger *Ledger
	logger *slog.Logger
}

// NewTransactions creates the transaction service.
func NewTransactions(repo storage.Repository, ledger *Ledger, logger *slog.Logger) *Transactions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactions{repo: repo, ledger: ledger, logger: logger}
}

// CreateTransactionInput describes a manual entry.
type CreateTransactionInput struct {
	Direction   storage.Direction
	VaultID     string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Category    string
	PaymentKind storage.PaymentKind
}

// Create validates and persists a manual entry. The nominal date is run
// through the payroll calendar policy; both the nominal and the adjusted date
// are stored. Triggers recalculation.
func (t *Transactions) Create(ctx context.Context, input CreateTransactionInput) (*storage.Transaction, *BalanceSummary, error) {
	if input.Direction != storage.DirectionIn && input.Direction != storage.DirectionOut {
		return nil, nil, fmt.Errorf("%w: direction must be IN or OUT", ErrValidation)
	}
	if input.VaultID != storage.VaultBank && input.VaultID != storage.VaultCash {
		return nil, nil, fmt.Errorf("%w: unknown vault %q", ErrValidation, input.VaultID)
	}
	if !input.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if input.Date.IsZero() {
		return nil, nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if input.PaymentKind == "" {
		input.PaymentKind = storage.PaymentKindGeneral
	}

	effective, err := t.ResolvePayrollDate(ctx, input.Date, input.PaymentKind)
	if err != nil {
		return nil, nil, err
	}

	tx := &storage.Transaction{
		ID:           uuid.NewString(),
		Direction:    input.Direction,
		VaultID:      input.VaultID,
		Amount:       input.Amount,
		Date:         effective,
		OriginalDate: input.Date,
		Description:  input.Description,
		Category:     input.Category,
		PaymentKind:  input.PaymentKind,
	}
	if err := t.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	summary, err := t.ledger.RecalculateAll(ctx, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create succeeded but recalculation failed: %w", err)
	}

	t.logger.Info("created transaction", "transaction", tx.ID,
		"vault", tx.VaultID, "direction", tx.Direction, "amount", tx.Amount.String())
	return tx, summary, nil
}

// SetDate re-applies the business-day adjustment to a new nominal date and
// persists both dates. Triggers recalculation: a date change can move the
// transaction across a reporting window.
func (t *Transactions) SetDate(ctx context.Context, id string, newDate time.Time) (*storage.Transaction, error) {
	tx, err := t.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.Deleted() {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	if newDate.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	effective, err := t.ResolvePayrollDate(ctx, newDate, tx.PaymentKind)
	if err != nil {
		return nil, err
	}

	if err := t.repo.UpdateTransactionDates(ctx, tx.ID, newDate, effective); err != nil {
		return nil, fmt.Errorf("failed to update dates: %w", err)
	}
	if _, err := t.ledger.RecalculateAll(ctx, nil, nil); err != nil {
		return nil, fmt.Errorf("date change succeeded but recalculation failed: %w", err)
	}

	tx.OriginalDate = newDate
	tx.Date = effective
	return tx, nil
}

// List returns transactions matching the filters.
func (t *Transactions) List(ctx context.Context, filters storage.TransactionFilters) ([]storage.Transaction, error) {
	return t.repo.ListTransactions(ctx, filters)
}

// ResolvePayrollDate applies the calendar policy against the holiday registry.
func (t *Transactions) ResolvePayrollDate(ctx context.Context, nominal time.Time, kind storage.PaymentKind) (time.Time, error) {
	holidays, err := loadHolidaySet(ctx, t.repo)
	if err != nil {
		return time.Time{}, err
	}
	resolved, err := calendar.ResolvePayrollDate(nominal, calendar.PaymentKind(kind), holidays)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return resolved, nil
}

// loadHolidaySet builds the calendar input from the holiday registry.
func loadHolidaySet(ctx context.Context, repo storage.HolidayRepository) (*calendar.HolidaySet, error) {
	holidays, err := repo.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	set := calendar.NewHolidaySet()
	for _, h := range holidays {
		set.Add(h.Date, h.Recurring)
	}
	return set, nil
}
