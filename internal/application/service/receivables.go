package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obraflow/ledger-backend/internal/domain/installment"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// Receivables persists generated installment schedules and handles the
// mark-received flow, which is the one path where installments create
// transactions.
type Receivables struct {
	repo   storage.Repository
	ledger *Ledger
	logger *slog.Logger
}

// NewReceivables creates the receivables service.
func NewReceivables(repo storage.Repository, ledger *Ledger, logger *slog.Logger) *Receivables {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receivables{repo: repo, ledger: ledger, logger: logger}
}

// ScheduleInput describes a receivable to split into installments.
type ScheduleInput struct {
	ClientName     string
	Total          decimal.Decimal
	Count          int
	FirstDueDate   time.Time
	Periodicity    installment.Periodicity
	AdjustWeekends bool
	EndOfMonth     bool
}

// CreateSchedule generates the installment schedule and persists every
// installment under a fresh schedule id.
func (r *Receivables) CreateSchedule(ctx context.Context, input ScheduleInput) ([]storage.Installment, error) {
	generated, err := installment.Generate(installment.Config{
		Total:          input.Total,
		Count:          input.Count,
		FirstDueDate:   input.FirstDueDate,
		Periodicity:    input.Periodicity,
		AdjustWeekends: input.AdjustWeekends,
		EndOfMonth:     input.EndOfMonth,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	scheduleID := uuid.NewString()
	records := make([]storage.Installment, 0, len(generated))
	for _, inst := range generated {
		records = append(records, storage.Installment{
			ScheduleID: scheduleID,
			ClientName: input.ClientName,
			Number:     inst.Number,
			Amount:     inst.Amount,
			DueDate:    inst.DueDate,
		})
	}

	saved, err := r.repo.InsertInstallments(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	r.logger.Info("created installment schedule", "schedule", scheduleID,
		"client", input.ClientName, "count", len(saved), "total", input.Total.String())
	return saved, nil
}

// MarkReceived records an installment payment: it creates the IN transaction
// referencing the installment, flags the installment received, and
// recalculates. Receiving an already-received installment is rejected.
func (r *Receivables) MarkReceived(ctx context.Context, installmentID int64, vaultID string) (*storage.Installment, *BalanceSummary, error) {
	inst, err := r.repo.GetInstallment(ctx, installmentID)
	if err != nil {
		return nil, nil, err
	}
	if inst == nil {
		return nil, nil, fmt.Errorf("%w: installment %d", ErrNotFound, installmentID)
	}
	if inst.Received {
		return nil, nil, fmt.Errorf("%w: installment %d is already received", ErrConflict, installmentID)
	}
	if vaultID == "" {
		vaultID = storage.VaultBank
	}
	if vaultID != storage.VaultBank && vaultID != storage.VaultCash {
		return nil, nil, fmt.Errorf("%w: unknown vault %q", ErrValidation, vaultID)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	tx := &storage.Transaction{
		ID:            uuid.NewString(),
		Direction:     storage.DirectionIn,
		VaultID:       vaultID,
		Amount:        inst.Amount,
		Date:          today,
		OriginalDate:  today,
		Description:   fmt.Sprintf("Installment %d received - %s", inst.Number, inst.ClientName),
		Category:      "receivables",
		PaymentKind:   storage.PaymentKindGeneral,
		InstallmentID: &inst.ID,
	}
	if err := r.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, nil, fmt.Errorf("failed to record receipt transaction: %w", err)
	}

	receivedAt := now.UTC()
	if err := r.repo.UpdateInstallmentReceived(ctx, inst.ID, true, &receivedAt, &tx.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to flag installment received: %w", err)
	}

	summary, err := r.ledger.RecalculateAll(ctx, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("receipt recorded but recalculation failed: %w", err)
	}

	inst.Received = true
	inst.ReceivedAt = &receivedAt
	inst.TransactionID = &tx.ID

	r.logger.Info("installment received", "installment", inst.ID,
		"transaction", tx.ID, "amount", inst.Amount.String())
	return inst, summary, nil
}

// ListSchedule returns a schedule's installments in order.
func (r *Receivables) ListSchedule(ctx context.Context, scheduleID string) ([]storage.Installment, error) {
	return r.repo.ListInstallments(ctx, scheduleID)
}
