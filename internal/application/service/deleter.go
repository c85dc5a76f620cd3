package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// Deleter coordinates soft-delete cascades. A delete never removes a row: it
// stamps the record, tears down any active match so no deleted entity stays
// reachable as a match target, clears installment receipt state when the
// transaction came from the mark-received flow, and recalculates.
type Deleter struct {
	repo   storage.Repository
	ledger *Ledger
	logger *slog.Logger
}

// NewDeleter creates the soft-delete cascade coordinator.
func NewDeleter(repo storage.Repository, ledger *Ledger, logger *slog.Logger) *Deleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deleter{repo: repo, ledger: ledger, logger: logger}
}

// DeleteTransaction soft-deletes a transaction and returns the recalculated
// summary. Deleting an already-deleted transaction is a no-op.
func (d *Deleter) DeleteTransaction(ctx context.Context, id string) (*BalanceSummary, error) {
	tx, err := d.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}
	if tx.Deleted() {
		return d.recalculate(ctx)
	}

	if tx.MatchedLineID != nil {
		if err := d.repo.UpdateStatementMatch(ctx, *tx.MatchedLineID, false, nil); err != nil {
			return nil, fmt.Errorf("failed to unmatch paired statement line: %w", err)
		}
		if err := d.repo.UpdateTransactionMatch(ctx, tx.ID, false, nil); err != nil {
			return nil, fmt.Errorf("failed to clear transaction match: %w", err)
		}
	}

	// A transaction created by marking an installment received carries the
	// installment reference; deleting it reopens the installment.
	if tx.InstallmentID != nil {
		if err := d.repo.UpdateInstallmentReceived(ctx, *tx.InstallmentID, false, nil, nil); err != nil {
			return nil, fmt.Errorf("failed to clear installment receipt: %w", err)
		}
	}

	if err := d.repo.SoftDeleteTransaction(ctx, tx.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to soft-delete transaction: %w", err)
	}

	d.logger.Info("soft-deleted transaction", "transaction", tx.ID)
	return d.recalculate(ctx)
}

// DeleteStatementLine soft-deletes a statement line and returns the
// recalculated summary. Deleting an already-deleted line is a no-op.
func (d *Deleter) DeleteStatementLine(ctx context.Context, id string) (*BalanceSummary, error) {
	line, err := d.repo.GetStatementLine(ctx, id)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, fmt.Errorf("%w: statement line %s", ErrNotFound, id)
	}
	if line.Deleted() {
		return d.recalculate(ctx)
	}

	if line.MatchedTxID != nil {
		if err := d.repo.UpdateTransactionMatch(ctx, *line.MatchedTxID, false, nil); err != nil {
			return nil, fmt.Errorf("failed to unmatch paired transaction: %w", err)
		}
		if err := d.repo.UpdateStatementMatch(ctx, line.ID, false, nil); err != nil {
			return nil, fmt.Errorf("failed to clear statement line match: %w", err)
		}
	}

	if err := d.repo.SoftDeleteStatementLine(ctx, line.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to soft-delete statement line: %w", err)
	}

	d.logger.Info("soft-deleted statement line", "statement_line", line.ID)
	return d.recalculate(ctx)
}

func (d *Deleter) recalculate(ctx context.Context) (*BalanceSummary, error) {
	summary, err := d.ledger.RecalculateAll(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("delete succeeded but recalculation failed: %w", err)
	}
	return summary, nil
}
