package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obraflow/ledger-backend/internal/domain/suggest"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// Action discriminates the reconcile operations.
type Action string

const (
	ActionMatchExisting  Action = "match_existing"
	ActionCreateAndMatch Action = "create_and_match"
	ActionUnmatch        Action = "unmatch"
)

// ReconcileRequest is one reconcile call against a statement line.
type ReconcileRequest struct {
	StatementLineID string
	Action          Action

	// TransactionID identifies the match target for ActionMatchExisting.
	TransactionID string

	// NewTransaction carries the fields for ActionCreateAndMatch. Amount and
	// date default from the statement line when omitted.
	NewTransaction *NewTransactionInput
}

// NewTransactionInput describes a transaction created by create-and-match.
type NewTransactionInput struct {
	VaultID     string
	Description string
	Category    string
	Amount      *decimal.Decimal
	Date        *time.Time
}

// ReconcileResult reports the outcome of a reconcile call.
type ReconcileResult struct {
	StatementLine *storage.StatementLine `json:"statement_line"`
	Transaction   *storage.Transaction   `json:"transaction,omitempty"`
	Summary       *BalanceSummary        `json:"summary"`
}

// Reconciler runs the match state machine between statement lines and
// transactions. Each pair has at most one active match; matching an
// already-matched side is rejected until it is unmatched.
type Reconciler struct {
	repo   storage.Repository
	ledger *Ledger
	logger *slog.Logger
}

// NewReconciler creates the reconciliation matcher.
func NewReconciler(repo storage.Repository, ledger *Ledger, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{repo: repo, ledger: ledger, logger: logger}
}

// Reconcile dispatches on the requested action. Every successful mutation is
// followed by a synchronous recalculation; a recalculation failure fails the
// whole operation so balances can never go stale silently.
func (r *Reconciler) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	line, err := r.activeLine(ctx, req.StatementLineID)
	if err != nil {
		return nil, err
	}

	var tx *storage.Transaction
	switch req.Action {
	case ActionMatchExisting:
		tx, err = r.matchExisting(ctx, line, req.TransactionID)
	case ActionCreateAndMatch:
		tx, err = r.createAndMatch(ctx, line, req.NewTransaction)
	case ActionUnmatch:
		err = r.unmatch(ctx, line)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action)
	}
	if err != nil {
		return nil, err
	}

	summary, err := r.ledger.RecalculateAll(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("reconcile succeeded but recalculation failed: %w", err)
	}

	updated, err := r.repo.GetStatementLine(ctx, line.ID)
	if err != nil {
		return nil, err
	}

	return &ReconcileResult{StatementLine: updated, Transaction: tx, Summary: summary}, nil
}

// Suggestions ranks unmatched transactions as manual-match candidates for a
// statement line. Read-only.
func (r *Reconciler) Suggestions(ctx context.Context, lineID string, limit int) ([]suggest.Candidate, error) {
	line, err := r.activeLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	unmatched := false
	transactions, err := r.repo.ListTransactions(ctx, storage.TransactionFilters{Matched: &unmatched})
	if err != nil {
		return nil, err
	}

	return suggest.Rank(*line, transactions, limit), nil
}

func (r *Reconciler) matchExisting(ctx context.Context, line *storage.StatementLine, txID string) (*storage.Transaction, error) {
	if line.Matched {
		return nil, fmt.Errorf("%w: statement line %s is already matched", ErrConflict, line.ID)
	}
	if txID == "" {
		return nil, fmt.Errorf("%w: transaction_id is required for match_existing", ErrValidation)
	}

	tx, err := r.repo.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.Deleted() {
		// A deleted transaction can never become a match target.
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, txID)
	}
	if tx.Matched {
		return nil, fmt.Errorf("%w: transaction %s is already matched", ErrConflict, txID)
	}

	if err := r.link(ctx, line.ID, tx.ID); err != nil {
		return nil, err
	}
	tx.Matched = true
	tx.MatchedLineID = &line.ID
	return tx, nil
}

func (r *Reconciler) createAndMatch(ctx context.Context, line *storage.StatementLine, input *NewTransactionInput) (*storage.Transaction, error) {
	if line.Matched {
		return nil, fmt.Errorf("%w: statement line %s is already matched", ErrConflict, line.ID)
	}
	if input == nil {
		input = &NewTransactionInput{}
	}

	// Defaults come from the statement line: magnitude as the amount, sign as
	// the direction, the line's own date and description.
	amount := line.Amount.Abs()
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		amount = *input.Amount
	}
	date := line.Date
	if input.Date != nil {
		date = *input.Date
	}
	description := line.Description
	if input.Description != "" {
		description = input.Description
	}
	vaultID := input.VaultID
	if vaultID == "" {
		vaultID = storage.VaultBank // the statement came from the bank account
	}
	if vaultID != storage.VaultBank && vaultID != storage.VaultCash {
		return nil, fmt.Errorf("%w: unknown vault %q", ErrValidation, vaultID)
	}

	direction := storage.DirectionIn
	if line.Amount.IsNegative() {
		direction = storage.DirectionOut
	}

	tx := &storage.Transaction{
		ID:            uuid.NewString(),
		Direction:     direction,
		VaultID:       vaultID,
		Amount:        amount,
		Date:          date,
		OriginalDate:  date,
		Description:   description,
		Category:      input.Category,
		PaymentKind:   storage.PaymentKindGeneral,
		Matched:       true,
		MatchedLineID: &line.ID,
	}
	if err := r.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := r.repo.UpdateStatementMatch(ctx, line.ID, true, &tx.ID); err != nil {
		return nil, fmt.Errorf("failed to mark statement line matched: %w", err)
	}

	r.logger.Info("created and matched transaction",
		"statement_line", line.ID, "transaction", tx.ID, "amount", amount.String())
	return tx, nil
}

func (r *Reconciler) unmatch(ctx context.Context, line *storage.StatementLine) error {
	if line.MatchedTxID == nil {
		// Safe no-op: unmatching an unmatched line is not an error.
		return nil
	}

	txID := *line.MatchedTxID
	if err := r.repo.UpdateStatementMatch(ctx, line.ID, false, nil); err != nil {
		return fmt.Errorf("failed to unmatch statement line: %w", err)
	}
	if err := r.repo.UpdateTransactionMatch(ctx, txID, false, nil); err != nil {
		return fmt.Errorf("failed to unmatch transaction: %w", err)
	}

	r.logger.Info("unmatched pair", "statement_line", line.ID, "transaction", txID)
	return nil
}

// link records the cross-reference on both sides. Used by matchExisting and
// by the importer's auto-match pass, which recalculates once per batch
// instead of per link.
func (r *Reconciler) link(ctx context.Context, lineID, txID string) error {
	if err := r.repo.UpdateStatementMatch(ctx, lineID, true, &txID); err != nil {
		return fmt.Errorf("failed to mark statement line matched: %w", err)
	}
	if err := r.repo.UpdateTransactionMatch(ctx, txID, true, &lineID); err != nil {
		return fmt.Errorf("failed to mark transaction matched: %w", err)
	}
	return nil
}

// activeLine loads a statement line, rejecting missing or soft-deleted ones.
func (r *Reconciler) activeLine(ctx context.Context, id string) (*storage.StatementLine, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: statement_line_id is required", ErrValidation)
	}
	line, err := r.repo.GetStatementLine(ctx, id)
	if err != nil {
		return nil, err
	}
	if line == nil || line.Deleted() {
		return nil, fmt.Errorf("%w: statement line %s", ErrNotFound, id)
	}
	return line, nil
}
