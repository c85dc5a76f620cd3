package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

func newReconciler(repo *storage.MockRepository) *Reconciler {
	ledger := NewLedger(repo, testLogger())
	return NewReconciler(repo, ledger, testLogger())
}

func TestReconciler_MatchExisting(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)

	seedTransaction(repo, "tx-1", storage.DirectionOut, "1500.00", 10)
	seedLine(repo, "line-1", "-1500.00", 10, "Payment ABC")

	result, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
		StatementLineID: "line-1",
		Action:          ActionMatchExisting,
		TransactionID:   "tx-1",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Transaction)
	assert.True(t, result.Transaction.Matched)
	require.NotNil(t, result.StatementLine)
	assert.True(t, result.StatementLine.Matched)
	require.NotNil(t, result.StatementLine.MatchedTxID)
	assert.Equal(t, "tx-1", *result.StatementLine.MatchedTxID)
	assert.NotNil(t, result.Summary)

	stored, err := repo.GetTransaction(context.Background(), "tx-1")
	require.NoError(t, err)
	require.NotNil(t, stored.MatchedLineID)
	assert.Equal(t, "line-1", *stored.MatchedLineID)
}

func TestReconciler_MatchExisting_Rejections(t *testing.T) {
	t.Run("line already matched", func(t *testing.T) {
		repo := storage.NewMockRepository()
		reconciler := newReconciler(repo)
		seedTransaction(repo, "tx-1", storage.DirectionOut, "100.00", 10)
		line := seedLine(repo, "line-1", "-100.00", 10, "x")
		require.NoError(t, repo.UpdateStatementMatch(context.Background(), line.ID, true, &[]string{"other"}[0]))

		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1", Action: ActionMatchExisting, TransactionID: "tx-1",
		})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("transaction already matched", func(t *testing.T) {
		repo := storage.NewMockRepository()
		reconciler := newReconciler(repo)
		seedTransaction(repo, "tx-1", storage.DirectionOut, "100.00", 10)
		require.NoError(t, repo.UpdateTransactionMatch(context.Background(), "tx-1", true, &[]string{"other"}[0]))
		seedLine(repo, "line-1", "-100.00", 10, "x")

		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1", Action: ActionMatchExisting, TransactionID: "tx-1",
		})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("transaction missing", func(t *testing.T) {
		repo := storage.NewMockRepository()
		reconciler := newReconciler(repo)
		seedLine(repo, "line-1", "-100.00", 10, "x")

		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1", Action: ActionMatchExisting, TransactionID: "ghost",
		})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("deleted transaction is never a target", func(t *testing.T) {
		repo := storage.NewMockRepository()
		reconciler := newReconciler(repo)
		seedTransaction(repo, "tx-1", storage.DirectionOut, "100.00", 10)
		require.NoError(t, repo.SoftDeleteTransaction(context.Background(), "tx-1", time.Now()))
		seedLine(repo, "line-1", "-100.00", 10, "x")

		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1", Action: ActionMatchExisting, TransactionID: "tx-1",
		})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("missing transaction id", func(t *testing.T) {
		repo := storage.NewMockRepository()
		reconciler := newReconciler(repo)
		seedLine(repo, "line-1", "-100.00", 10, "x")

		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1", Action: ActionMatchExisting,
		})
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("line missing", func(t *testing.T) {
		repo := storage.NewMockRepository()
		reconciler := newReconciler(repo)

		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "ghost", Action: ActionMatchExisting, TransactionID: "tx-1",
		})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("unknown action", func(t *testing.T) {
		repo := storage.NewMockRepository()
		reconciler := newReconciler(repo)
		seedLine(repo, "line-1", "-100.00", 10, "x")

		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1", Action: "merge",
		})
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestReconciler_CreateAndMatch_DefaultsFromLine(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)
	seedLine(repo, "line-1", "-1500.00", 10, "Payment ABC")

	result, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
		StatementLineID: "line-1",
		Action:          ActionCreateAndMatch,
	})
	require.NoError(t, err)

	tx := result.Transaction
	require.NotNil(t, tx)
	assert.Equal(t, storage.DirectionOut, tx.Direction)
	assert.True(t, tx.Amount.Equal(amount("1500.00")))
	assert.Equal(t, storage.VaultBank, tx.VaultID)
	assert.Equal(t, day(10), tx.Date)
	assert.Equal(t, "Payment ABC", tx.Description)
	assert.True(t, tx.Matched)

	assert.True(t, result.StatementLine.Matched)
	require.NotNil(t, result.StatementLine.MatchedTxID)
	assert.Equal(t, tx.ID, *result.StatementLine.MatchedTxID)
}

func TestReconciler_CreateAndMatch_Overrides(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)
	seedLine(repo, "line-1", "250.00", 10, "Deposit")

	override := amount("260.00")
	overrideDate := day(12)
	result, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
		StatementLineID: "line-1",
		Action:          ActionCreateAndMatch,
		NewTransaction: &NewTransactionInput{
			VaultID:     storage.VaultCash,
			Description: "Client deposit",
			Category:    "sales",
			Amount:      &override,
			Date:        &overrideDate,
		},
	})
	require.NoError(t, err)

	tx := result.Transaction
	assert.Equal(t, storage.DirectionIn, tx.Direction)
	assert.True(t, tx.Amount.Equal(override))
	assert.Equal(t, storage.VaultCash, tx.VaultID)
	assert.Equal(t, overrideDate, tx.Date)
	assert.Equal(t, "Client deposit", tx.Description)
	assert.Equal(t, "sales", tx.Category)
}

func TestReconciler_CreateAndMatch_Validation(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)
	seedLine(repo, "line-1", "-100.00", 10, "x")

	t.Run("non-positive amount", func(t *testing.T) {
		bad := amount("0")
		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1",
			Action:          ActionCreateAndMatch,
			NewTransaction:  &NewTransactionInput{Amount: &bad},
		})
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("unknown vault", func(t *testing.T) {
		_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
			StatementLineID: "line-1",
			Action:          ActionCreateAndMatch,
			NewTransaction:  &NewTransactionInput{VaultID: "SAFE"},
		})
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestReconciler_Unmatch(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)

	seedTransaction(repo, "tx-1", storage.DirectionOut, "100.00", 10)
	seedLine(repo, "line-1", "-100.00", 10, "x")
	_, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
		StatementLineID: "line-1", Action: ActionMatchExisting, TransactionID: "tx-1",
	})
	require.NoError(t, err)

	result, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
		StatementLineID: "line-1", Action: ActionUnmatch,
	})
	require.NoError(t, err)

	assert.False(t, result.StatementLine.Matched)
	assert.Nil(t, result.StatementLine.MatchedTxID)

	tx, err := repo.GetTransaction(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.False(t, tx.Matched)
	assert.Nil(t, tx.MatchedLineID)
}

func TestReconciler_Unmatch_UnmatchedIsNoOp(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)
	seedLine(repo, "line-1", "-100.00", 10, "x")

	result, err := reconciler.Reconcile(context.Background(), ReconcileRequest{
		StatementLineID: "line-1", Action: ActionUnmatch,
	})
	require.NoError(t, err)
	assert.False(t, result.StatementLine.Matched)
}

func TestReconciler_Suggestions(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)

	seedTransaction(repo, "tx-near", storage.DirectionOut, "1500.00", 11)
	seedTransaction(repo, "tx-far", storage.DirectionOut, "1500.00", 28)
	seedTransaction(repo, "tx-other", storage.DirectionOut, "999.00", 11)
	seedLine(repo, "line-1", "-1500.00", 10, "Payment ABC")

	candidates, err := reconciler.Suggestions(context.Background(), "line-1", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "tx-near", candidates[0].Transaction.ID)
}

func TestReconciler_Suggestions_LineNotFound(t *testing.T) {
	repo := storage.NewMockRepository()
	reconciler := newReconciler(repo)

	_, err := reconciler.Suggestions(context.Background(), "ghost", 10)
	assert.True(t, errors.Is(err, ErrNotFound))
}
