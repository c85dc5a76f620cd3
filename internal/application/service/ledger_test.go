package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

func TestLedger_RecalculateAll(t *testing.T) {
	repo := storage.NewMockRepository()
	ledger := NewLedger(repo, testLogger())

	seedTransaction(repo, "in-1", storage.DirectionIn, "10000.00", 10)
	seedTransaction(repo, "out-1", storage.DirectionOut, "9500.00", 11)

	cashIn := seedTransaction(repo, "cash-in", storage.DirectionIn, "250.00", 12)
	cashIn.VaultID = storage.VaultCash
	require.NoError(t, repo.InsertTransaction(context.Background(), cashIn))

	summary, err := ledger.RecalculateAll(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.True(t, summary.TotalEntries.Equal(amount("10250.00")))
	assert.True(t, summary.TotalExits.Equal(amount("9500.00")))
	assert.True(t, summary.Profit.Equal(amount("750.00")))

	require.Len(t, summary.Vaults, 2)
	byID := map[string]VaultTotals{}
	for _, v := range summary.Vaults {
		byID[v.VaultID] = v
	}
	assert.True(t, byID[storage.VaultBank].Balance.Equal(amount("500.00")))
	assert.True(t, byID[storage.VaultCash].Balance.Equal(amount("250.00")))

	// Balances are persisted on an unwindowed run.
	vaults, err := repo.ListVaults(context.Background())
	require.NoError(t, err)
	for _, v := range vaults {
		assert.True(t, v.Balance.Equal(byID[v.ID].Balance))
	}
}

func TestLedger_RecalculateAll_Idempotent(t *testing.T) {
	repo := storage.NewMockRepository()
	ledger := NewLedger(repo, testLogger())

	seedTransaction(repo, "in-1", storage.DirectionIn, "100.00", 10)

	first, err := ledger.RecalculateAll(context.Background(), nil, nil)
	require.NoError(t, err)
	second, err := ledger.RecalculateAll(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.True(t, first.Profit.Equal(second.Profit))
	assert.True(t, first.TotalEntries.Equal(second.TotalEntries))
	for i := range first.Vaults {
		assert.True(t, first.Vaults[i].Balance.Equal(second.Vaults[i].Balance))
	}
}

func TestLedger_RecalculateAll_ExcludesDeleted(t *testing.T) {
	repo := storage.NewMockRepository()
	ledger := NewLedger(repo, testLogger())

	seedTransaction(repo, "kept", storage.DirectionIn, "100.00", 10)
	seedTransaction(repo, "gone", storage.DirectionIn, "40.00", 11)
	require.NoError(t, repo.SoftDeleteTransaction(context.Background(), "gone", time.Now()))

	summary, err := ledger.RecalculateAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, summary.TotalEntries.Equal(amount("100.00")))
}

func TestLedger_RecalculateAll_WindowedIsReportingOnly(t *testing.T) {
	repo := storage.NewMockRepository()
	ledger := NewLedger(repo, testLogger())

	seedTransaction(repo, "early", storage.DirectionIn, "100.00", 5)
	seedTransaction(repo, "late", storage.DirectionIn, "40.00", 20)

	start := day(1)
	end := day(10)
	writesBefore := repo.VaultBalanceWrites

	summary, err := ledger.RecalculateAll(context.Background(), &start, &end)
	require.NoError(t, err)

	assert.True(t, summary.TotalEntries.Equal(amount("100.00")))
	assert.Equal(t, &start, summary.PeriodStart)
	assert.Equal(t, &end, summary.PeriodEnd)
	assert.Equal(t, writesBefore, repo.VaultBalanceWrites, "windowed run must not write balances")
}

func TestLedger_RecalculateAll_Margin(t *testing.T) {
	repo := storage.NewMockRepository()
	ledger := NewLedger(repo, testLogger())

	seedTransaction(repo, "in-1", storage.DirectionIn, "10000.00", 10)
	seedTransaction(repo, "out-1", storage.DirectionOut, "9500.00", 11)

	summary, err := ledger.RecalculateAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, summary.MarginPercent.Equal(amount("5.00")), "got %s", summary.MarginPercent)
}

func TestLedger_RecalculateAll_UnknownVaultFails(t *testing.T) {
	repo := storage.NewMockRepository()
	ledger := NewLedger(repo, testLogger())

	stray := seedTransaction(repo, "stray", storage.DirectionIn, "10.00", 10)
	stray.VaultID = "SAFE"
	require.NoError(t, repo.InsertTransaction(context.Background(), stray))

	_, err := ledger.RecalculateAll(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestLedger_RecalculateAll_BalanceWriteFailureSurfaces(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.UpdateVaultBalanceErr = assert.AnError
	ledger := NewLedger(repo, testLogger())

	_, err := ledger.RecalculateAll(context.Background(), nil, nil)
	assert.Error(t, err)
}
