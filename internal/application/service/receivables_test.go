package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obraflow/ledger-backend/internal/domain/installment"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

func newReceivables(repo *storage.MockRepository) *Receivables {
	return NewReceivables(repo, NewLedger(repo, testLogger()), testLogger())
}

func TestReceivables_CreateSchedule(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newReceivables(repo)

	saved, err := svc.CreateSchedule(context.Background(), ScheduleInput{
		ClientName:   "ACME Construction",
		Total:        amount("1000.00"),
		Count:        3,
		FirstDueDate: day(10),
		Periodicity:  installment.Monthly,
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)

	scheduleID := saved[0].ScheduleID
	require.NotEmpty(t, scheduleID)

	sum := decimal.Zero
	for i, inst := range saved {
		assert.Equal(t, scheduleID, inst.ScheduleID)
		assert.Equal(t, "ACME Construction", inst.ClientName)
		assert.Equal(t, i+1, inst.Number)
		assert.False(t, inst.Received)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(amount("1000.00")))

	listed, err := svc.ListSchedule(context.Background(), scheduleID)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestReceivables_CreateSchedule_InvalidConfig(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newReceivables(repo)

	_, err := svc.CreateSchedule(context.Background(), ScheduleInput{
		ClientName:   "ACME",
		Total:        amount("0"),
		Count:        3,
		FirstDueDate: day(10),
		Periodicity:  installment.Monthly,
	})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestReceivables_MarkReceived(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newReceivables(repo)

	saved, err := svc.CreateSchedule(context.Background(), ScheduleInput{
		ClientName:   "ACME",
		Total:        amount("300.00"),
		Count:        3,
		FirstDueDate: day(10),
		Periodicity:  installment.Monthly,
	})
	require.NoError(t, err)

	inst, summary, err := svc.MarkReceived(context.Background(), saved[0].ID, storage.VaultCash)
	require.NoError(t, err)

	assert.True(t, inst.Received)
	require.NotNil(t, inst.ReceivedAt)
	require.NotNil(t, inst.TransactionID)

	tx, err := repo.GetTransaction(context.Background(), *inst.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, storage.DirectionIn, tx.Direction)
	assert.Equal(t, storage.VaultCash, tx.VaultID)
	assert.True(t, tx.Amount.Equal(amount("100.00")))
	require.NotNil(t, tx.InstallmentID)
	assert.Equal(t, inst.ID, *tx.InstallmentID)

	assert.True(t, summary.TotalEntries.Equal(amount("100.00")))
}

func TestReceivables_MarkReceived_DefaultsToBank(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newReceivables(repo)

	saved, err := svc.CreateSchedule(context.Background(), ScheduleInput{
		ClientName:   "ACME",
		Total:        amount("100.00"),
		Count:        1,
		FirstDueDate: day(10),
		Periodicity:  installment.Monthly,
	})
	require.NoError(t, err)

	inst, _, err := svc.MarkReceived(context.Background(), saved[0].ID, "")
	require.NoError(t, err)

	tx, err := repo.GetTransaction(context.Background(), *inst.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, storage.VaultBank, tx.VaultID)
}

func TestReceivables_MarkReceived_Rejections(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newReceivables(repo)

	saved, err := svc.CreateSchedule(context.Background(), ScheduleInput{
		ClientName:   "ACME",
		Total:        amount("100.00"),
		Count:        1,
		FirstDueDate: day(10),
		Periodicity:  installment.Monthly,
	})
	require.NoError(t, err)

	t.Run("unknown installment", func(t *testing.T) {
		_, _, err := svc.MarkReceived(context.Background(), 9999, storage.VaultBank)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("unknown vault", func(t *testing.T) {
		_, _, err := svc.MarkReceived(context.Background(), saved[0].ID, "SAFE")
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("double receive", func(t *testing.T) {
		_, _, err := svc.MarkReceived(context.Background(), saved[0].ID, storage.VaultBank)
		require.NoError(t, err)

		_, _, err = svc.MarkReceived(context.Background(), saved[0].ID, storage.VaultBank)
		assert.True(t, errors.Is(err, ErrConflict))
	})
}
