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

func newTransactions(repo *storage.MockRepository) *Transactions {
	return NewTransactions(repo, NewLedger(repo, testLogger()), testLogger())
}

func TestTransactions_Create(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	tx, summary, err := svc.Create(context.Background(), CreateTransactionInput{
		Direction:   storage.DirectionOut,
		VaultID:     storage.VaultCash,
		Amount:      amount("750.00"),
		Date:        day(11), // Wednesday
		Description: "Cement delivery",
		Category:    "materials",
	})
	require.NoError(t, err)

	assert.Equal(t, day(11), tx.Date)
	assert.Equal(t, day(11), tx.OriginalDate)
	assert.Equal(t, storage.PaymentKindGeneral, tx.PaymentKind)
	require.NotNil(t, summary)
	assert.True(t, summary.TotalExits.Equal(amount("750.00")))

	stored, err := repo.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Cement delivery", stored.Description)
}

func TestTransactions_Create_AdjustsPayrollDate(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	// March 14 2026 is a Saturday; salary shifts backward to Friday the 13th.
	tx, _, err := svc.Create(context.Background(), CreateTransactionInput{
		Direction:   storage.DirectionOut,
		VaultID:     storage.VaultBank,
		Amount:      amount("3200.00"),
		Date:        day(14),
		Description: "Crew salary",
		PaymentKind: storage.PaymentKindSalary,
	})
	require.NoError(t, err)

	assert.Equal(t, day(13), tx.Date)
	assert.Equal(t, day(14), tx.OriginalDate)
}

func TestTransactions_Create_SundayTransportShiftsBackward(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	// March 15 2026 is a Sunday; transport vouchers shift backward to Friday.
	tx, _, err := svc.Create(context.Background(), CreateTransactionInput{
		Direction:   storage.DirectionOut,
		VaultID:     storage.VaultBank,
		Amount:      amount("120.00"),
		Date:        day(15),
		Description: "Transport vouchers",
		PaymentKind: storage.PaymentKindTransport,
	})
	require.NoError(t, err)
	assert.Equal(t, day(13), tx.Date)
}

func TestTransactions_Create_HolidayFromRegistry(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.InsertHoliday(context.Background(), &storage.Holiday{
		Date:  day(17), // Tuesday
		Label: "Municipal holiday",
	}))
	svc := newTransactions(repo)

	tx, _, err := svc.Create(context.Background(), CreateTransactionInput{
		Direction: storage.DirectionOut,
		VaultID:   storage.VaultBank,
		Amount:    amount("100.00"),
		Date:      day(17),
	})
	require.NoError(t, err)
	assert.Equal(t, day(16), tx.Date)
}

func TestTransactions_Create_Validation(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	base := CreateTransactionInput{
		Direction: storage.DirectionIn,
		VaultID:   storage.VaultBank,
		Amount:    amount("10.00"),
		Date:      day(11),
	}

	t.Run("bad direction", func(t *testing.T) {
		input := base
		input.Direction = "SIDEWAYS"
		_, _, err := svc.Create(context.Background(), input)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("unknown vault", func(t *testing.T) {
		input := base
		input.VaultID = "SAFE"
		_, _, err := svc.Create(context.Background(), input)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("non-positive amount", func(t *testing.T) {
		input := base
		input.Amount = amount("-5")
		_, _, err := svc.Create(context.Background(), input)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("zero date", func(t *testing.T) {
		input := base
		input.Date = time.Time{}
		_, _, err := svc.Create(context.Background(), input)
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestTransactions_SetDate(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	created, _, err := svc.Create(context.Background(), CreateTransactionInput{
		Direction:   storage.DirectionOut,
		VaultID:     storage.VaultBank,
		Amount:      amount("3200.00"),
		Date:        day(11),
		PaymentKind: storage.PaymentKindSalary,
	})
	require.NoError(t, err)

	// Move to Sunday March 15; salary shifts forward to Monday the 16th.
	updated, err := svc.SetDate(context.Background(), created.ID, day(15))
	require.NoError(t, err)
	assert.Equal(t, day(16), updated.Date)
	assert.Equal(t, day(15), updated.OriginalDate)

	stored, err := repo.GetTransaction(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, day(16), stored.Date)
	assert.Equal(t, day(15), stored.OriginalDate)
}

func TestTransactions_SetDate_NotFound(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	_, err := svc.SetDate(context.Background(), "ghost", day(10))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTransactions_SetDate_DeletedTransaction(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	seedTransaction(repo, "tx-1", storage.DirectionIn, "10.00", 10)
	require.NoError(t, repo.SoftDeleteTransaction(context.Background(), "tx-1", time.Now()))

	_, err := svc.SetDate(context.Background(), "tx-1", day(12))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTransactions_ResolvePayrollDate(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTransactions(repo)

	// Saturday backward regardless of kind.
	resolved, err := svc.ResolvePayrollDate(context.Background(), day(14), storage.PaymentKindGeneral)
	require.NoError(t, err)
	assert.Equal(t, day(13), resolved)

	// Sunday forward for salary.
	resolved, err = svc.ResolvePayrollDate(context.Background(), day(15), storage.PaymentKindSalary)
	require.NoError(t, err)
	assert.Equal(t, day(16), resolved)
}
