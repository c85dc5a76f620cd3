package service

import (
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedTransaction(repo *storage.MockRepository, id string, direction storage.Direction, amt string, d int) *storage.Transaction {
	tx := &storage.Transaction{
		ID:           id,
		Direction:    direction,
		VaultID:      storage.VaultBank,
		Amount:       amount(amt),
		Date:         day(d),
		OriginalDate: day(d),
		Description:  "seed " + id,
	}
	_ = repo.InsertTransaction(nil, tx)
	return tx
}

func seedLine(repo *storage.MockRepository, id string, amt string, d int, description string) *storage.StatementLine {
	line := &storage.StatementLine{
		ID:          id,
		Description: description,
		Amount:      amount(amt),
		Date:        day(d),
		SourceFile:  "seed.csv",
	}
	_ = repo.InsertStatementLine(nil, line)
	return line
}
