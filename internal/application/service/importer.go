package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/obraflow/ledger-backend/internal/domain/statement"
	"github.com/obraflow/ledger-backend/internal/infrastructure/config"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// ImportResult reports one import batch.
type ImportResult struct {
	Inserted    int `json:"inserted"`
	Skipped     int `json:"skipped"`
	AutoMatched int `json:"auto_matched"`
}

// Importer parses bank-statement files, deduplicates their rows against
// previously imported lines, and runs the post-import auto-match pass.
type Importer struct {
	repo       storage.Repository
	reconciler *Reconciler
	ledger     *Ledger
	cfg        config.ImportConfig
	logger     *slog.Logger
}

// NewImporter creates the statement importer.
func NewImporter(repo storage.Repository, reconciler *Reconciler, ledger *Ledger, cfg config.ImportConfig, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{repo: repo, reconciler: reconciler, ledger: ledger, cfg: cfg, logger: logger}
}

// ImportStatement parses the file, inserts rows that pass the ±N-day dedup
// window, then auto-matches by exact amount. A row whose insertion fails is
// counted as skipped; the batch continues. An unparseable but supported file
// reports success with zero rows.
func (i *Importer) ImportStatement(ctx context.Context, data []byte, filename string) (*ImportResult, error) {
	if int64(len(data)) > i.cfg.MaxFileBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, i.cfg.MaxFileBytes)
	}

	rows, err := statement.Parse(data, filename)
	if err != nil {
		if errors.Is(err, statement.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		// Unparseable content is not an error condition: report zero rows.
		i.logger.Warn("statement file could not be parsed", "file", filename, "error", err)
		return &ImportResult{}, nil
	}
	if len(rows) > i.cfg.MaxRows {
		return nil, fmt.Errorf("%w: file has %d rows, limit is %d", ErrValidation, len(rows), i.cfg.MaxRows)
	}

	result := &ImportResult{}
	for _, row := range rows {
		existing, err := i.repo.FindDuplicateLine(ctx, row.Amount, row.Description, row.Date, i.cfg.DedupWindowDays)
		if err != nil {
			return nil, fmt.Errorf("dedup lookup failed: %w", err)
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		line := &storage.StatementLine{
			ID:          uuid.NewString(),
			Description: strings.TrimSpace(row.Description),
			Amount:      row.Amount,
			Date:        row.Date,
			Balance:     row.Balance,
			SourceFile:  filename,
			ContentHash: contentHash(row),
		}
		if err := i.repo.InsertStatementLine(ctx, line); err != nil {
			i.logger.Warn("failed to insert statement line, skipping",
				"file", filename, "date", row.Date, "error", err)
			result.Skipped++
			continue
		}
		result.Inserted++
	}

	matched, err := i.autoMatch(ctx)
	if err != nil {
		return nil, err
	}
	result.AutoMatched = matched

	// Imports by themselves do not move balances, but the batch may have
	// linked transactions; recalculate once for the whole batch.
	if _, err := i.ledger.RecalculateAll(ctx, nil, nil); err != nil {
		return nil, fmt.Errorf("import succeeded but recalculation failed: %w", err)
	}

	i.logger.Info("statement imported", "file", filename,
		"inserted", result.Inserted, "skipped", result.Skipped, "auto_matched", result.AutoMatched)
	return result, nil
}

// autoMatch links every unmatched statement line to an unmatched transaction
// of identical amount, but only when exactly one such transaction exists.
// Amount-only matching is a best-effort convenience: when several
// transactions share the amount the line is left for manual reconciliation.
func (i *Importer) autoMatch(ctx context.Context) (int, error) {
	unmatched := false
	lines, err := i.repo.ListStatementLines(ctx, storage.StatementFilters{Matched: &unmatched})
	if err != nil {
		return 0, fmt.Errorf("failed to list unmatched lines: %w", err)
	}

	matched := 0
	for _, line := range lines {
		amount := line.Amount.Abs()
		wantDirection := storage.DirectionIn
		if line.Amount.IsNegative() {
			wantDirection = storage.DirectionOut
		}

		candidates, err := i.repo.ListTransactions(ctx, storage.TransactionFilters{
			Matched: &unmatched,
			Amount:  &amount,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to list candidate transactions: %w", err)
		}

		var target *storage.Transaction
		ambiguous := false
		for idx := range candidates {
			if candidates[idx].Direction != wantDirection {
				continue
			}
			if target != nil {
				ambiguous = true
				break
			}
			target = &candidates[idx]
		}
		if target == nil || ambiguous {
			continue
		}

		if err := i.reconciler.link(ctx, line.ID, target.ID); err != nil {
			return 0, err
		}
		matched++
	}
	return matched, nil
}

func contentHash(row statement.Row) string {
	payload := fmt.Sprintf("%s|%s|%s",
		row.Date.Format("2006-01-02"),
		strings.TrimSpace(row.Description),
		row.Amount.String())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
