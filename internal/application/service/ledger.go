package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// Ledger recomputes vault balances from the full transaction history.
//
// There is no incremental update path: every mutating operation triggers a
// full recompute, trading recomputation cost for correctness under
// interleaved edits. The recompute is idempotent.
type Ledger struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewLedger creates the balance recalculation engine.
func NewLedger(repo storage.Repository, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{repo: repo, logger: logger}
}

// VaultTotals holds the recomputed figures for one vault.
type VaultTotals struct {
	VaultID string          `json:"vault_id"`
	Name    string          `json:"name"`
	Entries decimal.Decimal `json:"entries"`
	Exits   decimal.Decimal `json:"exits"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceSummary is the result of one recalculation pass.
type BalanceSummary struct {
	Vaults        []VaultTotals   `json:"vaults"`
	TotalEntries  decimal.Decimal `json:"total_entries"`
	TotalExits    decimal.Decimal `json:"total_exits"`
	Profit        decimal.Decimal `json:"profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	PeriodStart   *time.Time      `json:"period_start,omitempty"`
	PeriodEnd     *time.Time      `json:"period_end,omitempty"`
}

// RecalculateAll reads every non-deleted transaction, optionally filtered to
// a date window, and computes entries, exits, and balance per vault.
//
// Vault balances are persisted only on unwindowed runs: the stored balance
// invariant is defined over the full history, so a period-filtered summary is
// reporting output, never a balance write.
func (l *Ledger) RecalculateAll(ctx context.Context, periodStart, periodEnd *time.Time) (*BalanceSummary, error) {
	vaults, err := l.repo.ListVaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}

	transactions, err := l.repo.ListTransactions(ctx, storage.TransactionFilters{
		Start: periodStart,
		End:   periodEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	totals := make(map[string]*VaultTotals, len(vaults))
	for _, v := range vaults {
		totals[v.ID] = &VaultTotals{
			VaultID: v.ID,
			Name:    v.Name,
			Entries: decimal.Zero,
			Exits:   decimal.Zero,
		}
	}

	for _, tx := range transactions {
		t, ok := totals[tx.VaultID]
		if !ok {
			// A transaction routed to an unknown vault would silently skew
			// aggregates; fail loudly instead.
			return nil, fmt.Errorf("transaction %s references unknown vault %s", tx.ID, tx.VaultID)
		}
		switch tx.Direction {
		case storage.DirectionIn:
			t.Entries = t.Entries.Add(tx.Amount)
		case storage.DirectionOut:
			t.Exits = t.Exits.Add(tx.Amount)
		}
	}

	summary := &BalanceSummary{
		TotalEntries:  decimal.Zero,
		TotalExits:    decimal.Zero,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		MarginPercent: decimal.Zero,
	}

	windowed := periodStart != nil || periodEnd != nil
	for _, v := range vaults {
		t := totals[v.ID]
		t.Balance = t.Entries.Sub(t.Exits)
		summary.TotalEntries = summary.TotalEntries.Add(t.Entries)
		summary.TotalExits = summary.TotalExits.Add(t.Exits)
		summary.Vaults = append(summary.Vaults, *t)

		if !windowed {
			if err := l.repo.UpdateVaultBalance(ctx, v.ID, t.Balance); err != nil {
				return nil, fmt.Errorf("failed to write balance for vault %s: %w", v.ID, err)
			}
		}
	}

	summary.Profit = summary.TotalEntries.Sub(summary.TotalExits)
	if summary.TotalEntries.IsPositive() {
		summary.MarginPercent = summary.Profit.
			Div(summary.TotalEntries).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	l.logger.Debug("recalculated balances",
		"transactions", len(transactions),
		"profit", summary.Profit.String(),
		"windowed", windowed)

	return summary, nil
}
