package storage

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	vaults       map[string]*Vault
	transactions map[string]*Transaction
	lines        map[string]*StatementLine
	holidays     map[int64]*Holiday
	installments map[int64]*Installment
	nextHoliday  int64
	nextInstall  int64

	// Error injection for testing error paths
	UpdateVaultBalanceErr     error
	InsertTransactionErr      error
	InsertStatementLineErr    error
	UpdateStatementMatchErr   error
	UpdateTransactionMatchErr error
	ListTransactionsErr       error

	// Hooks for test assertions
	VaultBalanceWrites int
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository seeded with both vaults.
func NewMockRepository() *MockRepository {
	m := &MockRepository{
		vaults:       make(map[string]*Vault),
		transactions: make(map[string]*Transaction),
		lines:        make(map[string]*StatementLine),
		holidays:     make(map[int64]*Holiday),
		installments: make(map[int64]*Installment),
		nextHoliday:  1,
		nextInstall:  1,
	}
	m.vaults[VaultBank] = &Vault{ID: VaultBank, Name: "Bank Account", Balance: decimal.Zero}
	m.vaults[VaultCash] = &Vault{ID: VaultCash, Name: "Cash Box", Balance: decimal.Zero}
	return m
}

// Close does nothing for mock
func (m *MockRepository) Close() error { return nil }

func (m *MockRepository) ListVaults(_ context.Context) ([]Vault, error) {
	out := make([]Vault, 0, len(m.vaults))
	for _, v := range m.vaults {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRepository) UpdateVaultBalance(_ context.Context, id string, balance decimal.Decimal) error {
	if m.UpdateVaultBalanceErr != nil {
		return m.UpdateVaultBalanceErr
	}
	v, ok := m.vaults[id]
	if !ok {
		return sql.ErrNoRows
	}
	v.Balance = balance
	v.UpdatedAt = time.Now().UTC()
	m.VaultBalanceWrites++
	return nil
}

func (m *MockRepository) InsertTransaction(_ context.Context, tx *Transaction) error {
	if m.InsertTransactionErr != nil {
		return m.InsertTransactionErr
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	copied := *tx
	m.transactions[tx.ID] = &copied
	return nil
}

func (m *MockRepository) GetTransaction(_ context.Context, id string) (*Transaction, error) {
	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (m *MockRepository) ListTransactions(_ context.Context, filters TransactionFilters) ([]Transaction, error) {
	if m.ListTransactionsErr != nil {
		return nil, m.ListTransactionsErr
	}
	var out []Transaction
	for _, tx := range m.transactions {
		if !filters.IncludeDeleted && tx.Deleted() {
			continue
		}
		if filters.VaultID != "" && tx.VaultID != filters.VaultID {
			continue
		}
		if filters.Matched != nil && tx.Matched != *filters.Matched {
			continue
		}
		if filters.Amount != nil && !tx.Amount.Equal(*filters.Amount) {
			continue
		}
		if filters.Start != nil && tx.Date.Before(*filters.Start) {
			continue
		}
		if filters.End != nil && tx.Date.After(*filters.End) {
			continue
		}
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if filters.Limit > 0 {
		out = paginate(out, filters.Limit, filters.Offset)
	}
	return out, nil
}

func (m *MockRepository) UpdateTransactionMatch(_ context.Context, id string, matched bool, lineID *string) error {
	if m.UpdateTransactionMatchErr != nil {
		return m.UpdateTransactionMatchErr
	}
	tx, ok := m.transactions[id]
	if !ok {
		return sql.ErrNoRows
	}
	tx.Matched = matched
	tx.MatchedLineID = lineID
	return nil
}

func (m *MockRepository) UpdateTransactionDates(_ context.Context, id string, original, effective time.Time) error {
	tx, ok := m.transactions[id]
	if !ok {
		return sql.ErrNoRows
	}
	tx.OriginalDate = original
	tx.Date = effective
	return nil
}

func (m *MockRepository) SoftDeleteTransaction(_ context.Context, id string, at time.Time) error {
	tx, ok := m.transactions[id]
	if !ok || tx.Deleted() {
		return nil
	}
	deleted := at.UTC()
	tx.DeletedAt = &deleted
	return nil
}

func (m *MockRepository) InsertStatementLine(_ context.Context, line *StatementLine) error {
	if m.InsertStatementLineErr != nil {
		return m.InsertStatementLineErr
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now().UTC()
	}
	copied := *line
	m.lines[line.ID] = &copied
	return nil
}

func (m *MockRepository) GetStatementLine(_ context.Context, id string) (*StatementLine, error) {
	line, ok := m.lines[id]
	if !ok {
		return nil, nil
	}
	copied := *line
	return &copied, nil
}

func (m *MockRepository) ListStatementLines(_ context.Context, filters StatementFilters) ([]StatementLine, error) {
	var out []StatementLine
	for _, line := range m.lines {
		if !filters.IncludeDeleted && line.Deleted() {
			continue
		}
		if filters.Matched != nil && line.Matched != *filters.Matched {
			continue
		}
		if filters.SourceFile != "" && line.SourceFile != filters.SourceFile {
			continue
		}
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if filters.Limit > 0 {
		out = paginate(out, filters.Limit, filters.Offset)
	}
	return out, nil
}

func (m *MockRepository) FindDuplicateLine(_ context.Context, amount decimal.Decimal, description string, date time.Time, windowDays int) (*StatementLine, error) {
	want := strings.TrimSpace(description)
	start := date.AddDate(0, 0, -windowDays)
	end := date.AddDate(0, 0, windowDays)
	for _, line := range m.lines {
		if line.Deleted() {
			continue
		}
		if !line.Amount.Equal(amount) {
			continue
		}
		if strings.TrimSpace(line.Description) != want {
			continue
		}
		if line.Date.Before(start) || line.Date.After(end) {
			continue
		}
		copied := *line
		return &copied, nil
	}
	return nil, nil
}

func (m *MockRepository) UpdateStatementMatch(_ context.Context, id string, matched bool, txID *string) error {
	if m.UpdateStatementMatchErr != nil {
		return m.UpdateStatementMatchErr
	}
	line, ok := m.lines[id]
	if !ok {
		return sql.ErrNoRows
	}
	line.Matched = matched
	line.MatchedTxID = txID
	return nil
}

func (m *MockRepository) SoftDeleteStatementLine(_ context.Context, id string, at time.Time) error {
	line, ok := m.lines[id]
	if !ok || line.Deleted() {
		return nil
	}
	deleted := at.UTC()
	line.DeletedAt = &deleted
	return nil
}

func (m *MockRepository) ListHolidays(_ context.Context) ([]Holiday, error) {
	out := make([]Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MockRepository) InsertHoliday(_ context.Context, h *Holiday) error {
	h.ID = m.nextHoliday
	m.nextHoliday++
	copied := *h
	m.holidays[h.ID] = &copied
	return nil
}

func (m *MockRepository) DeleteHoliday(_ context.Context, id int64) error {
	if _, ok := m.holidays[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.holidays, id)
	return nil
}

func (m *MockRepository) InsertInstallments(_ context.Context, installments []Installment) ([]Installment, error) {
	out := make([]Installment, 0, len(installments))
	for _, inst := range installments {
		inst.ID = m.nextInstall
		m.nextInstall++
		if inst.CreatedAt.IsZero() {
			inst.CreatedAt = time.Now().UTC()
		}
		copied := inst
		m.installments[inst.ID] = &copied
		out = append(out, inst)
	}
	return out, nil
}

func (m *MockRepository) GetInstallment(_ context.Context, id int64) (*Installment, error) {
	inst, ok := m.installments[id]
	if !ok {
		return nil, nil
	}
	copied := *inst
	return &copied, nil
}

func (m *MockRepository) ListInstallments(_ context.Context, scheduleID string) ([]Installment, error) {
	var out []Installment
	for _, inst := range m.installments {
		if inst.ScheduleID == scheduleID {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MockRepository) UpdateInstallmentReceived(_ context.Context, id int64, received bool, at *time.Time, txID *string) error {
	inst, ok := m.installments[id]
	if !ok {
		return sql.ErrNoRows
	}
	inst.Received = received
	inst.ReceivedAt = at
	inst.TransactionID = txID
	return nil
}

func (m *MockRepository) GetInstallmentByTransaction(_ context.Context, txID string) (*Installment, error) {
	for _, inst := range m.installments {
		if inst.TransactionID != nil && *inst.TransactionID == txID {
			copied := *inst
			return &copied, nil
		}
	}
	return nil, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
