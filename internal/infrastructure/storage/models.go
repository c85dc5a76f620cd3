package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a transaction relative to its vault.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Vault identifiers. The two vaults are fixed singletons seeded by the
// initial migration; user-facing flows never write their balances directly.
const (
	VaultBank = "BANK"
	VaultCash = "CASH"
)

// PaymentKind selects the business-day shifting policy for payroll dates.
type PaymentKind string

const (
	PaymentKindSalary    PaymentKind = "salary"
	PaymentKindAdvance   PaymentKind = "advance"
	PaymentKindTransport PaymentKind = "transport"
	PaymentKindGeneral   PaymentKind = "general"
)

// Vault is one of the two cash pools (bank account, physical cash box).
type Vault struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is an internal financial movement. Rows are never hard-deleted;
// DeletedAt marks them inactive while preserving the audit trail.
type Transaction struct {
	ID            string          `json:"id"`
	Direction     Direction       `json:"direction"`
	VaultID       string          `json:"vault_id"`
	Amount        decimal.Decimal `json:"amount"` // always positive; Direction carries the sign
	Date          time.Time       `json:"date"`   // effective date, post business-day adjustment
	OriginalDate  time.Time       `json:"original_date"`
	Description   string          `json:"description"`
	Category      string          `json:"category,omitempty"`
	PaymentKind   PaymentKind     `json:"payment_kind,omitempty"`
	Matched       bool            `json:"matched"`
	MatchedLineID *string         `json:"matched_line_id,omitempty"`
	InstallmentID *int64          `json:"installment_id,omitempty"` // set when created by the mark-received flow
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Deleted reports whether the transaction is soft-deleted.
func (t *Transaction) Deleted() bool { return t.DeletedAt != nil }

// StatementLine is one row imported from an external bank statement.
// Immutable except for match state and soft-delete.
type StatementLine struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"` // signed: negative means money leaving the account
	Date        time.Time        `json:"date"`
	Balance     *decimal.Decimal `json:"balance,omitempty"` // running balance, informational
	SourceFile  string           `json:"source_file"`
	ContentHash string           `json:"content_hash"`
	Matched     bool             `json:"matched"`
	MatchedTxID *string          `json:"matched_tx_id,omitempty"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Deleted reports whether the statement line is soft-deleted.
func (l *StatementLine) Deleted() bool { return l.DeletedAt != nil }

// Holiday is a registered non-business day. Owned by the holiday registry;
// the calendar only reads it.
type Holiday struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Label     string    `json:"label"`
	Recurring bool      `json:"recurring"` // repeats every year on the same month/day
}

// Installment is one scheduled portion of a receivable, persisted from a
// generated schedule. Marking it received creates the linked IN transaction.
type Installment struct {
	ID            int64           `json:"id"`
	ScheduleID    string          `json:"schedule_id"`
	ClientName    string          `json:"client_name"`
	Number        int             `json:"number"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	Received      bool            `json:"received"`
	ReceivedAt    *time.Time      `json:"received_at,omitempty"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
