package dto

import (
	"github.com/shopspring/decimal"
)

// Dates in request bodies use the 2006-01-02 layout.
const DateLayout = "2006-01-02"

// ReconcileRequest drives POST /api/reconcile.
type ReconcileRequest struct {
	StatementLineID string                 `json:"statement_line_id"`
	Action          string                 `json:"action"`
	TransactionID   string                 `json:"transaction_id,omitempty"`
	NewTransaction  *NewTransactionRequest `json:"new_transaction,omitempty"`
}

// NewTransactionRequest carries create-and-match fields. Amount and date
// default from the statement line when omitted.
type NewTransactionRequest struct {
	VaultID     string           `json:"vault_id,omitempty"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Date        string           `json:"date,omitempty"`
}

// CreateTransactionRequest drives POST /api/transactions.
type CreateTransactionRequest struct {
	Direction   string          `json:"direction"`
	VaultID     string          `json:"vault_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	PaymentKind string          `json:"payment_kind,omitempty"`
}

// SetDateRequest drives PUT /api/transactions/{id}/date.
type SetDateRequest struct {
	Date string `json:"date"`
}

// GenerateInstallmentsRequest drives POST /api/installments/generate.
type GenerateInstallmentsRequest struct {
	Total          decimal.Decimal `json:"total"`
	Count          int             `json:"count"`
	FirstDueDate   string          `json:"first_due_date"`
	Periodicity    string          `json:"periodicity"`
	AdjustWeekends bool            `json:"adjust_weekends,omitempty"`
	EndOfMonth     bool            `json:"end_of_month,omitempty"`
}

// CreateScheduleRequest drives POST /api/receivables.
type CreateScheduleRequest struct {
	ClientName string `json:"client_name"`
	GenerateInstallmentsRequest
}

// ReceiveInstallmentRequest drives POST /api/receivables/{id}/receive.
type ReceiveInstallmentRequest struct {
	VaultID string `json:"vault_id,omitempty"`
}

// CreateHolidayRequest drives POST /api/holidays.
type CreateHolidayRequest struct {
	Date      string `json:"date"`
	Label     string `json:"label,omitempty"`
	Recurring bool   `json:"recurring,omitempty"`
}

// ResolveDateRequest drives POST /api/payroll/resolve-date.
type ResolveDateRequest struct {
	Date        string `json:"date"`
	PaymentKind string `json:"payment_kind,omitempty"`
}
