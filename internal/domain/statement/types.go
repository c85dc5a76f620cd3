package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one normalized statement entry regardless of the source format.
type Row struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal  // signed: negative means money leaving the account
	Balance     *decimal.Decimal // running balance when the format carries one
}
