// Package installment splits a total amount into a due-date schedule.
//
// Each of the first count-1 installments is the total divided by count,
// truncated to two decimals; the final installment absorbs the rounding
// remainder so the schedule always sums to the total exactly.
package installment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Periodicity is the spacing between due dates.
type Periodicity string

const (
	Monthly  Periodicity = "monthly"
	Biweekly Periodicity = "biweekly"
	Weekly   Periodicity = "weekly"
)

// Config drives a single schedule generation.
type Config struct {
	Total        decimal.Decimal
	Count        int
	FirstDueDate time.Time
	Periodicity  Periodicity

	// AdjustWeekends pushes Saturday/Sunday due dates forward to the next
	// weekday. Holidays are deliberately not considered here; holiday
	// awareness belongs to the calendar package.
	AdjustWeekends bool

	// EndOfMonth forces every monthly due date to the last day of its month.
	EndOfMonth bool
}

// Installment is one scheduled portion of the total.
type Installment struct {
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

var errNonPositiveTotal = errors.New("total must be positive")

// Generate produces the installment schedule for cfg.
func Generate(cfg Config) ([]Installment, error) {
	if cfg.Count < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", cfg.Count)
	}
	if !cfg.Total.IsPositive() {
		return nil, errNonPositiveTotal
	}
	if cfg.FirstDueDate.IsZero() {
		return nil, errors.New("first due date is required")
	}
	switch cfg.Periodicity {
	case Monthly, Biweekly, Weekly:
	default:
		return nil, fmt.Errorf("unknown periodicity %q", cfg.Periodicity)
	}

	// Two-decimal truncation, never rounding up: the tail absorbs the rest.
	base := cfg.Total.Div(decimal.NewFromInt(int64(cfg.Count))).RoundDown(2)

	installments := make([]Installment, 0, cfg.Count)
	accumulated := decimal.Zero
	for i := 0; i < cfg.Count; i++ {
		amount := base
		if i == cfg.Count-1 {
			amount = cfg.Total.Sub(accumulated)
		}
		accumulated = accumulated.Add(amount)

		due := dueDate(cfg, i)
		if cfg.AdjustWeekends {
			due = pushPastWeekend(due)
		}

		installments = append(installments, Installment{
			Number:  i + 1,
			Amount:  amount,
			DueDate: due,
		})
	}
	return installments, nil
}

func dueDate(cfg Config, i int) time.Time {
	first := cfg.FirstDueDate
	switch cfg.Periodicity {
	case Weekly:
		return first.AddDate(0, 0, 7*i)
	case Biweekly:
		return first.AddDate(0, 0, 14*i)
	}

	// Monthly: keep the first date's day-of-month, clamped to the target
	// month's last day when it does not exist there.
	year, month, day := first.Date()
	targetMonth := time.Month(int(month) + i)
	last := lastDayOfMonth(year, targetMonth)
	if cfg.EndOfMonth || day > last {
		day = last
	}
	return time.Date(year, targetMonth, day, 0, 0, 0, 0, first.Location())
}

// lastDayOfMonth handles month values beyond December; time.Date normalizes.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func pushPastWeekend(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}
