// Package calendar decides whether dates are business days and shifts dates
// onto them. It implements the payroll date-resolution policy: Saturdays
// always shift backward, Sundays shift forward for salary and advance
// payments but backward for transport vouchers, and weekday holidays shift
// backward. The Sunday asymmetry is a deliberate business rule.
//
// All comparisons are day-granular and calendar-local; time components and
// zones are ignored.
package calendar

import (
	"fmt"
	"time"
)

// ShiftDirection selects which way ShiftToBusinessDay walks.
type ShiftDirection string

const (
	Backward ShiftDirection = "backward"
	Forward  ShiftDirection = "forward"
)

// PaymentKind selects the payroll shifting policy for a nominal date.
type PaymentKind string

const (
	KindSalary    PaymentKind = "salary"
	KindAdvance   PaymentKind = "advance"
	KindTransport PaymentKind = "transport"
	KindGeneral   PaymentKind = "general"
)

// maxShiftIterations bounds the day-by-day walk so a misconfigured holiday
// set spanning a whole week cannot loop forever.
const maxShiftIterations = 10

const dayKeyLayout = "2006-01-02"

// HolidaySet holds registered holidays for day-granularity lookups.
// Recurring holidays match their month and day in every year.
type HolidaySet struct {
	exact     map[string]struct{}
	recurring map[string]struct{}
}

// NewHolidaySet returns an empty holiday set.
func NewHolidaySet() *HolidaySet {
	return &HolidaySet{
		exact:     make(map[string]struct{}),
		recurring: make(map[string]struct{}),
	}
}

// Add registers a holiday date.
func (s *HolidaySet) Add(date time.Time, recurring bool) {
	if recurring {
		s.recurring[date.Format("01-02")] = struct{}{}
		return
	}
	s.exact[date.Format(dayKeyLayout)] = struct{}{}
}

// Contains reports whether the date is a registered holiday.
func (s *HolidaySet) Contains(date time.Time) bool {
	if s == nil {
		return false
	}
	if _, ok := s.exact[date.Format(dayKeyLayout)]; ok {
		return true
	}
	_, ok := s.recurring[date.Format("01-02")]
	return ok
}

// IsBusinessDay reports whether date is a weekday that is not a holiday.
func IsBusinessDay(date time.Time, holidays *HolidaySet) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays.Contains(date)
}

// ShiftToBusinessDay returns date unchanged when it already is a business
// day; otherwise it walks one day at a time in the given direction until it
// finds one, giving up after maxShiftIterations steps.
func ShiftToBusinessDay(date time.Time, dir ShiftDirection, holidays *HolidaySet) (time.Time, error) {
	step := 1
	if dir == Backward {
		step = -1
	}

	current := date
	for i := 0; i <= maxShiftIterations; i++ {
		if IsBusinessDay(current, holidays) {
			return current, nil
		}
		current = current.AddDate(0, 0, step)
	}
	return time.Time{}, fmt.Errorf("no business day within %d days of %s going %s",
		maxShiftIterations, date.Format(dayKeyLayout), dir)
}

// ResolvePayrollDate applies the payroll shifting policy to a nominal payment
// date: Saturday shifts backward, Sunday shifts forward except for transport
// vouchers, and a weekday holiday shifts backward.
func ResolvePayrollDate(nominal time.Time, kind PaymentKind, holidays *HolidaySet) (time.Time, error) {
	var dir ShiftDirection
	switch nominal.Weekday() {
	case time.Saturday:
		dir = Backward
	case time.Sunday:
		if kind == KindTransport {
			dir = Backward
		} else {
			dir = Forward
		}
	default:
		if !holidays.Contains(nominal) {
			return nominal, nil
		}
		dir = Backward
	}
	return ShiftToBusinessDay(nominal, dir, holidays)
}
