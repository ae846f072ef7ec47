// Package ledger holds one session's salary, events and expenses and derives
// the dashboard summary from them.
package ledger

import (
	"finance-tracker/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrSalaryAlreadySet = errors.New("salary has already been submitted")
	ErrNilEvent         = errors.New("event is nil")
)

// State is the append-only ledger of a single session. It is not safe for
// concurrent use; each session owns its own State.
type State struct {
	salary    decimal.Decimal
	salarySet bool
	events    []models.Event
	expenses  []models.Expense
}

// New returns an empty ledger with no salary set.
func New() *State {
	return &State{salary: decimal.Zero}
}

// Salary returns the salary and whether it has been set.
func (s *State) Salary() (decimal.Decimal, bool) {
	return s.salary, s.salarySet
}

// SetSalary records the monthly salary once. A zero salary is accepted but
// leaves the ledger in the unset state, so the salary prompt stays visible.
func (s *State) SetSalary(amount decimal.Decimal) error {
	if s.salarySet {
		return ErrSalaryAlreadySet
	}
	if err := models.ValidateAmount(amount); err != nil {
		return err
	}
	s.salary = amount
	s.salarySet = amount.IsPositive()
	return nil
}

// AddEvent appends an event.
func (s *State) AddEvent(e models.Event) error {
	if e == nil {
		return ErrNilEvent
	}
	s.events = append(s.events, e)
	return nil
}

// AddExpense appends an expense.
func (s *State) AddExpense(e models.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.expenses = append(s.expenses, e)
	return nil
}

// Events returns the events in insertion order.
func (s *State) Events() []models.Event {
	return append([]models.Event(nil), s.events...)
}

// Expenses returns the expenses in insertion order.
func (s *State) Expenses() []models.Expense {
	return append([]models.Expense(nil), s.expenses...)
}
