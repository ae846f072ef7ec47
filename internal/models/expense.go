package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Category is the fixed set of expense categories.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategoryMiscellaneous Category = "Miscellaneous"
)

// Categories lists the expense categories in display order.
var Categories = []Category{CategoryFood, CategoryTransport, CategoryEntertainment, CategoryMiscellaneous}

var ErrUnknownCategory = errors.New("unknown expense category")

// ParseCategory maps a form value onto a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// Expense represents a tracked spend recorded independently of events.
type Expense struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// NewExpense builds a validated expense.
func NewExpense(category Category, amount decimal.Decimal) (Expense, error) {
	e := Expense{Category: category, Amount: amount}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (e Expense) Validate() error {
	if _, err := ParseCategory(string(e.Category)); err != nil {
		return err
	}
	return ValidateAmount(e.Amount)
}

// Session represents a browser session owning one ledger.
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
