package handlers

import (
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const formDateLayout = "2006-01-02"

var errInvalidDate = errors.New("event date must be in YYYY-MM-DD format")

func parseSalaryForm(r *http.Request) (decimal.Decimal, error) {
	if err := r.ParseForm(); err != nil {
		return decimal.Zero, err
	}
	amount, err := models.ParseAmount(r.FormValue("salary"))
	return amount, errors.Wrap(err, "salary")
}

func parseExpenseForm(r *http.Request) (models.Expense, error) {
	if err := r.ParseForm(); err != nil {
		return models.Expense{}, err
	}
	category, err := models.ParseCategory(r.FormValue("category"))
	if err != nil {
		return models.Expense{}, err
	}
	amount, err := models.ParseAmount(r.FormValue("amount"))
	if err != nil {
		return models.Expense{}, errors.Wrap(err, "expense amount")
	}
	return models.NewExpense(category, amount)
}

// parseEventForm builds the event variant selected by the "type" field.
// Fields belonging to other variants are ignored.
func parseEventForm(r *http.Request, now time.Time) (models.Event, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	typ, err := models.ParseEventType(r.FormValue("type"))
	if err != nil {
		return nil, err
	}
	today := models.Midnight(now)

	switch typ {
	case models.TypeBillPayment:
		amount, err := amountField(r, "amount_due", "amount due")
		if err != nil {
			return nil, err
		}
		date, err := parseFormDate(r.FormValue("date"), now.Location())
		if err != nil {
			return nil, err
		}
		b, err := models.NewBillPayment(r.FormValue("bill"), amount, date, checked(r, "recurring"), r.FormValue("frequency"), today)
		if err != nil {
			return nil, err
		}
		return b, nil

	case models.TypeInvestment:
		amount, err := amountField(r, "investment_amount", "investment amount")
		if err != nil {
			return nil, err
		}
		date, err := parseFormDate(r.FormValue("date"), now.Location())
		if err != nil {
			return nil, err
		}
		i, err := models.NewInvestment(r.FormValue("investment"), amount, date, today)
		if err != nil {
			return nil, err
		}
		return i, nil

	case models.TypeSavingsGoal:
		target, err := amountField(r, "target_amount", "target amount")
		if err != nil {
			return nil, err
		}
		current, err := amountField(r, "current_savings", "current savings")
		if err != nil {
			return nil, err
		}
		g, err := models.NewSavingsGoal(r.FormValue("goal"), target, current)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, models.ErrUnknownEventType
}

func amountField(r *http.Request, key, label string) (decimal.Decimal, error) {
	amount, err := models.ParseAmount(r.FormValue(key))
	return amount, errors.Wrap(err, label)
}

// parseFormDate returns the zero time for an empty value so the model reports
// the missing date.
func parseFormDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(formDateLayout, s, loc)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

// checked reports whether a checkbox was ticked.
func checked(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "", "false", "off", "0":
		return false
	}
	return true
}
