package ledger

import (
	"math"
	"sort"
	"time"

	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// EventLine is an event flattened for display with its countdown.
type EventLine struct {
	models.EventRow
	DaysRemaining *int `json:"days_remaining"`
}

// CategoryTotal aggregates expenses of one category.
type CategoryTotal struct {
	Category   models.Category `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// Summary is everything the dashboard derives from a State.
type Summary struct {
	Salary           decimal.Decimal  `json:"salary"`
	SalarySet        bool             `json:"salary_set"`
	Events           []EventLine      `json:"events"`
	Expenses         []models.Expense `json:"expenses"`
	Categories       []CategoryTotal  `json:"categories"`
	TotalExpenses    decimal.Decimal  `json:"total_expenses"`
	TotalBills       decimal.Decimal  `json:"total_bills"`
	TotalInvestments decimal.Decimal  `json:"total_investments"`
	TotalSpent       decimal.Decimal  `json:"total_spent"`
	RemainingSalary  decimal.Decimal  `json:"remaining_salary"`
	OverBudget       bool             `json:"over_budget"`
}

// DaysRemaining returns the whole days from now until the event date, rounded
// down, or nil for undated events. Past dates give negative values.
func DaysRemaining(e models.Event, now time.Time) *int {
	date, ok := e.Date()
	if !ok {
		return nil
	}
	days := int(math.Floor(wallClock(date).Sub(wallClock(now)).Hours() / 24))
	return &days
}

// wallClock reads t's calendar fields as UTC so daylight saving shifts do
// not change the length of a day.
func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC)
}

// Summarize recomputes the summary from scratch. It does not modify s.
func Summarize(s *State, now time.Time) Summary {
	salary, salarySet := s.Salary()
	sum := Summary{
		Salary:           salary,
		SalarySet:        salarySet,
		Events:           make([]EventLine, 0, len(s.events)),
		Expenses:         s.Expenses(),
		TotalExpenses:    decimal.Zero,
		TotalBills:       decimal.Zero,
		TotalInvestments: decimal.Zero,
	}

	for _, e := range s.events {
		row := e.Row()
		sum.Events = append(sum.Events, EventLine{EventRow: row, DaysRemaining: DaysRemaining(e, now)})
		sum.TotalBills = sum.TotalBills.Add(row.AmountDue)
		sum.TotalInvestments = sum.TotalInvestments.Add(row.InvestmentAmount)
	}
	for _, x := range s.expenses {
		sum.TotalExpenses = sum.TotalExpenses.Add(x.Amount)
	}

	sum.TotalSpent = sum.TotalExpenses.Add(sum.TotalBills).Add(sum.TotalInvestments)
	sum.RemainingSalary = salary.Sub(sum.TotalSpent)
	sum.OverBudget = sum.TotalSpent.GreaterThan(salary)
	sum.Categories = categoryTotals(s.expenses, sum.TotalExpenses)
	return sum
}

func categoryTotals(expenses []models.Expense, total decimal.Decimal) []CategoryTotal {
	byCategory := make(map[models.Category]*CategoryTotal)
	for _, x := range expenses {
		ct, ok := byCategory[x.Category]
		if !ok {
			ct = &CategoryTotal{Category: x.Category, Total: decimal.Zero}
			byCategory[x.Category] = ct
		}
		ct.Total = ct.Total.Add(x.Amount)
		ct.Count++
	}

	items := make([]CategoryTotal, 0, len(byCategory))
	for _, c := range models.Categories {
		ct, ok := byCategory[c]
		if !ok {
			continue
		}
		if total.IsPositive() {
			ct.Percentage = ct.Total.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		items = append(items, *ct)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Total.GreaterThan(items[j].Total) })
	return items
}
