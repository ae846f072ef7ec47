package models

import (
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// EventType selects which intake variant a submission belongs to.
type EventType string

const (
	TypeBillPayment     EventType = "Bill Payment"
	TypeInvestment      EventType = "Investment"
	TypeSavingsGoal     EventType = "Savings Goal"
	TypeExpenseTracking EventType = "Expense Tracking"
)

// EventTypes lists the selector options in display order.
var EventTypes = []EventType{TypeBillPayment, TypeInvestment, TypeSavingsGoal, TypeExpenseTracking}

// Frequency is the repetition of a recurring bill.
type Frequency string

const (
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Yearly  Frequency = "Yearly"
)

var Frequencies = []Frequency{Weekly, Monthly, Yearly}

var (
	Bills       = []string{"Current Bill", "Water Bill", "Internet Bill"}
	Investments = []string{"Stocks", "Mutual Funds", "Fixed Deposit"}
)

var (
	ErrUnknownEventType      = errors.New("unknown event type")
	ErrUnknownBill           = errors.New("unknown bill")
	ErrUnknownInvestment     = errors.New("unknown investment")
	ErrEmptyGoalName         = errors.New("savings goal name is required")
	ErrDateRequired          = errors.New("event date is required")
	ErrDateInPast            = errors.New("event date cannot be earlier than today")
	ErrFrequencyRequired     = errors.New("frequency is required for recurring bills")
	ErrUnknownFrequency      = errors.New("unknown frequency")
	ErrFrequencyNotRecurring = errors.New("frequency is only allowed for recurring bills")
)

// ParseEventType maps a form value onto an EventType.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrUnknownEventType
}

// ParseFrequency maps a form value onto a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	if s == "" {
		return "", ErrFrequencyRequired
	}
	for _, f := range Frequencies {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrUnknownFrequency
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	return now.With(t).BeginningOfDay()
}

// Event is one recorded financial occurrence. Implementations are immutable
// once appended to a ledger.
type Event interface {
	Name() string
	Type() EventType
	// Date reports the event date; ok is false for undated events.
	Date() (date time.Time, ok bool)
	Validate(today time.Time) error
	// Row flattens the event into the wide display/storage shape.
	Row() EventRow
}

// BillPayment is a bill due on a date, optionally recurring.
type BillPayment struct {
	Bill      string
	AmountDue decimal.Decimal
	Due       time.Time
	Recurring bool
	Frequency Frequency
}

// NewBillPayment builds a validated bill. The frequency is dropped unless the
// bill is recurring.
func NewBillPayment(bill string, amountDue decimal.Decimal, due time.Time, recurring bool, frequency string, today time.Time) (*BillPayment, error) {
	b := &BillPayment{Bill: bill, AmountDue: amountDue, Recurring: recurring}
	if !due.IsZero() {
		b.Due = Midnight(due)
	}
	if recurring {
		f, err := ParseFrequency(frequency)
		if err != nil {
			return nil, err
		}
		b.Frequency = f
	}
	if err := b.Validate(today); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BillPayment) Name() string    { return b.Bill }
func (b *BillPayment) Type() EventType { return TypeBillPayment }

func (b *BillPayment) Date() (time.Time, bool) { return b.Due, true }

func (b *BillPayment) Validate(today time.Time) error {
	if !contains(Bills, b.Bill) {
		return ErrUnknownBill
	}
	if err := ValidateAmount(b.AmountDue); err != nil {
		return err
	}
	if err := validateDate(b.Due, today); err != nil {
		return err
	}
	if b.Recurring {
		if _, err := ParseFrequency(string(b.Frequency)); err != nil {
			return err
		}
	} else if b.Frequency != "" {
		return ErrFrequencyNotRecurring
	}
	return nil
}

func (b *BillPayment) Row() EventRow {
	due := b.Due
	return EventRow{
		Name:      b.Bill,
		Type:      TypeBillPayment,
		Date:      &due,
		AmountDue: b.AmountDue,
		Recurring: b.Recurring,
		Frequency: b.Frequency,
	}
}

// Investment is a planned investment on a date.
type Investment struct {
	Option string
	Amount decimal.Decimal
	On     time.Time
}

// NewInvestment builds a validated investment.
func NewInvestment(option string, amount decimal.Decimal, on time.Time, today time.Time) (*Investment, error) {
	i := &Investment{Option: option, Amount: amount}
	if !on.IsZero() {
		i.On = Midnight(on)
	}
	if err := i.Validate(today); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Investment) Name() string    { return i.Option }
func (i *Investment) Type() EventType { return TypeInvestment }

func (i *Investment) Date() (time.Time, bool) { return i.On, true }

func (i *Investment) Validate(today time.Time) error {
	if !contains(Investments, i.Option) {
		return ErrUnknownInvestment
	}
	if err := ValidateAmount(i.Amount); err != nil {
		return err
	}
	return validateDate(i.On, today)
}

func (i *Investment) Row() EventRow {
	on := i.On
	return EventRow{
		Name:             i.Option,
		Type:             TypeInvestment,
		Date:             &on,
		InvestmentAmount: i.Amount,
	}
}

// SavingsGoal is an undated target with the amount saved so far.
type SavingsGoal struct {
	Goal    string
	Target  decimal.Decimal
	Current decimal.Decimal
}

// NewSavingsGoal builds a validated savings goal.
func NewSavingsGoal(goal string, target, current decimal.Decimal) (*SavingsGoal, error) {
	g := &SavingsGoal{Goal: strings.TrimSpace(goal), Target: target, Current: current}
	if err := g.Validate(time.Time{}); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *SavingsGoal) Name() string    { return g.Goal }
func (g *SavingsGoal) Type() EventType { return TypeSavingsGoal }

func (g *SavingsGoal) Date() (time.Time, bool) { return time.Time{}, false }

func (g *SavingsGoal) Validate(time.Time) error {
	if strings.TrimSpace(g.Goal) == "" {
		return ErrEmptyGoalName
	}
	if err := ValidateAmount(g.Target); err != nil {
		return err
	}
	return ValidateAmount(g.Current)
}

func (g *SavingsGoal) Row() EventRow {
	return EventRow{
		Name:           g.Goal,
		Type:           TypeSavingsGoal,
		TargetAmount:   g.Target,
		CurrentSavings: g.Current,
	}
}

// EventRow is the wide record used at the display and storage boundary.
// Fields that do not apply to Type hold their zero value.
type EventRow struct {
	Name             string          `json:"name"`
	Type             EventType       `json:"type"`
	Date             *time.Time      `json:"date"`
	AmountDue        decimal.Decimal `json:"amount_due"`
	InvestmentAmount decimal.Decimal `json:"investment_amount"`
	TargetAmount     decimal.Decimal `json:"target_amount"`
	CurrentSavings   decimal.Decimal `json:"current_savings"`
	Recurring        bool            `json:"recurring"`
	Frequency        Frequency       `json:"frequency,omitempty"`
}

// Event converts the row back into its typed variant without re-checking the
// date against the current day.
func (r EventRow) Event() (Event, error) {
	var date time.Time
	if r.Date != nil {
		date = *r.Date
	}
	switch r.Type {
	case TypeBillPayment:
		return &BillPayment{
			Bill:      r.Name,
			AmountDue: r.AmountDue,
			Due:       date,
			Recurring: r.Recurring,
			Frequency: r.Frequency,
		}, nil
	case TypeInvestment:
		return &Investment{Option: r.Name, Amount: r.InvestmentAmount, On: date}, nil
	case TypeSavingsGoal:
		return &SavingsGoal{Goal: r.Name, Target: r.TargetAmount, Current: r.CurrentSavings}, nil
	}
	return nil, errors.Wrapf(ErrUnknownEventType, "row type %q", r.Type)
}

func validateDate(date, today time.Time) error {
	if date.IsZero() {
		return ErrDateRequired
	}
	if date.Before(Midnight(today)) {
		return ErrDateInPast
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
