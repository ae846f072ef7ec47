package ledger

import (
	"testing"
	"time"
	_ "time/tzdata"

	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// LedgerTestSuite exercises State and Summarize against a fixed clock.
type LedgerTestSuite struct {
	suite.Suite
	state *State
	today time.Time
}

func (suite *LedgerTestSuite) SetupTest() {
	suite.state = New()
	suite.today = time.Date(2026, time.October, 15, 0, 0, 0, 0, time.Local)
}

func (suite *LedgerTestSuite) bill(amount string, in int) *models.BillPayment {
	b, err := models.NewBillPayment("Water Bill", dec(amount), suite.today.AddDate(0, 0, in), false, "", suite.today)
	require.NoError(suite.T(), err)
	return b
}

func (suite *LedgerTestSuite) investment(amount string) *models.Investment {
	i, err := models.NewInvestment("Stocks", dec(amount), suite.today.AddDate(0, 0, 10), suite.today)
	require.NoError(suite.T(), err)
	return i
}

func (suite *LedgerTestSuite) expense(c models.Category, amount string) models.Expense {
	e, err := models.NewExpense(c, dec(amount))
	require.NoError(suite.T(), err)
	return e
}

func (suite *LedgerTestSuite) TestEventsKeepSubmissionOrderAndDefaults() {
	goal, err := models.NewSavingsGoal("Holiday", dec("2000"), dec("150.50"))
	require.NoError(suite.T(), err)

	events := []models.Event{suite.bill("45.10", 3), suite.investment("300"), goal, suite.bill("12", 1)}
	for _, e := range events {
		require.NoError(suite.T(), suite.state.AddEvent(e))
	}

	got := suite.state.Events()
	require.Len(suite.T(), got, len(events))
	for i := range events {
		assert.Same(suite.T(), events[i], got[i], "event %d out of order", i)
	}

	bill := got[0].Row()
	assert.True(suite.T(), bill.InvestmentAmount.IsZero())
	assert.True(suite.T(), bill.TargetAmount.IsZero())
	assert.True(suite.T(), bill.CurrentSavings.IsZero())

	inv := got[1].Row()
	assert.True(suite.T(), inv.AmountDue.IsZero())
	assert.False(suite.T(), inv.Recurring)
	assert.Empty(suite.T(), inv.Frequency)

	saving := got[2].Row()
	assert.Nil(suite.T(), saving.Date)
	assert.True(suite.T(), saving.AmountDue.IsZero())
	assert.True(suite.T(), saving.InvestmentAmount.IsZero())
}

func (suite *LedgerTestSuite) TestAddEventRejectsNil() {
	assert.ErrorIs(suite.T(), suite.state.AddEvent(nil), ErrNilEvent)
	assert.Empty(suite.T(), suite.state.Events())
}

func (suite *LedgerTestSuite) TestDaysRemaining() {
	future := &models.Investment{Option: "Stocks", Amount: decimal.Zero, On: suite.today.AddDate(0, 0, 5)}
	past := &models.Investment{Option: "Stocks", Amount: decimal.Zero, On: suite.today.AddDate(0, 0, -3)}

	days := DaysRemaining(future, suite.today)
	require.NotNil(suite.T(), days)
	assert.Equal(suite.T(), 5, *days)

	days = DaysRemaining(past, suite.today)
	require.NotNil(suite.T(), days)
	assert.Equal(suite.T(), -3, *days)

	// Later in the day the countdown rounds down, like a timedelta's days.
	afternoon := suite.today.Add(15 * time.Hour)
	days = DaysRemaining(future, afternoon)
	require.NotNil(suite.T(), days)
	assert.InDelta(suite.T(), 5, *days, 1)

	goal := &models.SavingsGoal{Goal: "Car"}
	assert.Nil(suite.T(), DaysRemaining(goal, suite.today))
}

func (suite *LedgerTestSuite) TestDaysRemainingAcrossDaylightSaving() {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(suite.T(), err)

	// Clocks spring forward on 2027-03-14.
	now := time.Date(2027, time.March, 10, 0, 0, 0, 0, ny)
	b, err := models.NewBillPayment("Water Bill", decimal.Zero, time.Date(2027, time.March, 15, 0, 0, 0, 0, ny), false, "", now)
	require.NoError(suite.T(), err)

	days := DaysRemaining(b, now)
	require.NotNil(suite.T(), days)
	assert.Equal(suite.T(), 5, *days)

	// And back on 2027-11-07.
	now = time.Date(2027, time.November, 5, 12, 0, 0, 0, ny)
	b, err = models.NewBillPayment("Water Bill", decimal.Zero, time.Date(2027, time.November, 8, 0, 0, 0, 0, ny), false, "", now)
	require.NoError(suite.T(), err)

	days = DaysRemaining(b, now)
	require.NotNil(suite.T(), days)
	assert.Equal(suite.T(), 2, *days)
}

func (suite *LedgerTestSuite) TestSummaryWithinBudget() {
	require.NoError(suite.T(), suite.state.SetSalary(dec("1000")))
	require.NoError(suite.T(), suite.state.AddEvent(suite.bill("200", 2)))
	require.NoError(suite.T(), suite.state.AddEvent(suite.investment("300")))
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryFood, "100")))

	sum := Summarize(suite.state, suite.today)
	assert.True(suite.T(), sum.TotalBills.Equal(dec("200")))
	assert.True(suite.T(), sum.TotalInvestments.Equal(dec("300")))
	assert.True(suite.T(), sum.TotalExpenses.Equal(dec("100")))
	assert.True(suite.T(), sum.TotalSpent.Equal(dec("600")), "total spent = %s", sum.TotalSpent)
	assert.True(suite.T(), sum.RemainingSalary.Equal(dec("400")), "remaining = %s", sum.RemainingSalary)
	assert.False(suite.T(), sum.OverBudget)
}

func (suite *LedgerTestSuite) TestSummaryOverBudget() {
	require.NoError(suite.T(), suite.state.SetSalary(dec("1000")))
	require.NoError(suite.T(), suite.state.AddEvent(suite.bill("900", 0)))
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryTransport, "300")))

	sum := Summarize(suite.state, suite.today)
	assert.True(suite.T(), sum.TotalSpent.Equal(dec("1200")))
	assert.True(suite.T(), sum.RemainingSalary.Equal(dec("-200")), "remaining = %s", sum.RemainingSalary)
	assert.True(suite.T(), sum.OverBudget)
}

func (suite *LedgerTestSuite) TestSpendingEqualToSalaryIsNotOverBudget() {
	require.NoError(suite.T(), suite.state.SetSalary(dec("500")))
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryFood, "500")))

	sum := Summarize(suite.state, suite.today)
	assert.True(suite.T(), sum.RemainingSalary.IsZero())
	assert.False(suite.T(), sum.OverBudget)
}

func (suite *LedgerTestSuite) TestZeroSalaryStaysUnset() {
	require.NoError(suite.T(), suite.state.SetSalary(decimal.Zero))

	_, set := suite.state.Salary()
	assert.False(suite.T(), set, "a zero salary is indistinguishable from an unset one")

	sum := Summarize(suite.state, suite.today)
	assert.False(suite.T(), sum.SalarySet)
}

func (suite *LedgerTestSuite) TestSalaryIsSetOnce() {
	require.NoError(suite.T(), suite.state.SetSalary(dec("2500")))
	assert.ErrorIs(suite.T(), suite.state.SetSalary(dec("3000")), ErrSalaryAlreadySet)

	salary, set := suite.state.Salary()
	assert.True(suite.T(), set)
	assert.True(suite.T(), salary.Equal(dec("2500")))
}

func (suite *LedgerTestSuite) TestNegativeSalaryRejected() {
	assert.ErrorIs(suite.T(), suite.state.SetSalary(dec("-1")), models.ErrInvalidAmount)
	_, set := suite.state.Salary()
	assert.False(suite.T(), set)
}

func (suite *LedgerTestSuite) TestSummarizeIsIdempotent() {
	require.NoError(suite.T(), suite.state.SetSalary(dec("1000")))
	require.NoError(suite.T(), suite.state.AddEvent(suite.bill("19.99", 4)))
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryEntertainment, "42.50")))

	first := Summarize(suite.state, suite.today)
	second := Summarize(suite.state, suite.today)
	assert.Equal(suite.T(), first, second)
	assert.Len(suite.T(), suite.state.Events(), 1)
	assert.Len(suite.T(), suite.state.Expenses(), 1)
}

func (suite *LedgerTestSuite) TestCategoryTotals() {
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryFood, "10")))
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryTransport, "30")))
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryFood, "20")))
	require.NoError(suite.T(), suite.state.AddExpense(suite.expense(models.CategoryMiscellaneous, "40")))

	sum := Summarize(suite.state, suite.today)
	require.Len(suite.T(), sum.Categories, 3)
	assert.Equal(suite.T(), models.CategoryMiscellaneous, sum.Categories[0].Category)
	assert.Equal(suite.T(), models.CategoryFood, sum.Categories[1].Category)
	assert.Equal(suite.T(), 2, sum.Categories[1].Count)
	assert.InDelta(suite.T(), 30.0, sum.Categories[1].Percentage, 0.001)
	assert.Equal(suite.T(), models.CategoryTransport, sum.Categories[2].Category)
}

func (suite *LedgerTestSuite) TestEmptySummary() {
	sum := Summarize(suite.state, suite.today)
	assert.Empty(suite.T(), sum.Events)
	assert.Empty(suite.T(), sum.Expenses)
	assert.Empty(suite.T(), sum.Categories)
	assert.True(suite.T(), sum.TotalSpent.IsZero())
	assert.False(suite.T(), sum.OverBudget)
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
