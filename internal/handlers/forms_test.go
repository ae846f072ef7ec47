package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formRequest(form url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/events", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestParseEventForm_NonRecurringBillDropsFrequency(t *testing.T) {
	e, err := parseEventForm(formRequest(url.Values{
		"type":       {"Bill Payment"},
		"bill":       {"Internet Bill"},
		"amount_due": {"49.99"},
		"date":       {"2026-10-15"},
		"frequency":  {"Weekly"},
	}), fixedNow)
	require.NoError(t, err)

	bill, ok := e.(*models.BillPayment)
	require.True(t, ok, "got %T", e)
	assert.False(t, bill.Recurring)
	assert.Empty(t, bill.Frequency)
	assert.True(t, bill.AmountDue.Equal(decimal.RequireFromString("49.99")))
}

func TestChecked(t *testing.T) {
	tests := map[string]bool{"": false, "off": false, "false": false, "0": false, "on": true, "true": true, "1": true}
	for v, want := range tests {
		req := formRequest(url.Values{"recurring": {v}})
		require.NoError(t, req.ParseForm())
		assert.Equal(t, want, checked(req, "recurring"), "value %q", v)
	}
}

func TestMoney(t *testing.T) {
	h := NewHandlers(nil, Options{CurrencySymbol: "€"})

	assert.Equal(t, "€12.50", h.money(decimal.RequireFromString("12.5")))
	assert.Equal(t, "-€3.00", h.money(decimal.NewFromInt(-3)))
	assert.Equal(t, "€0.00", h.money(decimal.Zero))
}

func TestMetricsMiddlewarePassesStatusThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /probe/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	MetricsMiddleware(mux).ServeHTTP(w, httptest.NewRequest("GET", "/probe/7", http.NoBody))

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRejectedLoginIsCounted(t *testing.T) {
	hash, err := auth.HashPassword("right")
	require.NoError(t, err)
	h := NewHandlers(nil, Options{PasscodeHash: hash})

	before := testutil.ToFloat64(rejectedSubmissions.WithLabelValues("login"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", strings.NewReader(url.Values{"passcode": {"wrong"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(rejectedSubmissions.WithLabelValues("login")))
}
