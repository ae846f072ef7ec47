package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
	"finance-tracker/web"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// SessionContextKey is the context key for the session token.
	SessionContextKey contextKey = "session"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
)

// Options configures Handlers.
type Options struct {
	SessionTTL   time.Duration
	SecureCookie bool
	// PasscodeHash enables the login page when non-empty.
	PasscodeHash   string
	CurrencySymbol string
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db   *storage.DB
	opts Options
	// now drives the ledger calendar; sessions always use wall time.
	now func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, opts Options) *Handlers {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}
	return &Handlers{db: db, opts: opts, now: time.Now}
}

// SessionFromContext returns the session token set by SessionMiddleware.
func SessionFromContext(r *http.Request) string {
	token, _ := r.Context().Value(SessionContextKey).(string)
	return token
}

// SessionMiddleware resolves the ledger session of a request. Without a
// passcode a missing or expired session is replaced by a fresh one; with a
// passcode the visitor is sent to the login page instead. Sessions past the
// halfway point of their lifetime are renewed.
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			info, err := h.db.ValidateSession(cookie.Value)
			switch {
			case err == nil:
				h.renewIfNeeded(w, info)
				ctx := context.WithValue(r.Context(), SessionContextKey, info.Token)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			case !errors.Is(err, storage.ErrSessionNotFound):
				logger.Error("validate session", zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		if h.locked() {
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		token, err := h.startSession(w)
		if err != nil {
			logger.Error("start session", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), SessionContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) locked() bool {
	return h.opts.PasscodeHash != ""
}

func (h *Handlers) renewIfNeeded(w http.ResponseWriter, info *storage.SessionInfo) {
	now := time.Now()
	if info.ExpiresAt.Sub(now) >= h.opts.SessionTTL/2 {
		return
	}
	if err := h.db.RenewSession(info.Token, now.Add(h.opts.SessionTTL)); err != nil {
		logger.Warn("renew session", zap.Error(err))
		return
	}
	h.setSessionCookie(w, info.Token)
}

// startSession creates an empty ledger and hands its token to the browser.
// Expired sessions are purged on the way.
func (h *Handlers) startSession(w http.ResponseWriter) (string, error) {
	if err := h.db.CleanExpiredSessions(); err != nil {
		logger.Warn("clean expired sessions", zap.Error(err))
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", err
	}
	if err := h.db.CreateSession(token, time.Now().Add(h.opts.SessionTTL)); err != nil {
		return "", err
	}
	sessionsStarted.Inc()
	h.setSessionCookie(w, token)
	return token, nil
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Error string
}

// LoginForm renders the passcode page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if !h.locked() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	h.render(w, r, http.StatusOK, "login.html", LoginViewModel{})
}

// Login checks the passcode and starts a new session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.locked() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login.html", LoginViewModel{Error: "Invalid form submission"})
		return
	}

	passcode := r.FormValue("passcode")
	if passcode == "" {
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", LoginViewModel{Error: "Passcode is required"})
		return
	}
	if !auth.CheckPassword(passcode, h.opts.PasscodeHash) {
		rejectedSubmissions.WithLabelValues("login").Inc()
		h.render(w, r, http.StatusUnauthorized, "login.html", LoginViewModel{Error: "Invalid passcode"})
		return
	}

	if _, err := h.startSession(w); err != nil {
		logger.Error("start session", zap.Error(err))
		h.render(w, r, http.StatusInternalServerError, "login.html", LoginViewModel{Error: "An error occurred. Please try again."})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout discards the session and its ledger.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			logger.Error("delete session", zap.Error(err))
		}
	}
	h.clearSessionCookie(w)
	if h.locked() {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Reset discards the current ledger and continues with an empty one.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteSession(SessionFromContext(r)); err != nil {
		h.serverError(w, "reset session", err)
		return
	}
	token, err := h.startSession(w)
	if err != nil {
		h.serverError(w, "start session", err)
		return
	}
	h.renderDashboard(w, r, token, http.StatusOK, Flash{Notice: "Session data cleared."})
}

// Flash carries the one-shot messages of a dashboard render.
type Flash struct {
	Notice string
	Error  string
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Flash
	Summary     ledger.Summary
	Today       string
	Locked      bool
	Bills       []string
	Investments []string
	Frequencies []models.Frequency
	Categories  []models.Category
}

// Index renders the dashboard.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, SessionFromContext(r), http.StatusOK, Flash{})
}

// SubmitSalary records the monthly salary once per session.
func (h *Handlers) SubmitSalary(w http.ResponseWriter, r *http.Request) {
	token := SessionFromContext(r)
	amount, err := parseSalaryForm(r)
	if err != nil {
		h.reject(w, r, token, "salary", http.StatusUnprocessableEntity, "Could not submit salary", err)
		return
	}

	state, err := h.db.LoadState(token)
	if err != nil {
		h.serverError(w, "load state", err)
		return
	}
	if err := state.SetSalary(amount); err != nil {
		h.reject(w, r, token, "salary", statusFor(err), "Could not submit salary", err)
		return
	}
	if _, set := state.Salary(); set {
		if err := h.db.SaveSalary(token, amount); err != nil {
			if errors.Is(err, ledger.ErrSalaryAlreadySet) {
				h.reject(w, r, token, "salary", http.StatusConflict, "Could not submit salary", err)
				return
			}
			h.serverError(w, "save salary", err)
			return
		}
	}

	h.renderDashboard(w, r, token, http.StatusOK, Flash{Notice: "Salary submitted!"})
}

// AddEvent records a bill, investment or savings goal. Submissions of the
// expense tracking type are recorded as expenses.
func (h *Handlers) AddEvent(w http.ResponseWriter, r *http.Request) {
	token := SessionFromContext(r)
	if err := r.ParseForm(); err != nil {
		h.reject(w, r, token, "event", http.StatusBadRequest, "Could not add event", err)
		return
	}
	if r.FormValue("type") == string(models.TypeExpenseTracking) {
		h.AddExpense(w, r)
		return
	}

	event, err := parseEventForm(r, h.now())
	if err != nil {
		h.reject(w, r, token, "event", http.StatusUnprocessableEntity, "Could not add event", err)
		return
	}
	if err := h.db.AppendEvent(token, event); err != nil {
		h.serverError(w, "append event", err)
		return
	}
	eventsAdded.WithLabelValues(string(event.Type())).Inc()

	h.renderDashboard(w, r, token, http.StatusOK, Flash{Notice: fmt.Sprintf("%s event added!", event.Type())})
}

// AddExpense records an expense.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	token := SessionFromContext(r)
	expense, err := parseExpenseForm(r)
	if err != nil {
		h.reject(w, r, token, "expense", http.StatusUnprocessableEntity, "Could not add expense", err)
		return
	}
	if err := h.db.AppendExpense(token, expense); err != nil {
		h.serverError(w, "append expense", err)
		return
	}
	expensesAdded.WithLabelValues(string(expense.Category)).Inc()

	notice := fmt.Sprintf("Expense of %s added to %s category.", h.money(expense.Amount), expense.Category)
	h.renderDashboard(w, r, token, http.StatusOK, Flash{Notice: notice})
}

// Healthz reports liveness together with database reachability.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.SessionCount(); err != nil {
		logger.Error("health check", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func statusFor(err error) int {
	if errors.Is(err, ledger.ErrSalaryAlreadySet) {
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}

// reject re-renders the dashboard with a validation message. The ledger is
// left untouched.
func (h *Handlers) reject(w http.ResponseWriter, r *http.Request, token, form string, status int, prefix string, err error) {
	rejectedSubmissions.WithLabelValues(form).Inc()
	logger.Info("rejected submission", zap.String("form", form), zap.Error(err))
	h.renderDashboard(w, r, token, status, Flash{Error: fmt.Sprintf("%s: %s.", prefix, err)})
}

func (h *Handlers) serverError(w http.ResponseWriter, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handlers) renderDashboard(w http.ResponseWriter, r *http.Request, token string, status int, flash Flash) {
	state, err := h.db.LoadState(token)
	if err != nil {
		h.serverError(w, "load state", err)
		return
	}
	now := h.now()
	h.render(w, r, status, "index.html", DashboardViewModel{
		Flash:       flash,
		Summary:     ledger.Summarize(state, now),
		Today:       now.Format("2006-01-02"),
		Locked:      h.locked(),
		Bills:       models.Bills,
		Investments: models.Investments,
		Frequencies: models.Frequencies,
		Categories:  models.Categories,
	})
}

func (h *Handlers) money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + h.opts.CurrencySymbol + d.Neg().StringFixed(2)
	}
	return h.opts.CurrencySymbol + d.StringFixed(2)
}

func (h *Handlers) funcs() template.FuncMap {
	return template.FuncMap{
		"money": h.money,
		"date": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("2006-01-02")
		},
		"days": func(n *int) string {
			if n == nil {
				return "-"
			}
			return fmt.Sprint(*n)
		},
	}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, viewName string, data any) {
	tmpl, err := template.New(viewName).Funcs(h.funcs()).ParseFS(web.TemplatesFS, "templates/base.html", "templates/"+viewName)
	if err != nil {
		h.serverError(w, "parse template", err)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, target, data); err != nil {
		h.serverError(w, "execute template", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
