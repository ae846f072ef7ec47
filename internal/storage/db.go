package storage

import (
	"database/sql"
	"strings"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// ErrSessionNotFound is returned for unknown or expired session tokens.
var ErrSessionNotFound = errors.New("session not found")

// DB wraps a sql.DB connection holding every live session's ledger.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// Every connection to :memory: is a separate database.
	if isMemory(path) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrate database")
	}

	return db, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			last_activity INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS salaries (
			token TEXT PRIMARY KEY,
			amount TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			event_date TEXT,
			amount_due TEXT NOT NULL DEFAULT '0',
			investment_amount TEXT NOT NULL DEFAULT '0',
			target_amount TEXT NOT NULL DEFAULT '0',
			current_savings TEXT NOT NULL DEFAULT '0',
			recurring INTEGER NOT NULL DEFAULT 0,
			frequency TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_token ON events(token)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT NOT NULL,
			category TEXT NOT NULL,
			amount TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_token ON expenses(token)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateSession registers a new, empty ledger under token.
func (db *DB) CreateSession(token string, expiresAt time.Time) error {
	now := time.Now().Unix()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, created_at, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, now, expiresAt.Unix(), now,
	)
	return errors.Wrap(err, "create session")
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	models.Session
	LastActivity time.Time
}

// ValidateSession checks that a session token exists and has not expired.
func (db *DB) ValidateSession(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(
		"SELECT token, created_at, expires_at, last_activity FROM sessions WHERE token = ? AND expires_at > ?",
		token, time.Now().Unix(),
	)

	var createdAt, expiresAt, lastActivity int64
	var info SessionInfo
	if err := row.Scan(&info.Token, &createdAt, &expiresAt, &lastActivity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "validate session")
	}
	info.CreatedAt = time.Unix(createdAt, 0)
	info.ExpiresAt = time.Unix(expiresAt, 0)
	info.LastActivity = time.Unix(lastActivity, 0)
	return &info, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().Unix(), newExpiresAt.Unix(), token,
	)
	return errors.Wrap(err, "renew session")
}

// DeleteSession removes a session together with its ledger.
func (db *DB) DeleteSession(token string) error {
	return db.deleteWhere("token = ?", token)
}

// CleanExpiredSessions removes all expired sessions and their ledgers.
func (db *DB) CleanExpiredSessions() error {
	return db.deleteWhere("token IN (SELECT token FROM sessions WHERE expires_at <= ?)", time.Now().Unix())
}

func (db *DB) deleteWhere(cond string, arg any) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "begin delete")
	}
	defer tx.Rollback()

	// sessions goes last so the subquery still sees the expired rows.
	for _, table := range []string{"events", "expenses", "salaries", "sessions"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE "+cond, arg); err != nil {
			return errors.Wrapf(err, "delete from %s", table)
		}
	}
	return errors.Wrap(tx.Commit(), "commit delete")
}

// SessionCount returns the number of stored sessions.
func (db *DB) SessionCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

// SaveSalary stores the salary of a session. It fails with
// ledger.ErrSalaryAlreadySet if one is already stored.
func (db *DB) SaveSalary(token string, amount decimal.Decimal) error {
	res, err := db.conn.Exec(
		"INSERT INTO salaries (token, amount) VALUES (?, ?) ON CONFLICT(token) DO NOTHING",
		token, amount.String(),
	)
	if err != nil {
		return errors.Wrap(err, "save salary")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "save salary")
	}
	if n == 0 {
		return ledger.ErrSalaryAlreadySet
	}
	return nil
}

// AppendEvent stores an event as a wide row after the session's previous ones.
func (db *DB) AppendEvent(token string, e models.Event) error {
	if e == nil {
		return ledger.ErrNilEvent
	}
	r := e.Row()

	var date, frequency sql.NullString
	if r.Date != nil {
		date = sql.NullString{String: r.Date.Format(dateLayout), Valid: true}
	}
	if r.Frequency != "" {
		frequency = sql.NullString{String: string(r.Frequency), Valid: true}
	}

	_, err := db.conn.Exec(
		`INSERT INTO events (token, name, type, event_date, amount_due, investment_amount,
			target_amount, current_savings, recurring, frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		token, r.Name, string(r.Type), date, r.AmountDue.String(), r.InvestmentAmount.String(),
		r.TargetAmount.String(), r.CurrentSavings.String(), r.Recurring, frequency,
	)
	return errors.Wrap(err, "append event")
}

// AppendExpense stores an expense after the session's previous ones.
func (db *DB) AppendExpense(token string, e models.Expense) error {
	_, err := db.conn.Exec(
		"INSERT INTO expenses (token, category, amount) VALUES (?, ?, ?)",
		token, string(e.Category), e.Amount.String(),
	)
	return errors.Wrap(err, "append expense")
}

// LoadState rebuilds the ledger of a session in insertion order. An unknown
// token yields an empty ledger.
func (db *DB) LoadState(token string) (*ledger.State, error) {
	state := ledger.New()

	var salary string
	err := db.conn.QueryRow("SELECT amount FROM salaries WHERE token = ?", token).Scan(&salary)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, errors.Wrap(err, "load salary")
	default:
		amount, err := decimal.NewFromString(salary)
		if err != nil {
			return nil, errors.Wrap(err, "parse salary")
		}
		if err := state.SetSalary(amount); err != nil {
			return nil, errors.Wrap(err, "load salary")
		}
	}

	if err := db.loadEvents(token, state); err != nil {
		return nil, err
	}
	if err := db.loadExpenses(token, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (db *DB) loadEvents(token string, state *ledger.State) error {
	rows, err := db.conn.Query(
		`SELECT name, type, event_date, amount_due, investment_amount, target_amount,
			current_savings, recurring, frequency
		FROM events WHERE token = ? ORDER BY id`,
		token,
	)
	if err != nil {
		return errors.Wrap(err, "load events")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                                      models.EventRow
			typ                                    string
			date, frequency                        sql.NullString
			amountDue, investment, target, savings string
		)
		if err := rows.Scan(&r.Name, &typ, &date, &amountDue, &investment, &target, &savings, &r.Recurring, &frequency); err != nil {
			return errors.Wrap(err, "scan event")
		}
		r.Type = models.EventType(typ)
		r.Frequency = models.Frequency(frequency.String)
		if date.Valid {
			d, err := time.ParseInLocation(dateLayout, date.String, time.Local)
			if err != nil {
				return errors.Wrap(err, "parse event date")
			}
			r.Date = &d
		}
		if r.AmountDue, err = decimal.NewFromString(amountDue); err != nil {
			return errors.Wrap(err, "parse amount due")
		}
		if r.InvestmentAmount, err = decimal.NewFromString(investment); err != nil {
			return errors.Wrap(err, "parse investment amount")
		}
		if r.TargetAmount, err = decimal.NewFromString(target); err != nil {
			return errors.Wrap(err, "parse target amount")
		}
		if r.CurrentSavings, err = decimal.NewFromString(savings); err != nil {
			return errors.Wrap(err, "parse current savings")
		}

		e, err := r.Event()
		if err != nil {
			return err
		}
		if err := state.AddEvent(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (db *DB) loadExpenses(token string, state *ledger.State) error {
	rows, err := db.conn.Query("SELECT category, amount FROM expenses WHERE token = ? ORDER BY id", token)
	if err != nil {
		return errors.Wrap(err, "load expenses")
	}
	defer rows.Close()

	for rows.Next() {
		var category, amount string
		if err := rows.Scan(&category, &amount); err != nil {
			return errors.Wrap(err, "scan expense")
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return errors.Wrap(err, "parse expense amount")
		}
		if err := state.AddExpense(models.Expense{Category: models.Category(category), Amount: d}); err != nil {
			return errors.Wrap(err, "load expense")
		}
	}
	return rows.Err()
}
