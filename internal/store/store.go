// Package store reads ledgers from and writes derived statements to
// PostgreSQL. Stored statements are a cache: ReplaceStatements always writes a
// complete recomputation for its scope.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
)

// ErrNoDatabase is returned when no database URL is configured.
var ErrNoDatabase = errors.New("no database configured")

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is a Postgres-backed ledger source and statement sink.
type Store struct {
	db DB
}

// New wraps a connection pool.
func New(db DB) *Store {
	return &Store{db: db}
}

// Open creates a connection pool and checks that the server answers.
func Open(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, ErrNoDatabase
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
		company_id        TEXT NOT NULL,
		id                TEXT NOT NULL,
		txn_date          DATE NOT NULL,
		type              TEXT NOT NULL,
		category          TEXT,
		amount            NUMERIC NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		affects_pl        BOOLEAN,
		affects_cash_flow BOOLEAN,
		affects_balance   BOOLEAN,
		recorded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (company_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS ledger_transactions_date ON ledger_transactions (company_id, txn_date)`,
	`CREATE TABLE IF NOT EXISTS period_statements (
		company_id   TEXT NOT NULL,
		granularity  TEXT NOT NULL,
		period_start DATE NOT NULL,
		period_label TEXT NOT NULL,
		is_valid     BOOLEAN NOT NULL,
		statements   JSONB NOT NULL,
		computed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (company_id, granularity, period_start)
	)`,
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

const loadTransactionsSQL = `
	SELECT id, txn_date, type, category, amount::text, description,
	       affects_pl, affects_cash_flow, affects_balance
	FROM ledger_transactions
	WHERE company_id = $1
	  AND ($2::date IS NULL OR txn_date >= $2::date)
	  AND ($3::date IS NULL OR txn_date <= $3::date)
	ORDER BY txn_date, id`

// LoadTransactions returns the company's ledger between from and to
// inclusive. A zero bound is open.
func (s *Store) LoadTransactions(ctx context.Context, companyID string, from, to time.Time) ([]model.RawTransaction, error) {
	rows, err := s.db.Query(ctx, loadTransactionsSQL, companyID, nullDate(from), nullDate(to))
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	txns, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("scanning transactions: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Debug().Str("company", companyID).Int("rows", len(txns)).Msg("loaded ledger from database")
	return txns, nil
}

func scanTransaction(row pgx.CollectableRow) (model.RawTransaction, error) {
	var (
		raw         model.RawTransaction
		on          time.Time
		amount      string
		description *string
	)
	err := row.Scan(&raw.ID, &on, &raw.Type, &raw.Category, &amount, &description,
		&raw.AffectsPL, &raw.AffectsCashFlow, &raw.AffectsBalance)
	if err != nil {
		return model.RawTransaction{}, err
	}
	raw.Date = on
	raw.Amount = amount
	if description != nil {
		raw.Description = *description
	}
	return raw, nil
}

// ReplaceStatements deletes the stored series of one company and granularity
// and inserts periods in its place, in a single transaction.
func (s *Store) ReplaceStatements(ctx context.Context, companyID, granularity string, periods []model.PeriodStatement) error {
	log := logger.FromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		// No-op after a successful Commit.
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM period_statements WHERE company_id = $1 AND granularity = $2`, companyID, granularity)
	if err != nil {
		return fmt.Errorf("deleting statements: %w", err)
	}
	deleted := tag.RowsAffected()

	for _, p := range periods {
		data, err := json.Marshal(p.Statements)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", p.PeriodLabel, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO period_statements (company_id, granularity, period_start, period_label, is_valid, statements)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			companyID, granularity, p.Period, p.PeriodLabel, p.Statements.IsValid, data)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", p.PeriodLabel, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing statements: %w", err)
	}
	log.Info().Str("company", companyID).Str("granularity", granularity).
		Int64("deleted", deleted).Int("inserted", len(periods)).Msg("replaced stored statements")
	return nil
}

// LoadStatements returns the stored series of one company and granularity,
// oldest first.
func (s *Store) LoadStatements(ctx context.Context, companyID, granularity string) ([]model.PeriodStatement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT period_start, period_label, statements
		FROM period_statements
		WHERE company_id = $1 AND granularity = $2
		ORDER BY period_start`, companyID, granularity)
	if err != nil {
		return nil, fmt.Errorf("querying statements: %w", err)
	}
	periods, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PeriodStatement, error) {
		var (
			p    model.PeriodStatement
			data []byte
		)
		if err := row.Scan(&p.Period, &p.PeriodLabel, &data); err != nil {
			return p, err
		}
		if err := json.Unmarshal(data, &p.Statements); err != nil {
			return p, fmt.Errorf("decoding %s: %w", p.PeriodLabel, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning statements: %w", err)
	}
	return periods, nil
}

func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Ledger is one company's stored ledger, readable as a whole.
type Ledger struct {
	Store     *Store
	CompanyID string
}

// ReadAll returns every stored transaction of the company.
func (l Ledger) ReadAll(ctx context.Context) ([]model.RawTransaction, error) {
	return l.Store.LoadTransactions(ctx, l.CompanyID, time.Time{}, time.Time{})
}
