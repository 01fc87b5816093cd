package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/vankov/bgledger/internal/ledger"
	_ "modernc.org/sqlite"
)

type AccountFilter struct {
	Class      int
	Type       ledger.AccountType
	OnlyLeaves bool
	Limit      int
	Offset     int
}

type EntryFilter struct {
	AccountID int64
	Posted    *bool
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

type Store struct {
	writer *sql.DB
	reader *sql.DB
	log    zerolog.Logger
}

// Open opens the database with a single-connection writer pool and a
// parallel reader pool, and runs migrations.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())

	s := &Store{writer: writer, reader: reader, log: log}

	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	err1 := s.writer.Close()
	err2 := s.reader.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// inWriteTx runs fn inside a writer transaction, retrying up to three times
// on transient contention. Domain errors pass through unretried; a rollback
// leaves no partial effect.
func (s *Store) inWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	op := func() error {
		tx, err := s.writer.BeginTx(ctx, nil)
		if err != nil {
			return classifyErr(err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return classifyErr(err)
		}
		if err := tx.Commit(); err != nil {
			return classifyErr(err)
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ledger.ErrTransient) {
			return backoff.Permanent(err)
		}
		s.log.Warn().Err(err).Msg("transient storage error, retrying")
		return err
	}, bo)
}

// classifyErr maps driver errors onto the engine's error kinds. Busy/locked
// contention is transient; constraint violations are integrity errors.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrState),
		errors.Is(err, ledger.ErrPermission), errors.Is(err, ledger.ErrClassification),
		errors.Is(err, ledger.ErrIntegrity), errors.Is(err, ledger.ErrTransient):
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "SQLITE_BUSY"), strings.Contains(msg, "database is locked"):
		return fmt.Errorf("%w: %v", ledger.ErrTransient, err)
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: %v", ledger.ErrIntegrity, err)
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeStr(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}
