package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/RobinCoderZhao/quicknews/pkg/storage"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ledger_days (
    date TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS ledger_clicks (
    date    TEXT NOT NULL,
    link_id TEXT NOT NULL,
    count   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (date, link_id)
);
`

// SQLiteStore keeps the ledger in two tables. Ensure and Increment are
// single upserts, so concurrent writers never lose an update.
type SQLiteStore struct {
	db     *storage.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the database at path and creates the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := storage.Open(storage.Config{DSN: path})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, logger: slog.Default()}, nil
}

func (s *SQLiteStore) Read(ctx context.Context) Ledger {
	l, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("ledger unreadable, using empty state", "backend", "sqlite", "error", err)
		return Ledger{}
	}
	return l
}

func (s *SQLiteStore) read(ctx context.Context) (Ledger, error) {
	l := Ledger{}

	days, err := s.db.QueryContext(ctx, `SELECT date FROM ledger_days`)
	if err != nil {
		return nil, err
	}
	for days.Next() {
		var date string
		if err := days.Scan(&date); err != nil {
			days.Close()
			return nil, err
		}
		l[date] = map[string]int64{}
	}
	days.Close()
	if err := days.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT date, link_id, count FROM ledger_clicks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var date, id string
		var n int64
		if err := rows.Scan(&date, &id, &n); err != nil {
			return nil, err
		}
		l.day(date)[id] = n
	}
	return l, rows.Err()
}

func (s *SQLiteStore) Write(ctx context.Context, l Ledger) error {
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_clicks`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_days`); err != nil {
			return err
		}
		for date, day := range l {
			if _, err := tx.ExecContext(ctx, `INSERT INTO ledger_days (date) VALUES (?)`, date); err != nil {
				return err
			}
			for id, n := range day {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO ledger_clicks (date, link_id, count) VALUES (?, ?, ?)`,
					date, id, n); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (s *SQLiteStore) Ensure(ctx context.Context, date, id string) error {
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := touchDay(ctx, tx, date); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_clicks (date, link_id, count) VALUES (?, ?, 0)
			ON CONFLICT (date, link_id) DO NOTHING
		`, date, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: ensure %s/%s: %w", ErrWrite, date, id, err)
	}
	return nil
}

func (s *SQLiteStore) Increment(ctx context.Context, date, id string) (int64, error) {
	var n int64
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := touchDay(ctx, tx, date); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO ledger_clicks (date, link_id, count) VALUES (?, ?, 1)
			ON CONFLICT (date, link_id) DO UPDATE SET count = count + 1
			RETURNING count
		`, date, id).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: increment %s/%s: %w", ErrWrite, date, id, err)
	}
	return n, nil
}

func touchDay(ctx context.Context, tx *sql.Tx, date string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO ledger_days (date) VALUES (?) ON CONFLICT (date) DO NOTHING`, date)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
