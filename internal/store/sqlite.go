package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/frigidsec/ctfadmin/internal/logger"
)

// SQLiteStore keeps challenges in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:" gives
// a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, wrap("open", err)
	}

	// One connection: the tool is sequential and an in-memory database is
	// private to the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("ping", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, wrap("open", fmt.Errorf("set PRAGMA busy_timeout: %w", err))
	}
	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, wrap("open", err)
	}

	logger.Debug("Opened SQLite store at %s", path)
	return &SQLiteStore{db: db}, nil
}

// Indexes are not UNIQUE; see the package comment.
func createSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS challenges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		challenge_name TEXT NOT NULL,
		flag_hash TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_challenges_name ON challenges(challenge_name);
	CREATE INDEX IF NOT EXISTS idx_challenges_flag_hash ON challenges(flag_hash);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// sqlWhere renders f as a WHERE clause body and its arguments.
func sqlWhere(f Filter) (string, []any, error) {
	switch {
	case f.Name != "" && f.FlagHash != "":
		return "challenge_name = ? OR flag_hash = ?", []any{f.Name, f.FlagHash}, nil
	case f.Name != "":
		return "challenge_name = ?", []any{f.Name}, nil
	case f.FlagHash != "":
		return "flag_hash = ?", []any{f.FlagHash}, nil
	}
	return "", nil, ErrEmptyFilter
}

func (s *SQLiteStore) Exists(ctx context.Context, f Filter) (bool, error) {
	where, args, err := sqlWhere(f)
	if err != nil {
		return false, wrap("exists", err)
	}

	var found int
	err = s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM challenges WHERE "+where+")", args...).Scan(&found)
	if err != nil {
		return false, wrap("exists", err)
	}
	logger.Debug("exists(%s): %t", f, found == 1)
	return found == 1, nil
}

func (s *SQLiteStore) FindOne(ctx context.Context, f Filter) (*Challenge, error) {
	where, args, err := sqlWhere(f)
	if err != nil {
		return nil, wrap("find one", err)
	}

	q := "SELECT id, challenge_name, flag_hash FROM challenges WHERE " + where + " ORDER BY id LIMIT 1"
	var (
		id int64
		c  Challenge
	)
	err = s.db.QueryRowContext(ctx, q, args...).Scan(&id, &c.Name, &c.FlagHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("find one", err)
	}
	c.ID = strconv.FormatInt(id, 10)
	return &c, nil
}

func (s *SQLiteStore) FindAll(ctx context.Context) ([]Challenge, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, challenge_name, flag_hash FROM challenges ORDER BY id")
	if err != nil {
		return nil, wrap("find all", err)
	}
	defer rows.Close()

	challenges := []Challenge{}
	for rows.Next() {
		var (
			id int64
			c  Challenge
		)
		if err := rows.Scan(&id, &c.Name, &c.FlagHash); err != nil {
			return nil, wrap("find all", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("find all", err)
	}
	logger.Debug("find all: %d challenges", len(challenges))
	return challenges, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, c *Challenge) (string, error) {
	const q = `INSERT INTO challenges (challenge_name, flag_hash) VALUES (?, ?)`
	res, err := s.db.ExecContext(ctx, q, c.Name, c.FlagHash)
	if err != nil {
		return "", wrap("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", wrap("insert", err)
	}
	c.ID = strconv.FormatInt(id, 10)
	logger.Debug("inserted challenge %q with id %s", c.Name, c.ID)
	return c.ID, nil
}

// DeleteOne removes the oldest matching row.
func (s *SQLiteStore) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	where, args, err := sqlWhere(f)
	if err != nil {
		return 0, wrap("delete", err)
	}

	q := "DELETE FROM challenges WHERE id = (SELECT id FROM challenges WHERE " + where + " ORDER BY id LIMIT 1)"
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, wrap("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("delete", err)
	}
	logger.Debug("delete(%s): %d removed", f, n)
	return n, nil
}

func (s *SQLiteStore) Close(_ context.Context) error {
	return s.db.Close()
}
