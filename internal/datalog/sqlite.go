package datalog

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// columnTypes gives the SQLite type of each column in Columns.
var columnTypes = map[string]string{
	"trial_index":       "INTEGER",
	"probability1":      "REAL",
	"probability2":      "REAL",
	"outcome1":          "REAL",
	"outcome2":          "REAL",
	"actual_outcome1":   "REAL",
	"actual_outcome2":   "REAL",
	"resolved_outcome1": "REAL",
	"resolved_outcome2": "REAL",
	"timed_out":         "INTEGER",
	"choice":            "INTEGER",
	"rt":                "REAL",
	"reward":            "REAL",
	"total_reward":      "REAL",
	"iti":               "REAL",
}

// SQLiteSink stores trial records in the table "trials" of a SQLite
// database. Absent values are NULL.
type SQLiteSink struct {
	db     *sql.DB
	insert *sql.Stmt
}

// OpenSQLite opens or creates the database at path and prepares the table.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite log: %w", err)
	}

	defs := make([]string, len(Columns))
	for i, c := range Columns {
		typ, ok := columnTypes[c]
		if !ok {
			typ = "TEXT"
		}
		defs[i] = c + " " + typ
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS trials (` + strings.Join(defs, ", ") + `)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create trials table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(Columns)), ", ")
	stmt, err := db.Prepare(`INSERT INTO trials (` + strings.Join(Columns, ", ") + `) VALUES (` + placeholders + `)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &SQLiteSink{db: db, insert: stmt}, nil
}

// Write inserts one record.
func (s *SQLiteSink) Write(r Record) error {
	if _, err := s.insert.Exec(r.Values()...); err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}
	return nil
}

// Close releases the statement and the database.
func (s *SQLiteSink) Close() error {
	s.insert.Close()
	return s.db.Close()
}

// DB exposes the database for reading back, mainly in tests.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}
