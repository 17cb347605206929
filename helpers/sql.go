package helpers

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// ============================================================================
// SQL SOURCES — A query result as a sheet
// ============================================================================
// Column names become the header row (row 1) and every value is rendered as
// text, so SQL data goes through the same normalizer as a spreadsheet.
// ============================================================================

// SQLSource reads a sheet from a database/sql connection.
type SQLSource struct {
	Label string
	DB    *sql.DB
	Query string
}

// OpenSQLite opens a SQLite database with the pure-Go driver.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}
	return db, nil
}

// Name identifies the source in logs.
func (s *SQLSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "sql"
}

// Read runs the query.
func (s *SQLSource) Read(ctx context.Context) (*Sheet, error) {
	rows, err := s.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read columns")
	}

	grid := [][]string{cols}
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan failed")
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		grid = append(grid, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query failed")
	}

	return &Sheet{Name: s.Name(), Rows: grid, HeaderRow: 1}, nil
}

// PostgresSource reads a sheet from Postgres through a pgx pool.
type PostgresSource struct {
	Label string
	Pool  *pgxpool.Pool
	Query string
}

// NewPostgresSource connects a pool for the given DSN.
func NewPostgresSource(ctx context.Context, dsn, query string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	return &PostgresSource{Label: "postgres", Pool: pool, Query: query}, nil
}

// Name identifies the source in logs.
func (s *PostgresSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "postgres"
}

// Read runs the query.
func (s *PostgresSource) Read(ctx context.Context) (*Sheet, error) {
	rows, err := s.Pool.Query(ctx, s.Query)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = string(f.Name)
	}

	grid := [][]string{header}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read row")
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		grid = append(grid, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query failed")
	}

	return &Sheet{Name: s.Name(), Rows: grid, HeaderRow: 1}, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() {
	s.Pool.Close()
}

// cellString renders a driver value the way a spreadsheet would show it.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return x.String()
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return ""
		}
		return cellString(dv)
	}
	return fmt.Sprint(v)
}
