package sheetsign

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// SQL dialects supported by SQLDataset.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const resultsTable = "sheetsign_results"

// SQLDataset inserts records into a sheetsign_results table, created on
// open when missing.
type SQLDataset struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// OpenSQLDataset opens a database for dialect DialectSQLite (dsn is a file
// path or sqlite URI) or DialectPostgres (dsn is a postgres URL).
func OpenSQLDataset(ctx context.Context, dialect, dsn string) (*SQLDataset, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("%w: unknown SQL dialect %q", ErrInvalidSink, dialect)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty %s DSN", ErrInvalidSink, dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrDataset, dialect, err)
	}
	if dialect == DialectSQLite {
		// One writer at a time; avoids SQLITE_BUSY on the file.
		db.SetMaxOpenConns(1)
	}

	d := &SQLDataset{db: db, dialect: dialect, now: time.Now}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *SQLDataset) migrate(ctx context.Context) error {
	var ddl string
	switch d.dialect {
	case DialectPostgres:
		ddl = `CREATE TABLE IF NOT EXISTS ` + resultsTable + ` (
			id BIGSERIAL PRIMARY KEY,
			status TEXT NOT NULL,
			output_file TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS ` + resultsTable + ` (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status TEXT NOT NULL,
			output_file TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`
	}
	if _, err := d.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrDataset, resultsTable, err)
	}
	return nil
}

// Push implements Dataset.
func (d *SQLDataset) Push(ctx context.Context, rec Record) error {
	query := `INSERT INTO ` + resultsTable + ` (status, output_file, created_at) VALUES (?, ?, ?)`
	if d.dialect == DialectPostgres {
		query = `INSERT INTO ` + resultsTable + ` (status, output_file, created_at) VALUES ($1, $2, $3)`
	}
	if _, err := d.db.ExecContext(ctx, query, rec.Status, rec.OutputFile, d.now().UTC()); err != nil {
		return fmt.Errorf("%w: inserting record: %v", ErrDataset, err)
	}
	return nil
}

// Records returns every stored record in insertion order.
func (d *SQLDataset) Records(ctx context.Context) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT status, output_file FROM `+resultsTable+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %v", ErrDataset, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Status, &rec.OutputFile); err != nil {
			return nil, fmt.Errorf("%w: scanning record: %v", ErrDataset, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading records: %v", ErrDataset, err)
	}
	return out, nil
}

// Close closes the database.
func (d *SQLDataset) Close() error {
	return d.db.Close()
}
