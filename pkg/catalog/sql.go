package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/json"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

// dialect holds the statements of one database/sql driver. upsert is empty
// for dialects without a single-statement upsert; those update first and
// insert when no row matched.
type dialect struct {
	driver string
	create string
	upsert string
	update string
	insert string
	get    string
	list   string
}

const datasetColumns = `name, column_reports, artifact_key, format, compression, encoding, row_count, run_id, updated_at`

var dialects = map[string]dialect{
	"sqlite": {
		driver: "sqlite",
		create: `CREATE TABLE IF NOT EXISTS datasets (
			name TEXT PRIMARY KEY,
			column_reports TEXT NOT NULL,
			artifact_key TEXT NOT NULL,
			format TEXT NOT NULL,
			compression TEXT NOT NULL,
			encoding TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		upsert: `INSERT INTO datasets (` + datasetColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				column_reports = excluded.column_reports,
				artifact_key = excluded.artifact_key,
				format = excluded.format,
				compression = excluded.compression,
				encoding = excluded.encoding,
				row_count = excluded.row_count,
				run_id = excluded.run_id,
				updated_at = excluded.updated_at`,
		get:  `SELECT ` + datasetColumns + ` FROM datasets WHERE name = ?`,
		list: `SELECT ` + datasetColumns + ` FROM datasets ORDER BY name`,
	},
	"mysql": {
		driver: "mysql",
		create: `CREATE TABLE IF NOT EXISTS datasets (
			name VARCHAR(255) PRIMARY KEY,
			column_reports LONGTEXT NOT NULL,
			artifact_key VARCHAR(1024) NOT NULL,
			format VARCHAR(16) NOT NULL,
			compression VARCHAR(16) NOT NULL,
			encoding VARCHAR(32) NOT NULL,
			row_count BIGINT NOT NULL,
			run_id VARCHAR(64) NOT NULL,
			updated_at VARCHAR(64) NOT NULL
		)`,
		upsert: `INSERT INTO datasets (` + datasetColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				column_reports = VALUES(column_reports),
				artifact_key = VALUES(artifact_key),
				format = VALUES(format),
				compression = VALUES(compression),
				encoding = VALUES(encoding),
				row_count = VALUES(row_count),
				run_id = VALUES(run_id),
				updated_at = VALUES(updated_at)`,
		get:  `SELECT ` + datasetColumns + ` FROM datasets WHERE name = ?`,
		list: `SELECT ` + datasetColumns + ` FROM datasets ORDER BY name`,
	},
	"sqlserver": {
		driver: "sqlserver",
		create: `IF OBJECT_ID(N'datasets', N'U') IS NULL BEGIN CREATE TABLE datasets (
			name NVARCHAR(255) NOT NULL PRIMARY KEY,
			column_reports NVARCHAR(MAX) NOT NULL,
			artifact_key NVARCHAR(1024) NOT NULL,
			format NVARCHAR(16) NOT NULL,
			compression NVARCHAR(16) NOT NULL,
			encoding NVARCHAR(32) NOT NULL,
			row_count BIGINT NOT NULL,
			run_id NVARCHAR(64) NOT NULL,
			updated_at NVARCHAR(64) NOT NULL
		); END;`,
		update: `UPDATE datasets SET
			column_reports = @p2, artifact_key = @p3, format = @p4, compression = @p5,
			encoding = @p6, row_count = @p7, run_id = @p8, updated_at = @p9
			WHERE name = @p1`,
		insert: `INSERT INTO datasets (` + datasetColumns + `)
			VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9)`,
		get:  `SELECT ` + datasetColumns + ` FROM datasets WHERE name = @p1`,
		list: `SELECT ` + datasetColumns + ` FROM datasets ORDER BY name`,
	},
}

// SQLStore keeps records in a datasets table through database/sql. It
// serves SQLite (modernc.org/sqlite), MySQL and SQL Server; timestamps are
// stored as RFC3339Nano text so every dialect round-trips them unchanged.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

// NewSQLStore opens dsn with the named dialect (sqlite, mysql, sqlserver)
// and creates the datasets table when missing.
func NewSQLStore(ctx context.Context, name, dsn string) (*SQLStore, error) {
	d, ok := dialects[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported SQL dialect %q", name)
	}
	if name == "mysql" {
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql dsn")
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, storageError(err, "failed to open database")
	}
	if name == "sqlite" {
		// one writer at a time avoids SQLITE_BUSY on concurrent Puts
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageError(err, "failed to connect to database")
	}
	if _, err := db.ExecContext(ctx, d.create); err != nil {
		_ = db.Close()
		return nil, storageError(err, "failed to create datasets table")
	}
	return &SQLStore{db: db, d: d}, nil
}

func (s *SQLStore) Put(ctx context.Context, ds *models.Dataset) error {
	columns, err := json.Marshal(ds.Columns)
	if err != nil {
		return storageError(err, "failed to encode column reports")
	}
	args := []any{
		ds.Name, string(columns), ds.ArtifactKey, ds.Format, ds.Compression,
		ds.Encoding, ds.Rows, ds.RunID, ds.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	if s.d.upsert != "" {
		if _, err := s.db.ExecContext(ctx, s.d.upsert, args...); err != nil {
			return storageError(err, "failed to upsert dataset")
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateOrInsert(ctx, tx, s.d, args); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageError(err, "failed to commit dataset")
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// updateOrInsert runs the two-statement upsert inside tx. An unknown row
// count aborts the write rather than guessing whether the update matched.
func updateOrInsert(ctx context.Context, tx execer, d dialect, args []any) error {
	res, err := tx.ExecContext(ctx, d.update, args...)
	if err != nil {
		return storageError(err, "failed to update dataset")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(err, "failed to count updated datasets")
	}
	if n > 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, d.insert, args...); err != nil {
		return storageError(err, "failed to insert dataset")
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, name string) (*models.Dataset, error) {
	ds, err := scanDataset(s.db.QueryRowContext(ctx, s.d.get, name))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound("dataset", name)
	}
	if err != nil {
		return nil, storageError(err, "failed to read dataset")
	}
	return ds, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*models.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, s.d.list)
	if err != nil {
		return nil, storageError(err, "failed to list datasets")
	}
	defer rows.Close()

	var out []*models.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, storageError(err, "failed to read dataset")
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to list datasets")
	}
	return out, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (*models.Dataset, error) {
	var (
		ds        models.Dataset
		columns   string
		rows      int64
		updatedAt string
	)
	if err := row.Scan(&ds.Name, &columns, &ds.ArtifactKey, &ds.Format, &ds.Compression,
		&ds.Encoding, &rows, &ds.RunID, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(columns), &ds.Columns); err != nil {
		return nil, fmt.Errorf("column reports: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	ds.Rows = int(rows)
	ds.UpdatedAt = ts
	return &ds, nil
}
