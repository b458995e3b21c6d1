package catalog

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garlicdevs/csv-cleaner/pkg/json"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

const (
	pgCreateDatasets = `CREATE TABLE IF NOT EXISTS datasets (
		name TEXT PRIMARY KEY,
		column_reports JSONB NOT NULL,
		artifact_key TEXT NOT NULL,
		format TEXT NOT NULL,
		compression TEXT NOT NULL,
		encoding TEXT NOT NULL,
		row_count BIGINT NOT NULL,
		run_id TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`

	pgUpsertDataset = `INSERT INTO datasets (name, column_reports, artifact_key, format, compression, encoding, row_count, run_id, updated_at)
		VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			column_reports = EXCLUDED.column_reports,
			artifact_key = EXCLUDED.artifact_key,
			format = EXCLUDED.format,
			compression = EXCLUDED.compression,
			encoding = EXCLUDED.encoding,
			row_count = EXCLUDED.row_count,
			run_id = EXCLUDED.run_id,
			updated_at = EXCLUDED.updated_at`

	pgSelectDatasets = `SELECT name, column_reports, artifact_key, format, compression, encoding, row_count, run_id, updated_at FROM datasets`
)

// PostgresStore keeps records in a datasets table with JSONB column reports.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool and creates the datasets table when missing.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, storageError(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageError(err, "failed to connect to postgres")
	}
	if _, err := pool.Exec(ctx, pgCreateDatasets); err != nil {
		pool.Close()
		return nil, storageError(err, "failed to create datasets table")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Put(ctx context.Context, ds *models.Dataset) error {
	columns, err := json.Marshal(ds.Columns)
	if err != nil {
		return storageError(err, "failed to encode column reports")
	}
	_, err = s.pool.Exec(ctx, pgUpsertDataset,
		ds.Name, string(columns), ds.ArtifactKey, ds.Format, ds.Compression,
		ds.Encoding, ds.Rows, ds.RunID, ds.UpdatedAt)
	if err != nil {
		return storageError(err, "failed to upsert dataset")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, name string) (*models.Dataset, error) {
	ds, err := pgScanDataset(s.pool.QueryRow(ctx, pgSelectDatasets+` WHERE name = $1`, name))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("dataset", name)
	}
	if err != nil {
		return nil, storageError(err, "failed to read dataset")
	}
	return ds, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Dataset, error) {
	rows, err := s.pool.Query(ctx, pgSelectDatasets+` ORDER BY name`)
	if err != nil {
		return nil, storageError(err, "failed to list datasets")
	}
	defer rows.Close()

	var out []*models.Dataset
	for rows.Next() {
		ds, err := pgScanDataset(rows)
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

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func pgScanDataset(row pgx.Row) (*models.Dataset, error) {
	var (
		ds      models.Dataset
		columns []byte
		rows    int64
	)
	if err := row.Scan(&ds.Name, &columns, &ds.ArtifactKey, &ds.Format, &ds.Compression,
		&ds.Encoding, &rows, &ds.RunID, &ds.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(columns, &ds.Columns); err != nil {
		return nil, err
	}
	ds.Rows = int(rows)
	return &ds, nil
}
