package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const versionColumns = `id, device_model, android, android_url, ios, ios_url, notes, created_at`

// PostgresRepository stores firmware versions in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Version, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+versionColumns+` FROM versions WHERE id = $1`, id)
	return scanVersion(row)
}

func (r *PostgresRepository) GetByModel(ctx context.Context, deviceModel string) (*Version, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+versionColumns+` FROM versions WHERE device_model = $1`, deviceModel)
	return scanVersion(row)
}

func (r *PostgresRepository) List(ctx context.Context) ([]Version, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+versionColumns+` FROM versions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, v *Version) error {
	query := `
		INSERT INTO versions (device_model, android, android_url, ios, ios_url, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (device_model) DO NOTHING
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, v.DeviceModel, v.Android, v.AndroidURL, v.IOS, v.IOSURL, v.Notes).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionExists
		}
		return fmt.Errorf("creating version: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM versions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return nil
}

func scanVersion(row pgx.Row) (*Version, error) {
	var v Version
	err := row.Scan(&v.ID, &v.DeviceModel, &v.Android, &v.AndroidURL, &v.IOS, &v.IOSURL, &v.Notes, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}
	return &v, nil
}
