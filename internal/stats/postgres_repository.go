package stats

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository runs aggregate queries against PostgreSQL. All filters,
// the time window included, are bound parameters.
type PostgresRepository struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresRepository) Totals(ctx context.Context, from, to time.Time) (Totals, error) {
	// SUM skips NULL durations on its own; open sessions still count toward
	// active days.
	q := r.builder.
		Select(
			"COALESCE(SUM(duration), 0)",
			"COUNT(DISTINCT started_at::date)",
		).
		From("usage_events").
		Where(sq.GtOrEq{"started_at": from}).
		Where(sq.Lt{"started_at": to})

	query, args, err := q.ToSql()
	if err != nil {
		return Totals{}, fmt.Errorf("building totals query: %w", err)
	}

	var t Totals
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&t.TotalSeconds, &t.ActiveDays); err != nil {
		return Totals{}, fmt.Errorf("querying totals: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) TopVideos(ctx context.Context, from, to time.Time, limit uint64) ([]VideoPlays, error) {
	query, args, err := r.topVideosBase(from, to).
		GroupBy("e.video_id", "v.title", "v.thumbnail").
		OrderBy("plays DESC", "e.video_id ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building top videos query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top videos: %w", err)
	}
	defer rows.Close()

	var out []VideoPlays
	for rows.Next() {
		var v VideoPlays
		if err := rows.Scan(&v.VideoID, &v.Title, &v.Thumbnail, &v.Plays); err != nil {
			return nil, fmt.Errorf("scanning top video: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CategoryPlays(ctx context.Context, from, to time.Time) ([]CategoryRow, error) {
	query, args, err := r.categoryPlaysBase(from, to).
		GroupBy("e.category_id", "c.title", "c.icon").
		OrderBy("plays DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building category plays query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying category plays: %w", err)
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.CategoryID, &c.Title, &c.Icon, &c.Plays); err != nil {
			return nil, fmt.Errorf("scanning category plays: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeviceTotals(ctx context.Context, from, to time.Time) ([]DeviceTotals, error) {
	q := r.builder.
		Select(
			"device_id",
			"COALESCE(SUM(duration), 0)",
			"COUNT(DISTINCT started_at::date)",
		).
		From("usage_events").
		Where(sq.GtOrEq{"started_at": from}).
		Where(sq.Lt{"started_at": to}).
		GroupBy("device_id").
		OrderBy("device_id ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building device totals query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying device totals: %w", err)
	}
	defer rows.Close()

	var out []DeviceTotals
	for rows.Next() {
		var t DeviceTotals
		if err := rows.Scan(&t.DeviceID, &t.TotalSeconds, &t.ActiveDays); err != nil {
			return nil, fmt.Errorf("scanning device totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeviceTopVideos(ctx context.Context, from, to time.Time, limit uint64) ([]DeviceVideoPlays, error) {
	ranked := r.topVideosBase(from, to).
		Column("e.device_id").
		Column("ROW_NUMBER() OVER (PARTITION BY e.device_id ORDER BY COUNT(*) DESC, e.video_id ASC) AS rn").
		GroupBy("e.device_id", "e.video_id", "v.title", "v.thumbnail")

	q := r.builder.
		Select("device_id", "video_id", "title", "thumbnail", "plays").
		FromSelect(ranked, "ranked").
		Where(sq.LtOrEq{"rn": limit}).
		OrderBy("device_id ASC", "rn ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building device top videos query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying device top videos: %w", err)
	}
	defer rows.Close()

	var out []DeviceVideoPlays
	for rows.Next() {
		var v DeviceVideoPlays
		if err := rows.Scan(&v.DeviceID, &v.VideoID, &v.Title, &v.Thumbnail, &v.Plays); err != nil {
			return nil, fmt.Errorf("scanning device top video: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeviceCategoryPlays(ctx context.Context, from, to time.Time) ([]DeviceCategoryRow, error) {
	query, args, err := r.categoryPlaysBase(from, to).
		Column("e.device_id").
		GroupBy("e.device_id", "e.category_id", "c.title", "c.icon").
		OrderBy("e.device_id ASC", "plays DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building device category plays query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying device category plays: %w", err)
	}
	defer rows.Close()

	var out []DeviceCategoryRow
	for rows.Next() {
		var c DeviceCategoryRow
		if err := rows.Scan(&c.CategoryID, &c.Title, &c.Icon, &c.Plays, &c.DeviceID); err != nil {
			return nil, fmt.Errorf("scanning device category plays: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// topVideosBase ranks catalog videos by play count. Videos deleted from the
// catalog still rank (LEFT JOIN); device-local playback (the reserved
// category 0) never counts.
func (r *PostgresRepository) topVideosBase(from, to time.Time) sq.SelectBuilder {
	return r.builder.
		Select("e.video_id", "v.title", "v.thumbnail", "COUNT(*) AS plays").
		From("usage_events e").
		LeftJoin("videos v ON v.id = e.video_id").
		Where(sq.NotEq{"e.video_id": nil}).
		Where(sq.GtOrEq{"e.started_at": from}).
		Where(sq.Lt{"e.started_at": to}).
		Where(sq.Or{sq.NotEq{"e.category_id": 0}, sq.Eq{"e.category_id": nil}})
}

func (r *PostgresRepository) categoryPlaysBase(from, to time.Time) sq.SelectBuilder {
	return r.builder.
		Select("e.category_id", "c.title", "c.icon", "COUNT(*) AS plays").
		From("usage_events e").
		LeftJoin("categories c ON c.id = e.category_id").
		Where(sq.GtOrEq{"e.started_at": from}).
		Where(sq.Lt{"e.started_at": to})
}