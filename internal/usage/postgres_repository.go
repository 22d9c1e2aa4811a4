package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, device_id, video_id, category_id, started_at, duration, connected, city, country, ip, created_at`

// PostgresRepository stores playback sessions in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, ev *Event) error {
	query := `
		INSERT INTO usage_events (device_id, video_id, category_id, started_at, duration, connected, city, country, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		ev.DeviceID, ev.VideoID, ev.CategoryID, ev.StartedAt, ev.Duration,
		ev.Connected, ev.City, ev.Country, ev.IP,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting usage event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CloseLatest(ctx context.Context, deviceID int64, videoID, categoryID *int64, duration int64) (*Event, error) {
	// Repeated stop reports for the same session overwrite the duration;
	// the last report wins.
	query := `
		UPDATE usage_events SET duration = $1
		WHERE id = (
			SELECT id FROM usage_events
			WHERE device_id = $2
			  AND video_id IS NOT DISTINCT FROM $3
			  AND category_id IS NOT DISTINCT FROM $4
			ORDER BY started_at DESC
			LIMIT 1
		)
		RETURNING ` + eventColumns

	row := r.pool.QueryRow(ctx, query, duration, deviceID, videoID, categoryID)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("closing usage event: %w", err)
	}
	return ev, nil
}

func (r *PostgresRepository) ListByDevice(ctx context.Context, deviceID int64, from, to time.Time) ([]Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM usage_events
		WHERE device_id = $1 AND started_at >= $2 AND started_at < $3
		ORDER BY started_at DESC`

	rows, err := r.pool.Query(ctx, query, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing usage events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning usage event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	err := row.Scan(
		&ev.ID, &ev.DeviceID, &ev.VideoID, &ev.CategoryID, &ev.StartedAt,
		&ev.Duration, &ev.Connected, &ev.City, &ev.Country, &ev.IP, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
