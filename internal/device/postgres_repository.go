package device

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deviceColumns = `
	id, name, secret_hash, active, connected, version_id, primary_user,
	payment_ref, valid_until, last_seen, last_lat, last_lon, last_ip,
	last_city, last_country, current_wifi, used_space, total_space,
	created_at, updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL device repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a device by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`
	return r.scanDevice(ctx, query, id)
}

// GetByName retrieves a device by its unique name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE name = $1`
	return r.scanDevice(ctx, query, name)
}

// GetByCredentials retrieves the device matching a name and secret hash pair.
func (r *PostgresRepository) GetByCredentials(ctx context.Context, name, secretHash string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE name = $1 AND secret_hash = $2`
	return r.scanDevice(ctx, query, name, secretHash)
}

func (r *PostgresRepository) scanDevice(ctx context.Context, query string, args ...any) (*Device, error) {
	var d Device
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&d.ID,
		&d.Name,
		&d.SecretHash,
		&d.Active,
		&d.Connected,
		&d.VersionID,
		&d.PrimaryUser,
		&d.PaymentRef,
		&d.ValidUntil,
		&d.LastSeen,
		&d.LastLat,
		&d.LastLon,
		&d.LastIP,
		&d.LastCity,
		&d.LastCountry,
		&d.CurrentWifi,
		&d.UsedSpace,
		&d.TotalSpace,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List retrieves all devices ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var d Device
		err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.SecretHash,
			&d.Active,
			&d.Connected,
			&d.VersionID,
			&d.PrimaryUser,
			&d.PaymentRef,
			&d.ValidUntil,
			&d.LastSeen,
			&d.LastLat,
			&d.LastLon,
			&d.LastIP,
			&d.LastCity,
			&d.LastCountry,
			&d.CurrentWifi,
			&d.UsedSpace,
			&d.TotalSpace,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		devices = append(devices, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

// Create creates a new device and fills in its ID.
func (r *PostgresRepository) Create(ctx context.Context, device *Device) error {
	query := `
		INSERT INTO devices (name, secret_hash, active, version_id, primary_user, payment_ref, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		device.Name,
		device.SecretHash,
		device.Active,
		device.VersionID,
		device.PrimaryUser,
		device.PaymentRef,
		device.ValidUntil,
	).Scan(&device.ID, &device.CreatedAt, &device.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDeviceExists
		}
		return err
	}
	return nil
}

// Update updates a device's operator-editable fields.
func (r *PostgresRepository) Update(ctx context.Context, device *Device) error {
	query := `
		UPDATE devices SET
			name = $2,
			secret_hash = $3,
			active = $4,
			primary_user = $5,
			payment_ref = $6,
			valid_until = $7,
			updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		device.ID,
		device.Name,
		device.SecretHash,
		device.Active,
		device.PrimaryUser,
		device.PaymentRef,
		device.ValidUntil,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device in one transaction. Usage events and user
// associations go with it through their ON DELETE CASCADE constraints, so a
// partial delete cannot be observed.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return tx.Commit(ctx)
}

// ReplaceUsers replaces the set of users associated with a device.
func (r *PostgresRepository) ReplaceUsers(ctx context.Context, deviceID int64, userIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM device_users WHERE device_id = $1`, deviceID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO device_users (device_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			deviceID, userID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateMetadata bulk-updates a device's self-reported telemetry fields.
func (r *PostgresRepository) UpdateMetadata(ctx context.Context, deviceID int64, meta Metadata, versionID *int64) error {
	query := `
		UPDATE devices SET
			last_seen = $2,
			last_lat = $3,
			last_lon = $4,
			last_ip = $5,
			last_city = $6,
			last_country = $7,
			current_wifi = $8,
			used_space = $9,
			total_space = $10,
			version_id = COALESCE($11, version_id),
			updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		deviceID,
		meta.LastSeen,
		meta.Lat,
		meta.Lon,
		meta.IP,
		meta.City,
		meta.Country,
		meta.Wifi,
		meta.UsedSpace,
		meta.TotalSpace,
		versionID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// SweepConnectivity runs the two-phase bulk connectivity update. Each phase
// is a single statement, so the round-trip count stays constant regardless
// of fleet size.
func (r *PostgresRepository) SweepConnectivity(ctx context.Context, now time.Time, threshold time.Duration) (SweepResult, error) {
	cutoff := now.Add(-threshold)
	var result SweepResult

	up, err := r.pool.Exec(ctx,
		`UPDATE devices SET connected = true WHERE last_seen >= $1 AND connected = false`, cutoff)
	if err != nil {
		return result, err
	}
	result.Connected = up.RowsAffected()

	down, err := r.pool.Exec(ctx,
		`UPDATE devices SET connected = false WHERE (last_seen < $1 OR last_seen IS NULL) AND connected = true`, cutoff)
	if err != nil {
		return result, err
	}
	result.Disconnected = down.RowsAffected()

	return result, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
