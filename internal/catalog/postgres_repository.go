package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoryColumns = `id, title, icon, created_at, updated_at`
	videoColumns    = `id, category_id, title, description, src, thumbnail, size, created_at, updated_at`
)

// PostgresRepository stores the catalog in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

func (r *PostgresRepository) GetCategoryByTitle(ctx context.Context, title string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE title = $1`, title)
	return scanCategory(row)
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (title, icon)
		VALUES ($1, $2)
		ON CONFLICT (title) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, c.Title, c.Icon).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryExists
		}
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories SET title = $1, icon = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, c.Title, c.Icon, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("updating category: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	// Videos go with the category via the FK cascade inside the same
	// transaction.
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetVideo(ctx context.Context, id int64) (*Video, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

func (r *PostgresRepository) GetVideoBySrc(ctx context.Context, src string) (*Video, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE src = $1`, src)
	return scanVideo(row)
}

func (r *PostgresRepository) ListVideos(ctx context.Context, categoryID int64) ([]Video, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE category_id = $1 ORDER BY title ASC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning video: %w", err)
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

func (r *PostgresRepository) CreateVideo(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos (category_id, title, description, src, thumbnail, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (src) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, v.CategoryID, v.Title, v.Description, v.Src, v.Thumbnail, v.Size).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVideoExists
		}
		return fmt.Errorf("creating video: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateVideo(ctx context.Context, v *Video) error {
	query := `
		UPDATE videos SET category_id = $1, title = $2, description = $3, src = $4, thumbnail = $5, size = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, v.CategoryID, v.Title, v.Description, v.Src, v.Thumbnail, v.Size, v.ID).
		Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("updating video: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteVideo(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Title, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanVideo(row pgx.Row) (*Video, error) {
	var v Video
	err := row.Scan(&v.ID, &v.CategoryID, &v.Title, &v.Description, &v.Src, &v.Thumbnail, &v.Size, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return &v, nil
}
