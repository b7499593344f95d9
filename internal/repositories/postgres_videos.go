package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoWithOwnerColumns = `v.id, v.owner_id, v.title, v.description, v.duration_seconds,
        v.video_url, v.thumbnail_url, v.is_published, v.created_at, v.updated_at,
        u.username, u.full_name, u.avatar_url`

func scanVideoWithOwner(row pgx.Row) (models.VideoWithOwner, error) {
	var v models.VideoWithOwner
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.Duration,
		&v.VideoURL, &v.ThumbnailURL, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoWithOwner{}, ErrNotFound
		}
		return models.VideoWithOwner{}, fmt.Errorf("scan video: %w", err)
	}
	return v, nil
}

func collectVideos(rows pgx.Rows) ([]models.VideoWithOwner, error) {
	var videos []models.VideoWithOwner
	for rows.Next() {
		video, err := scanVideoWithOwner(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, duration_seconds, video_url, thumbnail_url, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.Duration,
		video.VideoURL, video.ThumbnailURL, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches one video with its owner projection.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id)
	return scanVideoWithOwner(row)
}

// List runs the filtered, sorted, paginated catalog query. The predicate
// always restricts to published videos; the free-text needle matches title
// or description case-insensitively; the owner filter applies only when
// present. The total is counted against the identical predicate.
func (r *PostgresVideoRepository) List(ctx context.Context, query listing.VideoQuery) ([]models.VideoWithOwner, listing.PageInfo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, listing.PageInfo{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	where := []string{"v.is_published"}
	var args []any

	if query.Query != "" {
		args = append(args, "%"+query.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", n, n))
	}
	if query.OwnerID != "" {
		args = append(args, query.OwnerID)
		where = append(where, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}

	predicate := strings.Join(where, " AND ")

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v WHERE `+predicate, args...).Scan(&total); err != nil {
		return nil, listing.PageInfo{}, fmt.Errorf("count videos: %w", err)
	}

	listSQL := fmt.Sprintf(`
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE %s
        ORDER BY %s
        OFFSET $%d LIMIT $%d
    `, predicate, query.Sort.OrderBy(), len(args)+1, len(args)+2)
	args = append(args, query.Page.Offset(), query.Page.Limit)

	rows, err := conn.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, listing.PageInfo{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos, err := collectVideos(rows)
	if err != nil {
		return nil, listing.PageInfo{}, err
	}

	return videos, listing.PageInfoFor(query.Page, total), nil
}

// UpdateDetails rewrites mutable video fields, keeping current values for
// empty arguments, and returns the updated row with its owner projection.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = COALESCE(NULLIF($2, ''), title),
            description = COALESCE(NULLIF($3, ''), description),
            thumbnail_url = COALESCE(NULLIF($4, ''), thumbnail_url),
            updated_at = $5
        WHERE id = $1
    `, id, title, description, thumbnailURL, time.Now().UTC())
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.VideoWithOwner{}, ErrNotFound
	}

	row := conn.QueryRow(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id)
	return scanVideoWithOwner(row)
}

// SetPublished flips the publish flag on an existing video.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos SET is_published = $2, updated_at = $3 WHERE id = $1
    `, id, published, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update publish status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video; comments and history rows cascade at the store.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
