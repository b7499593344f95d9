package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

const commentWithOwnerColumns = `c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
        u.username, u.full_name, u.avatar_url`

func scanCommentWithOwner(row pgx.Row) (models.CommentWithOwner, error) {
	var c models.CommentWithOwner
	err := row.Scan(
		&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&c.Owner.Username, &c.Owner.FullName, &c.Owner.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CommentWithOwner{}, ErrNotFound
		}
		return models.CommentWithOwner{}, fmt.Errorf("scan comment: %w", err)
	}
	return c, nil
}

// Create stores a new comment. A missing video or owner surfaces as
// ErrNotFound via the foreign key.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
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
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches one comment with its owner projection.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.CommentWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.CommentWithOwner{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+commentWithOwnerColumns+`
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.id = $1
    `, id)
	return scanCommentWithOwner(row)
}

// ListForVideo returns the comments on a video, newest first. The sort is
// fixed; only the page window varies.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string, page listing.Page) ([]models.CommentWithOwner, listing.PageInfo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, listing.PageInfo{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM comments WHERE video_id = $1
    `, videoID).Scan(&total); err != nil {
		return nil, listing.PageInfo{}, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+commentWithOwnerColumns+`
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        OFFSET $2 LIMIT $3
    `, videoID, page.Offset(), page.Limit)
	if err != nil {
		return nil, listing.PageInfo{}, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.CommentWithOwner
	for rows.Next() {
		comment, err := scanCommentWithOwner(rows)
		if err != nil {
			return nil, listing.PageInfo{}, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, listing.PageInfo{}, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, listing.PageInfoFor(page, total), nil
}

// UpdateContent replaces the comment body and returns the updated row.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.CommentWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.CommentWithOwner{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1
    `, id, content, time.Now().UTC())
	if err != nil {
		return models.CommentWithOwner{}, fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.CommentWithOwner{}, ErrNotFound
	}

	row := conn.QueryRow(ctx, `
        SELECT `+commentWithOwnerColumns+`
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.id = $1
    `, id)
	return scanCommentWithOwner(row)
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
