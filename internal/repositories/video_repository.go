package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/models"
)

// VideoRepository exposes data access for videos. Read paths always carry
// the denormalized owner projection.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.VideoWithOwner, error)
	List(ctx context.Context, query listing.VideoQuery) ([]models.VideoWithOwner, listing.PageInfo, error)
	// UpdateDetails rewrites title, description and thumbnail; an empty
	// argument keeps the current value.
	UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.VideoWithOwner, error)
	SetPublished(ctx context.Context, id string, published bool) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository exposes data access for comments on videos.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.CommentWithOwner, error)
	ListForVideo(ctx context.Context, videoID string, page listing.Page) ([]models.CommentWithOwner, listing.PageInfo, error)
	UpdateContent(ctx context.Context, id, content string) (models.CommentWithOwner, error)
	Delete(ctx context.Context, id string) error
}
