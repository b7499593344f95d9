package handlers

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/storage"
)

// UserStore captures the persistence operations required by the user
// handlers and the auth gate.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id, email, username string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.User, error)
	RecordWatch(ctx context.Context, userID, videoID string, watchedAt time.Time) error
	ListWatchHistory(ctx context.Context, userID string, page listing.Page) ([]models.VideoWithOwner, listing.PageInfo, error)
}

// VideoStore captures persistence for the video catalog.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.VideoWithOwner, error)
	List(ctx context.Context, query listing.VideoQuery) ([]models.VideoWithOwner, listing.PageInfo, error)
	UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.VideoWithOwner, error)
	SetPublished(ctx context.Context, id string, published bool) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.CommentWithOwner, error)
	ListForVideo(ctx context.Context, videoID string, page listing.Page) ([]models.CommentWithOwner, listing.PageInfo, error)
	UpdateContent(ctx context.Context, id, content string) (models.CommentWithOwner, error)
	Delete(ctx context.Context, id string) error
}

// TokenService issues, verifies and rotates authentication tokens.
type TokenService interface {
	Rotate(ctx context.Context, user models.User) (models.TokenPair, error)
	Verify(token string, kind auth.TokenKind) (auth.Claims, error)
	Refresh(ctx context.Context, presented string) (models.TokenPair, error)
}

// MediaStore pushes a locally staged file to durable object storage and
// removes the staged copy regardless of outcome.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (storage.Asset, error)
}
