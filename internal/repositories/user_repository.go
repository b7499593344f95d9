package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
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
