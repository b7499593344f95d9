package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)

	tokens, err := auth.NewTokenService(cfg.Tokens, users)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("build token service: %w", err)
	}

	media, err := storage.NewS3Store(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("build media store: %w", err)
	}

	return handlers.Dependencies{
		Users:        users,
		Videos:       repositories.NewPostgresVideoRepository(pool),
		Comments:     repositories.NewPostgresCommentRepository(pool),
		Tokens:       tokens,
		Media:        media,
		LoginLimiter: middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		UploadDir:    cfg.UploadDir,
	}, nil
}
