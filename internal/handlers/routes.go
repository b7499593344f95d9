package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Videos       VideoStore
	Comments     CommentStore
	Tokens       TokenService
	Media        MediaStore
	LoginLimiter RateLimiter
	UploadDir    string
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	gate := authGate{tokens: deps.Tokens, users: deps.Users}

	health := HealthHandler{}
	users := UserHandler{
		Users:     deps.Users,
		Tokens:    deps.Tokens,
		Media:     deps.Media,
		Limiter:   deps.LoginLimiter,
		UploadDir: deps.UploadDir,
	}
	videos := VideoHandler{
		Videos:    deps.Videos,
		Users:     deps.Users,
		Media:     deps.Media,
		UploadDir: deps.UploadDir,
	}
	comments := CommentHandler{Comments: deps.Comments}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.RefreshToken)
	mux.HandleFunc("POST /api/v1/users/logout", gate.require(users.Logout))
	mux.HandleFunc("POST /api/v1/users/change-password", gate.require(users.ChangePassword))
	mux.HandleFunc("GET /api/v1/users/current", gate.require(users.Current))
	mux.HandleFunc("PATCH /api/v1/users/update-account", gate.require(users.UpdateAccount))
	mux.HandleFunc("PATCH /api/v1/users/avatar", gate.require(users.UpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/cover-image", gate.require(users.UpdateCoverImage))
	mux.HandleFunc("GET /api/v1/users/history", gate.require(users.WatchHistory))

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("POST /api/v1/videos", gate.require(videos.Publish))
	mux.HandleFunc("GET /api/v1/videos/{videoId}", gate.optional(videos.Get))
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", gate.require(videos.Update))
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", gate.require(videos.Delete))
	mux.HandleFunc("PATCH /api/v1/videos/toggle/publish/{videoId}", gate.require(videos.TogglePublish))

	mux.HandleFunc("GET /api/v1/videos/{videoId}/comments", gate.require(comments.ListForVideo))
	mux.HandleFunc("POST /api/v1/videos/{videoId}/comments", gate.require(comments.Add))
	mux.HandleFunc("PATCH /api/v1/comments/{commentId}", gate.require(comments.Update))
	mux.HandleFunc("DELETE /api/v1/comments/{commentId}", gate.require(comments.Delete))
}
