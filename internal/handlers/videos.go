package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/storage"
)

const publishFormLimit = 512 << 20 // video file + thumbnail

// VideoHandler implements the video catalog endpoints.
type VideoHandler struct {
	Videos    VideoStore
	Users     UserStore
	Media     MediaStore
	UploadDir string
	NowFunc   func() time.Time
}

// List handles GET /api/v1/videos: the public, filtered, sorted, paginated
// catalog. A malformed userId filter is ignored, not rejected.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "videos.list")
	defer span.End()

	query := listing.ParseVideoQuery(r.URL.Query())

	videos, pageInfo, err := h.Videos.List(ctx, query)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if videos == nil {
		videos = []models.VideoWithOwner{}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videos":     videos,
		"pagination": pageInfo,
	}, "videos retrieved successfully")
}

// Get handles GET /api/v1/videos/{videoId}. When the optional auth gate
// attached an identity, the view lands in that user's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r, "videoId")
	if !ok {
		respondFail(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if viewer, ok := auth.UserFromContext(ctx); ok {
		if err := h.Users.RecordWatch(ctx, viewer.ID, video.ID, h.now()); err != nil {
			logging.FromContext(ctx).Warn("record watch failed", "userId", viewer.ID, "videoId", video.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, video, "video retrieved successfully")
}

// Publish handles POST /api/v1/videos (multipart videoFile + thumbnail).
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "videos.publish")
	defer span.End()

	logger := logging.FromContext(ctx)

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(publishFormLimit); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondFail(ctx, w, http.StatusBadRequest, "multipart form data is required")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondFail(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	videoFile := formFile(r, "videoFile")
	if videoFile == nil {
		respondFail(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}
	thumbnail := formFile(r, "thumbnail")
	if thumbnail == nil {
		respondFail(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}

	videoAsset, err := h.uploadStaged(r, videoFile)
	if err != nil {
		logger.Error("video upload failed", "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "failed to upload video file")
		return
	}

	thumbAsset, err := h.uploadStaged(r, thumbnail)
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
		return
	}

	// The object store cannot probe media duration; accept the client's
	// value and fall back to zero when absent or unparseable.
	duration := videoAsset.Duration
	if duration == 0 {
		duration, _ = strconv.ParseFloat(r.FormValue("duration"), 64)
	}
	if duration < 0 {
		duration = 0
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      user.ID,
		Title:        title,
		Description:  description,
		Duration:     duration,
		VideoURL:     videoAsset.Location,
		ThumbnailURL: thumbAsset.Location,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	created, err := h.Videos.FindByID(ctx, video.ID)
	if err != nil {
		logger.Error("video missing after creation", "videoId", video.ID, "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "video not found after creation")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, created, "video published successfully")
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Update handles PATCH /api/v1/videos/{videoId}. Accepts a JSON body or a
// multipart form carrying an optional replacement thumbnail.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.loadOwned(w, r, "videoId")
	if !ok {
		return
	}

	var title, description, thumbnailURL string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(publishFormLimit); err != nil {
			respondFail(ctx, w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		title = strings.TrimSpace(r.FormValue("title"))
		description = strings.TrimSpace(r.FormValue("description"))

		if thumbnail := formFile(r, "thumbnail"); thumbnail != nil {
			asset, err := h.uploadStaged(r, thumbnail)
			if err != nil {
				logger.Error("thumbnail upload failed", "error", err)
				respondFail(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
				return
			}
			thumbnailURL = asset.Location
		}
	} else {
		var req updateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondFail(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		title = strings.TrimSpace(req.Title)
		description = strings.TrimSpace(req.Description)
	}

	updated, err := h.Videos.UpdateDetails(ctx, video.ID, title, description, thumbnailURL)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.loadOwned(w, r, "videoId")
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{}, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.loadOwned(w, r, "videoId")
	if !ok {
		return
	}

	if err := h.Videos.SetPublished(ctx, video.ID, !video.IsPublished); err != nil {
		respondError(ctx, w, err)
		return
	}

	video.IsPublished = !video.IsPublished
	respondJSON(ctx, w, http.StatusOK, video, "video publish status updated successfully")
}

// loadOwned validates the path id, loads the video and enforces the
// requester-is-owner invariant shared by every mutation.
func (h VideoHandler) loadOwned(w http.ResponseWriter, r *http.Request, param string) (models.VideoWithOwner, bool) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return models.VideoWithOwner{}, false
	}

	id, ok := pathID(r, param)
	if !ok {
		respondFail(ctx, w, http.StatusBadRequest, "invalid video id")
		return models.VideoWithOwner{}, false
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return models.VideoWithOwner{}, false
	}

	if video.OwnerID != user.ID {
		respondFail(ctx, w, http.StatusForbidden, "you can only modify your own videos")
		return models.VideoWithOwner{}, false
	}

	return video, true
}

func (h VideoHandler) uploadStaged(r *http.Request, header *multipart.FileHeader) (storage.Asset, error) {
	staged, err := storage.StageFormFile(header, h.UploadDir)
	if err != nil {
		return storage.Asset{}, err
	}
	return h.Media.Upload(r.Context(), staged)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// pathID extracts and validates a UUID path parameter.
func pathID(r *http.Request, param string) (string, bool) {
	id, err := uuid.Parse(r.PathValue(param))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
