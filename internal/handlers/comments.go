package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// CommentHandler implements the per-video comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	NowFunc  func() time.Time
}

// ListForVideo handles GET /api/v1/videos/{videoId}/comments.
func (h CommentHandler) ListForVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, ok := pathID(r, "videoId")
	if !ok {
		respondFail(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	page := listing.ParsePage(r.URL.Query())

	comments, pageInfo, err := h.Comments.ListForVideo(ctx, videoID, page)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comments == nil {
		comments = []models.CommentWithOwner{}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"comments":   comments,
		"pagination": pageInfo,
	}, "comments retrieved successfully")
}

type commentRequest struct {
	Content string `json:"content"`
}

// Add handles POST /api/v1/videos/{videoId}/comments.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "comments.add")
	defer span.End()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	videoID, ok := pathID(r, "videoId")
	if !ok {
		respondFail(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondFail(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   user.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	created, err := h.Comments.FindByID(ctx, comment.ID)
	if err != nil {
		logging.FromContext(ctx).Error("comment missing after creation", "commentId", comment.ID, "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "comment not found after creation")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, created, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondFail(ctx, w, http.StatusBadRequest, "comment content is required")
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, comment.ID, content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{}, "comment deleted successfully")
}

func (h CommentHandler) loadOwned(w http.ResponseWriter, r *http.Request) (models.CommentWithOwner, bool) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return models.CommentWithOwner{}, false
	}

	id, ok := pathID(r, "commentId")
	if !ok {
		respondFail(ctx, w, http.StatusBadRequest, "invalid comment id")
		return models.CommentWithOwner{}, false
	}

	comment, err := h.Comments.FindByID(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return models.CommentWithOwner{}, false
	}

	if comment.OwnerID != user.ID {
		respondFail(ctx, w, http.StatusForbidden, "you can only modify your own comments")
		return models.CommentWithOwner{}, false
	}

	return comment, true
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
