package models

import "time"

// User represents an account within the VidTube platform. PasswordHash and
// RefreshToken never leave the service; call Sanitize before serializing.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	PasswordHash  string    `json:"-"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Sanitize returns a copy safe to embed in API responses.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}

// Owner is the denormalized projection of a user attached to videos and
// comments. It intentionally carries nothing but public profile fields.
type Owner struct {
	Username  string `json:"username"`
	FullName  string `json:"fullname"`
	AvatarURL string `json:"avatar"`
}

// Video is a published piece of content owned by exactly one user.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VideoWithOwner pairs a video with its owner projection for read paths.
type VideoWithOwner struct {
	Video
	Owner Owner `json:"owner"`
}

// Comment is a user remark attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentWithOwner pairs a comment with its owner projection.
type CommentWithOwner struct {
	Comment
	Owner Owner `json:"owner"`
}

// Like links a user to either a video or a comment. The schema defines the
// association only; no handler exercises it yet.
type Like struct {
	ID        string    `json:"id"`
	VideoID   *string   `json:"videoId,omitempty"`
	CommentID *string   `json:"commentId,omitempty"`
	LikedBy   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
