package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

const registerFormLimit = 32 << 20 // avatar + cover image

// UserHandler implements registration, authentication and profile endpoints.
type UserHandler struct {
	Users     UserStore
	Tokens    TokenService
	Media     MediaStore
	Limiter   RateLimiter
	UploadDir string
	NowFunc   func() time.Time
}

// Register handles POST /api/v1/users/register (multipart).
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "users.register")
	defer span.End()

	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondFail(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if err := r.ParseMultipartForm(registerFormLimit); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondFail(ctx, w, http.StatusBadRequest, "multipart form data is required")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullname"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	password := r.FormValue("password")

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(password) == "" {
		respondFail(ctx, w, http.StatusBadRequest, "fullname, email, username and password are required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		respondFail(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(password) < 8 {
		respondFail(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		respondFail(ctx, w, http.StatusConflict, "user already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, err)
		return
	}

	avatar := formFile(r, "avatar")
	if avatar == nil {
		respondFail(ctx, w, http.StatusBadRequest, "avatar is required")
		return
	}

	avatarAsset, err := h.uploadStaged(r, avatar)
	if err != nil {
		logger.Error("avatar upload failed", "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "failed to upload avatar")
		return
	}

	var coverImageURL string
	if cover := formFile(r, "coverImage"); cover != nil {
		coverAsset, err := h.uploadStaged(r, cover)
		if err != nil {
			logger.Error("cover image upload failed", "error", err)
			respondFail(ctx, w, http.StatusInternalServerError, "failed to upload cover image")
			return
		}
		coverImageURL = coverAsset.Location
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  string(hashed),
		AvatarURL:     avatarAsset.Location,
		CoverImageURL: coverImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondFail(ctx, w, http.StatusConflict, "user already exists")
			return
		}
		respondError(ctx, w, err)
		return
	}

	created, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("user missing after creation", "userId", user.ID, "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "user not found after creation")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, created.Sanitize(), "user registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondFail(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondFail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" && req.Email == "" {
		respondFail(ctx, w, http.StatusBadRequest, "username or email is required")
		return
	}
	if req.Password == "" {
		respondFail(ctx, w, http.StatusBadRequest, "password is required")
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondFail(ctx, w, http.StatusNotFound, "user not found")
			return
		}
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondFail(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Tokens.Rotate(ctx, user)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setTokenCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"user":         user.Sanitize(),
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout. Clearing the stored refresh
// slot revokes the outstanding refresh token.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Users.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearTokenCookies(w)
	respondJSON(ctx, w, http.StatusOK, map[string]any{}, "user logged out successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles POST /api/v1/users/refresh-token. The presented
// token comes from the refreshToken cookie or the request body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}

	if presented == "" {
		respondFail(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Tokens.Refresh(ctx, presented)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setTokenCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, tokens, "access token refreshed successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondFail(ctx, w, http.StatusBadRequest, "old password and new password are required")
		return
	}

	if len(req.NewPassword) < 8 {
		respondFail(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	// The context identity is sanitized; reload for the stored hash.
	stored, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(req.OldPassword)); err != nil {
		respondFail(ctx, w, http.StatusUnauthorized, "old password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logging.FromContext(ctx).Error("change password failed to hash", "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{}, "password changed successfully")
}

// Current handles GET /api/v1/users/current.
func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondJSON(ctx, w, http.StatusOK, user, "user fetched successfully")
}

type updateAccountRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))

	if req.Email == "" && req.Username == "" {
		respondFail(ctx, w, http.StatusBadRequest, "email or username is required")
		return
	}

	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondFail(ctx, w, http.StatusBadRequest, "invalid email address")
			return
		}
	}

	updated, err := h.Users.UpdateAccount(ctx, user.ID, req.Email, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondFail(ctx, w, http.StatusConflict, "username or email already taken")
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated.Sanitize(), "account updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (multipart).
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image (multipart).
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Users.UpdateCoverImage)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update func(ctx context.Context, id, url string) (models.User, error)) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(registerFormLimit); err != nil {
		respondFail(ctx, w, http.StatusBadRequest, "multipart form data is required")
		return
	}

	file := formFile(r, field)
	if file == nil {
		respondFail(ctx, w, http.StatusBadRequest, field+" is required")
		return
	}

	asset, err := h.uploadStaged(r, file)
	if err != nil {
		logger.Error("image upload failed", "field", field, "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "failed to upload "+field)
		return
	}

	updated, err := update(ctx, user.ID, asset.Location)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated.Sanitize(), field+" updated successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page := listing.ParsePage(r.URL.Query())

	videos, pageInfo, err := h.Users.ListWatchHistory(ctx, user.ID, page)
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
	}, "watch history retrieved successfully")
}

func (h UserHandler) uploadStaged(r *http.Request, header *multipart.FileHeader) (storage.Asset, error) {
	staged, err := storage.StageFormFile(header, h.UploadDir)
	if err != nil {
		return storage.Asset{}, err
	}
	return h.Media.Upload(r.Context(), staged)
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// formFile returns the first uploaded file for the named field, or nil.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func setTokenCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
