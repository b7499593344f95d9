package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/listing"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// fakeUserStore is an in-memory UserStore keyed by user id.
type fakeUserStore struct {
	users   map[string]models.User
	watched map[string][]string

	failWith error
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	store := &fakeUserStore{
		users:   make(map[string]models.User),
		watched: make(map[string][]string),
	}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	if s.failWith != nil {
		return s.failWith
	}
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	if s.failWith != nil {
		return models.User{}, s.failWith
	}
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	if s.failWith != nil {
		return models.User{}, s.failWith
	}
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateAccount(_ context.Context, id, email, username string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if (email != "" && other.Email == email) || (username != "" && other.Username == username) {
			return models.User{}, repositories.ErrConflict
		}
	}
	if email != "" {
		user.Email = email
	}
	if username != "" {
		user.Username = username
	}
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateRefreshToken(_ context.Context, id string, token *string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if token == nil {
		user.RefreshToken = ""
	} else {
		user.RefreshToken = *token
	}
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, id, avatarURL string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = avatarURL
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, id, coverImageURL string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL = coverImageURL
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) RecordWatch(_ context.Context, userID, videoID string, _ time.Time) error {
	s.watched[userID] = append(s.watched[userID], videoID)
	return nil
}

func (s *fakeUserStore) ListWatchHistory(_ context.Context, userID string, page listing.Page) ([]models.VideoWithOwner, listing.PageInfo, error) {
	ids := s.watched[userID]
	videos := make([]models.VideoWithOwner, 0, len(ids))
	for _, id := range ids {
		videos = append(videos, models.VideoWithOwner{Video: models.Video{ID: id}})
	}
	return videos, listing.PageInfoFor(page, len(videos)), nil
}

// fakeVideoStore is an in-memory VideoStore with just enough listing
// behavior for the handler paths under test.
type fakeVideoStore struct {
	videos map[string]models.VideoWithOwner

	failWith error
}

func newFakeVideoStore(videos ...models.VideoWithOwner) *fakeVideoStore {
	store := &fakeVideoStore{videos: make(map[string]models.VideoWithOwner)}
	for _, v := range videos {
		store.videos[v.ID] = v
	}
	return store
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.videos[video.ID] = models.VideoWithOwner{Video: video}
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.VideoWithOwner, error) {
	if s.failWith != nil {
		return models.VideoWithOwner{}, s.failWith
	}
	video, ok := s.videos[id]
	if !ok {
		return models.VideoWithOwner{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) List(_ context.Context, query listing.VideoQuery) ([]models.VideoWithOwner, listing.PageInfo, error) {
	if s.failWith != nil {
		return nil, listing.PageInfo{}, s.failWith
	}
	var matched []models.VideoWithOwner
	for _, video := range s.videos {
		if !video.IsPublished {
			continue
		}
		if query.OwnerID != "" && video.OwnerID != query.OwnerID {
			continue
		}
		matched = append(matched, video)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, listing.PageInfoFor(query.Page, len(matched)), nil
}

func (s *fakeVideoStore) UpdateDetails(_ context.Context, id, title, description, thumbnailURL string) (models.VideoWithOwner, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.VideoWithOwner{}, repositories.ErrNotFound
	}
	if title != "" {
		video.Title = title
	}
	if description != "" {
		video.Description = description
	}
	if thumbnailURL != "" {
		video.ThumbnailURL = thumbnailURL
	}
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) SetPublished(_ context.Context, id string, published bool) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.IsPublished = published
	s.videos[id] = video
	return nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

// fakeCommentStore is an in-memory CommentStore.
type fakeCommentStore struct {
	comments map[string]models.CommentWithOwner

	failWith error
}

func newFakeCommentStore(comments ...models.CommentWithOwner) *fakeCommentStore {
	store := &fakeCommentStore{comments: make(map[string]models.CommentWithOwner)}
	for _, c := range comments {
		store.comments[c.ID] = c
	}
	return store
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.comments[comment.ID] = models.CommentWithOwner{Comment: comment}
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.CommentWithOwner, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.CommentWithOwner{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) ListForVideo(_ context.Context, videoID string, page listing.Page) ([]models.CommentWithOwner, listing.PageInfo, error) {
	var matched []models.CommentWithOwner
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			matched = append(matched, comment)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, listing.PageInfoFor(page, len(matched)), nil
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id, content string) (models.CommentWithOwner, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.CommentWithOwner{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// fakeMediaStore records uploads without touching any object store.
type fakeMediaStore struct {
	uploads  []string
	failWith error
}

func (s *fakeMediaStore) Upload(_ context.Context, localPath string) (storage.Asset, error) {
	if s.failWith != nil {
		return storage.Asset{}, s.failWith
	}
	s.uploads = append(s.uploads, localPath)
	return storage.Asset{Location: "https://cdn.test/" + filepath.Base(localPath)}, nil
}

// allowAll satisfies RateLimiter and never rejects.
type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

// denyAll satisfies RateLimiter and always rejects.
type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type testEnv struct {
	mux      *http.ServeMux
	users    *fakeUserStore
	videos   *fakeVideoStore
	comments *fakeCommentStore
	media    *fakeMediaStore
	tokens   *auth.TokenService
}

func newTestEnv(t *testing.T, seedUsers ...models.User) *testEnv {
	t.Helper()

	users := newFakeUserStore(seedUsers...)

	tokens, err := auth.NewTokenService(config.TokenConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}, users)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	env := &testEnv{
		mux:      http.NewServeMux(),
		users:    users,
		videos:   newFakeVideoStore(),
		comments: newFakeCommentStore(),
		media:    &fakeMediaStore{},
		tokens:   tokens,
	}

	RegisterRoutes(env.mux, Dependencies{
		Users:        env.users,
		Videos:       env.videos,
		Comments:     env.comments,
		Tokens:       tokens,
		Media:        env.media,
		LoginLimiter: allowAll{},
		UploadDir:    t.TempDir(),
	})

	return env
}

// do dispatches the request through the router and returns the recorder.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// authedRequest builds a request with a valid access token for the user.
func (e *testEnv) authedRequest(t *testing.T, method, target string, body io.Reader, user models.User) *http.Request {
	t.Helper()

	access, err := e.tokens.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+access)
	return req
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

// multipartBody assembles a multipart form with string fields and named
// file parts carrying small fixed contents.
func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			t.Fatalf("write field %s: %v", field, err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create file part %s: %v", field, err)
		}
		if _, err := part.Write([]byte("test file contents")); err != nil {
			t.Fatalf("write file part %s: %v", field, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hashed)
}

func seedUser(t *testing.T, id, username string) models.User {
	t.Helper()

	return models.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		PasswordHash: hashPassword(t, "password123"),
		AvatarURL:    "https://cdn.test/" + username + ".png",
	}
}
