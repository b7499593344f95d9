package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const commentOneID = "dddddddd-dddd-dddd-dddd-dddddddddddd"

func seedComment(id, videoID, ownerID string) models.CommentWithOwner {
	return models.CommentWithOwner{
		Comment: models.Comment{
			ID:      id,
			VideoID: videoID,
			OwnerID: ownerID,
			Content: "seed comment",
		},
	}
}

func TestListComments(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)
	env.comments.comments[commentOneID] = seedComment(commentOneID, videoOneID, bobID)

	req := env.authedRequest(t, http.MethodGet, "/api/v1/videos/"+videoOneID+"/comments", nil, user)
	rec := env.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	var payload struct {
		Comments   []models.CommentWithOwner `json:"comments"`
		Pagination map[string]any            `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("decode comments payload: %v", err)
	}
	if len(payload.Comments) != 1 || payload.Comments[0].ID != commentOneID {
		t.Errorf("comments = %+v", payload.Comments)
	}
}

func TestListCommentsEmptyIsList(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)

	req := env.authedRequest(t, http.MethodGet, "/api/v1/videos/"+videoOneID+"/comments", nil, user)
	rec := env.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"comments":[]`) {
		t.Errorf("empty listing should serialize as [], body %s", rec.Body.String())
	}
}

func TestListCommentsInvalidVideoID(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)

	req := env.authedRequest(t, http.MethodGet, "/api/v1/videos/not-a-uuid/comments", nil, user)
	if rec := env.do(req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAddComment(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)

	req := env.authedRequest(t, http.MethodPost, "/api/v1/videos/"+videoOneID+"/comments",
		strings.NewReader(`{"content":"  great video  "}`), user)
	rec := env.do(req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	var created models.CommentWithOwner
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("decode comment: %v", err)
	}
	if created.Content != "great video" {
		t.Errorf("content = %q, want trimmed", created.Content)
	}
	if created.VideoID != videoOneID || created.OwnerID != aliceID {
		t.Errorf("unexpected comment: %+v", created)
	}
}

func TestAddCommentValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty content", `{"content":"   "}`},
		{"missing content", `{}`},
		{"malformed body", `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := seedUser(t, aliceID, "alice")
			env := newTestEnv(t, user)

			req := env.authedRequest(t, http.MethodPost, "/api/v1/videos/"+videoOneID+"/comments",
				strings.NewReader(tc.body), user)
			if rec := env.do(req); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAddCommentMissingVideo(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)
	env.comments.failWith = repositories.ErrNotFound

	req := env.authedRequest(t, http.MethodPost, "/api/v1/videos/"+videoOneID+"/comments",
		strings.NewReader(`{"content":"orphan"}`), user)

	if rec := env.do(req); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestUpdateComment(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)
	env.comments.comments[commentOneID] = seedComment(commentOneID, videoOneID, aliceID)

	req := env.authedRequest(t, http.MethodPatch, "/api/v1/comments/"+commentOneID,
		strings.NewReader(`{"content":"revised"}`), user)
	rec := env.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := env.comments.comments[commentOneID].Content; got != "revised" {
		t.Errorf("content = %q", got)
	}
}

func TestUpdateCommentNotOwner(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)
	env.comments.comments[commentOneID] = seedComment(commentOneID, videoOneID, bobID)

	req := env.authedRequest(t, http.MethodPatch, "/api/v1/comments/"+commentOneID,
		strings.NewReader(`{"content":"hijack"}`), user)

	if rec := env.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestUpdateCommentNotFound(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)

	req := env.authedRequest(t, http.MethodPatch, "/api/v1/comments/"+commentOneID,
		strings.NewReader(`{"content":"ghost"}`), user)

	if rec := env.do(req); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteComment(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)
	env.comments.comments[commentOneID] = seedComment(commentOneID, videoOneID, aliceID)

	req := env.authedRequest(t, http.MethodDelete, "/api/v1/comments/"+commentOneID, nil, user)
	rec := env.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, ok := env.comments.comments[commentOneID]; ok {
		t.Error("comment still present after delete")
	}
}

func TestDeleteCommentNotOwner(t *testing.T) {
	user := seedUser(t, aliceID, "alice")
	env := newTestEnv(t, user)
	env.comments.comments[commentOneID] = seedComment(commentOneID, videoOneID, bobID)

	req := env.authedRequest(t, http.MethodDelete, "/api/v1/comments/"+commentOneID, nil, user)

	if rec := env.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
