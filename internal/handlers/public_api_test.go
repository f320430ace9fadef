// public_api_test.go contains handler integration tests for the Public
// handler group: post listing and detail with response caching, likes,
// related posts, comment submission with moderation, series, and the
// owner profile. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"folio/internal/models"
	"folio/internal/moderation"
)

// stubChecker is a canned moderation.Checker for public handler tests.
type stubChecker struct {
	result moderation.Result
	err    error
}

func (s *stubChecker) CheckSafety(_ context.Context, _ string) (*moderation.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.result, nil
}

// publishPost inserts a published post directly through the store and
// registers cleanup.
func publishPost(t *testing.T, env *testEnv, title, slug, content string) *models.Post {
	t.Helper()

	post, err := env.PostStore.Create(&models.Post{
		Title:    title,
		Slug:     slug,
		Content:  content,
		Status:   models.PostStatusPublished,
		AuthorID: testAuthorID(t, env.DB),
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	t.Cleanup(func() { cleanPosts(t, env.DB, slug) })
	return post
}

// draftPost inserts a draft post directly through the store.
func draftPost(t *testing.T, env *testEnv, title, slug string) *models.Post {
	t.Helper()

	post, err := env.PostStore.Create(&models.Post{
		Title:    title,
		Slug:     slug,
		Content:  "draft body",
		Status:   models.PostStatusDraft,
		AuthorID: testAuthorID(t, env.DB),
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	t.Cleanup(func() { cleanPosts(t, env.DB, slug) })
	return post
}

func slugRequest(method, target, slug string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return withChiURLParam(req, "slug", slug)
}

// --------------------------------------------------------------------------
// GetPost
// --------------------------------------------------------------------------

// TestGetPost_RendersMarkdown verifies that a published post is served
// with its body rendered to HTML and its view counter bumped.
func TestGetPost_RendersMarkdown(t *testing.T) {
	env := newTestEnv(t, nil)
	post := publishPost(t, env, "Test Markdown Post", "test-markdown-post", "# Heading\n\nSome **bold** text.")

	rec := httptest.NewRecorder()
	env.Public.GetPost(rec, slugRequest(http.MethodGet, "/api/posts/test-markdown-post", post.Slug))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "<strong>bold</strong>") {
		t.Errorf("expected rendered HTML in content_html, got %s", body)
	}

	stored, err := env.PostStore.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find post: %v", err)
	}
	if stored.Views != post.Views+1 {
		t.Errorf("views: got %d, want %d", stored.Views, post.Views+1)
	}
}

// TestGetPost_CachedHitStillCountsView verifies that the second read is
// served from the response cache and the view counter keeps moving.
func TestGetPost_CachedHitStillCountsView(t *testing.T) {
	env := newTestEnv(t, nil)
	post := publishPost(t, env, "Test Cached Post", "test-cached-post", "body")

	first := httptest.NewRecorder()
	env.Public.GetPost(first, slugRequest(http.MethodGet, "/api/posts/test-cached-post", post.Slug))
	second := httptest.NewRecorder()
	env.Public.GetPost(second, slugRequest(http.MethodGet, "/api/posts/test-cached-post", post.Slug))

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("status: got %d then %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached response should match the original")
	}

	stored, err := env.PostStore.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find post: %v", err)
	}
	if stored.Views != post.Views+2 {
		t.Errorf("views: got %d, want %d", stored.Views, post.Views+2)
	}
}

// TestGetPost_HidesDrafts verifies that drafts 404 on the public surface.
func TestGetPost_HidesDrafts(t *testing.T) {
	env := newTestEnv(t, nil)
	draftPost(t, env, "Test Hidden Draft", "test-hidden-draft")

	rec := httptest.NewRecorder()
	env.Public.GetPost(rec, slugRequest(http.MethodGet, "/api/posts/test-hidden-draft", "test-hidden-draft"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestGetPost_Unknown verifies the 404 for an unknown slug.
func TestGetPost_Unknown(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.Public.GetPost(rec, slugRequest(http.MethodGet, "/api/posts/test-no-such-post", "test-no-such-post"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// --------------------------------------------------------------------------
// ListPosts
// --------------------------------------------------------------------------

// TestListPosts_OnlyPublished verifies that the public listing excludes
// drafts.
func TestListPosts_OnlyPublished(t *testing.T) {
	env := newTestEnv(t, nil)
	publishPost(t, env, "Test Visible Post", "test-visible-post", "body")
	draftPost(t, env, "Test Invisible Draft", "test-invisible-draft")

	// Drop any listing cached by an earlier test.
	env.RespCache.InvalidateAll(context.Background())

	rec := httptest.NewRecorder()
	env.Public.ListPosts(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "test-visible-post") {
		t.Error("expected the published post in the listing")
	}
	if strings.Contains(body, "test-invisible-draft") {
		t.Error("draft leaked into the public listing")
	}
}

// --------------------------------------------------------------------------
// LikePost
// --------------------------------------------------------------------------

// TestLikePost increments the counter and reports the new value.
func TestLikePost(t *testing.T) {
	env := newTestEnv(t, nil)
	post := publishPost(t, env, "Test Liked Post", "test-liked-post", "body")

	rec := httptest.NewRecorder()
	env.Public.LikePost(rec, slugRequest(http.MethodPost, "/api/posts/test-liked-post/like", post.Slug))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]int
	decodeBody(t, rec, &resp)
	if resp["likes"] != 1 {
		t.Errorf("likes: got %d, want 1", resp["likes"])
	}
}

// --------------------------------------------------------------------------
// ListRelated
// --------------------------------------------------------------------------

// TestListRelated_VisitorVsAdmin verifies that visitors only see
// published related posts while an authenticated admin sees every edge.
func TestListRelated_VisitorVsAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	a := publishPost(t, env, "Test Related Source", "test-related-source", "body")
	b := draftPost(t, env, "Test Related Draft", "test-related-draft")

	if _, err := env.RelationStore.Add(a.ID, b.ID, "related", testAuthorID(t, env.DB)); err != nil {
		t.Fatalf("add relation: %v", err)
	}

	visitorRec := httptest.NewRecorder()
	env.Public.ListRelated(visitorRec, slugRequest(http.MethodGet, "/api/posts/test-related-source/related", a.Slug))

	if visitorRec.Code != http.StatusOK {
		t.Fatalf("visitor status: got %d", visitorRec.Code)
	}
	var visitorSees []models.RelatedPost
	decodeBody(t, visitorRec, &visitorSees)
	if len(visitorSees) != 0 {
		t.Errorf("visitor should not see draft endpoints, got %d", len(visitorSees))
	}

	adminReq := slugRequest(http.MethodGet, "/api/posts/test-related-source/related", a.Slug)
	adminReq = adminReq.WithContext(ctxWithSession(adminReq.Context(), adminSession(t, env.DB)))
	adminRec := httptest.NewRecorder()
	env.Public.ListRelated(adminRec, adminReq)

	if adminRec.Code != http.StatusOK {
		t.Fatalf("admin status: got %d", adminRec.Code)
	}
	var adminSees []models.RelatedPost
	decodeBody(t, adminRec, &adminSees)
	if len(adminSees) != 1 {
		t.Errorf("admin should see the draft endpoint, got %d", len(adminSees))
	}
}

// --------------------------------------------------------------------------
// Comments
// --------------------------------------------------------------------------

// TestSubmitComment_NoChecker verifies that with no moderation backend a
// comment lands in the review queue.
func TestSubmitComment_NoChecker(t *testing.T) {
	env := newTestEnv(t, nil)
	post := publishPost(t, env, "Test Commented Post", "test-commented-post", "body")

	req := jsonRequest(t, http.MethodPost, "/api/posts/test-commented-post/comments",
		`{"author":"Visitor","email":"v@example.com","content":"Nice write-up."}`)
	req = withChiURLParam(req, "slug", post.Slug)
	rec := httptest.NewRecorder()

	env.Public.SubmitComment(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		IsApproved bool `json:"is_approved"`
		Pending    bool `json:"pending"`
	}
	decodeBody(t, rec, &resp)
	if resp.IsApproved || !resp.Pending {
		t.Errorf("expected a pending comment, got approved=%v pending=%v", resp.IsApproved, resp.Pending)
	}
}

// TestSubmitComment_SafeAutoApproved verifies that a checker verdict of
// safe publishes the comment immediately.
func TestSubmitComment_SafeAutoApproved(t *testing.T) {
	env := newTestEnv(t, &stubChecker{result: moderation.Result{Safe: true}})
	post := publishPost(t, env, "Test Auto Approved", "test-auto-approved", "body")

	req := jsonRequest(t, http.MethodPost, "/api/posts/test-auto-approved/comments",
		`{"author":"Visitor","email":"v@example.com","content":"Lovely."}`)
	req = withChiURLParam(req, "slug", post.Slug)
	rec := httptest.NewRecorder()

	env.Public.SubmitComment(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		IsApproved bool `json:"is_approved"`
		Pending    bool `json:"pending"`
	}
	decodeBody(t, rec, &resp)
	if !resp.IsApproved || resp.Pending {
		t.Errorf("expected an auto-approved comment, got approved=%v pending=%v", resp.IsApproved, resp.Pending)
	}
}

// TestSubmitComment_CheckerFailureHolds verifies that a moderation
// outage degrades to the review queue, never to auto-publish.
func TestSubmitComment_CheckerFailureHolds(t *testing.T) {
	env := newTestEnv(t, &stubChecker{err: context.DeadlineExceeded})
	post := publishPost(t, env, "Test Outage Post", "test-outage-post", "body")

	req := jsonRequest(t, http.MethodPost, "/api/posts/test-outage-post/comments",
		`{"author":"Visitor","email":"v@example.com","content":"Still here."}`)
	req = withChiURLParam(req, "slug", post.Slug)
	rec := httptest.NewRecorder()

	env.Public.SubmitComment(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Pending bool `json:"pending"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Pending {
		t.Error("checker failure should hold the comment for review")
	}
}

// TestSubmitComment_Validation verifies the required-field checks.
func TestSubmitComment_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	post := publishPost(t, env, "Test Strict Post", "test-strict-post", "body")

	cases := []struct {
		name string
		body string
	}{
		{"missing author", `{"author":"","email":"v@example.com","content":"x"}`},
		{"missing email", `{"author":"V","email":"","content":"x"}`},
		{"bad email", `{"author":"V","email":"not-an-email","content":"x"}`},
		{"missing content", `{"author":"V","email":"v@example.com","content":""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/api/posts/test-strict-post/comments", tc.body)
			req = withChiURLParam(req, "slug", post.Slug)
			rec := httptest.NewRecorder()

			env.Public.SubmitComment(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

// TestSubmitComment_DraftPost verifies that drafts do not accept
// comments.
func TestSubmitComment_DraftPost(t *testing.T) {
	env := newTestEnv(t, nil)
	draftPost(t, env, "Test Closed Draft", "test-closed-draft")

	req := jsonRequest(t, http.MethodPost, "/api/posts/test-closed-draft/comments",
		`{"author":"V","email":"v@example.com","content":"hello?"}`)
	req = withChiURLParam(req, "slug", "test-closed-draft")
	rec := httptest.NewRecorder()

	env.Public.SubmitComment(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestListComments_HidesPending verifies that the public listing only
// shows approved comments.
func TestListComments_HidesPending(t *testing.T) {
	env := newTestEnv(t, nil)
	post := publishPost(t, env, "Test Comment Listing", "test-comment-listing", "body")

	if _, err := env.CommentStore.Create(&models.Comment{
		PostID: post.ID, Author: "A", Email: "a@example.com", Content: "approved one", IsApproved: true,
	}); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := env.CommentStore.Create(&models.Comment{
		PostID: post.ID, Author: "B", Email: "b@example.com", Content: "pending one",
	}); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	rec := httptest.NewRecorder()
	env.Public.ListComments(rec, slugRequest(http.MethodGet, "/api/posts/test-comment-listing/comments", post.Slug))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var comments []models.Comment
	decodeBody(t, rec, &comments)
	if len(comments) != 1 || comments[0].Content != "approved one" {
		t.Errorf("listing: got %d comments, want only the approved one", len(comments))
	}
}

// TestLikeComment_PendingHidden verifies that pending comments cannot be
// liked.
func TestLikeComment_PendingHidden(t *testing.T) {
	env := newTestEnv(t, nil)
	post := publishPost(t, env, "Test Like Target", "test-like-target", "body")

	pending, err := env.CommentStore.Create(&models.Comment{
		PostID: post.ID, Author: "B", Email: "b@example.com", Content: "unseen",
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/comments/"+pending.ID.String()+"/like", nil)
	req = withChiURLParam(req, "id", pending.ID.String())
	rec := httptest.NewRecorder()

	env.Public.LikeComment(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// --------------------------------------------------------------------------
// Series and profile
// --------------------------------------------------------------------------

// TestGetSeries_PublishedMembersOnly verifies that the reading order
// listing skips unpublished members.
func TestGetSeries_PublishedMembersOnly(t *testing.T) {
	env := newTestEnv(t, nil)

	series, err := env.SeriesStore.Create(&models.Series{Title: "Test Public Series", Slug: "test-public-series"})
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	t.Cleanup(func() { cleanSeries(t, env.DB, series.Slug) })

	one := 1
	two := 2
	pub := publishPost(t, env, "Test Series Pub", "test-series-pub", "body")
	pub.SeriesID = &series.ID
	pub.SeriesOrder = &one
	if _, err := env.PostStore.Update(pub); err != nil {
		t.Fatalf("update post: %v", err)
	}
	dr := draftPost(t, env, "Test Series Draft", "test-series-draft")
	dr.SeriesID = &series.ID
	dr.SeriesOrder = &two
	if _, err := env.PostStore.Update(dr); err != nil {
		t.Fatalf("update draft: %v", err)
	}

	rec := httptest.NewRecorder()
	env.Public.GetSeries(rec, slugRequest(http.MethodGet, "/api/series/test-public-series", series.Slug))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Posts []models.Post `json:"posts"`
	}
	decodeBody(t, rec, &detail)
	if len(detail.Posts) != 1 || detail.Posts[0].Slug != "test-series-pub" {
		t.Errorf("members: got %d, want only the published one", len(detail.Posts))
	}
}

// TestGetProfile returns the settings map.
func TestGetProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.ProfileStore.SetMany(map[string]string{"test_public_key": "hello"}); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM profile_settings WHERE key = 'test_public_key'")
	})

	rec := httptest.NewRecorder()
	env.Public.GetProfile(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var settings map[string]string
	decodeBody(t, rec, &settings)
	if settings["test_public_key"] != "hello" {
		t.Errorf("profile: got %q", settings["test_public_key"])
	}
}
