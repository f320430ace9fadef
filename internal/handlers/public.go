// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"folio/internal/apperr"
	"folio/internal/cache"
	"folio/internal/markdown"
	"folio/internal/metrics"
	"folio/internal/middleware"
	"folio/internal/moderation"
	"folio/internal/models"
	"folio/internal/notify"
	"folio/internal/store"
)

// Public groups handlers for the visitor-facing API. Listing and detail
// responses are served from the Valkey response cache when possible;
// comment submission runs the moderation pipeline.
type Public struct {
	postStore     *store.PostStore
	categoryStore *store.CategoryStore
	seriesStore   *store.SeriesStore
	relationStore *store.RelationStore
	commentStore  *store.CommentStore
	profileStore  *store.ProfileStore
	respCache     *cache.ResponseCache
	checker       moderation.Checker
	notifier      notify.Notifier
}

// NewPublic creates a new Public handler group. checker may be nil when
// no moderation backend is configured; comments are then held for review.
func NewPublic(posts *store.PostStore, categories *store.CategoryStore, series *store.SeriesStore, relations *store.RelationStore, comments *store.CommentStore, profile *store.ProfileStore, respCache *cache.ResponseCache, checker moderation.Checker, notifier notify.Notifier) *Public {
	return &Public{
		postStore:     posts,
		categoryStore: categories,
		seriesStore:   series,
		relationStore: relations,
		commentStore:  comments,
		profileStore:  profile,
		respCache:     respCache,
		checker:       checker,
		notifier:      notifier,
	}
}

// serveCached writes a cached payload if one exists. Returns true on hit.
func (p *Public) serveCached(w http.ResponseWriter, ctx context.Context, key string) bool {
	if cached, ok := p.respCache.Get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return true
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return false
}

// cacheAndWrite stores the payload in the response cache and serves it.
func (p *Public) cacheAndWrite(w http.ResponseWriter, ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	p.respCache.Set(ctx, key, payload)
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// ListPosts returns all published posts, newest first.
func (p *Public) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if p.serveCached(w, ctx, cache.ListKey()) {
		return
	}

	posts, err := p.postStore.ListPublished()
	if err != nil {
		writeError(w, err)
		return
	}
	p.cacheAndWrite(w, ctx, cache.ListKey(), posts)
}

// postDetail is the public post payload: the post plus its rendered body.
type postDetail struct {
	models.Post
	ContentHTML string `json:"content_html"`
}

// GetPost returns a single published post by slug with its Markdown body
// rendered to HTML, and bumps the view counter. Draft and archived posts
// are invisible here regardless of session.
func (p *Public) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")

	if p.serveCached(w, ctx, cache.PostKey(slugParam)) {
		// Cached responses still count as reads.
		if post, err := p.postStore.FindBySlug(slugParam); err == nil && post != nil {
			if err := p.postStore.IncrementViews(post.ID); err != nil {
				slog.Warn("view counter bump failed", "slug", slugParam, "error", err)
			}
		}
		return
	}

	post, err := p.postStore.FindBySlug(slugParam)
	if err != nil {
		writeError(w, err)
		return
	}
	if post == nil || !post.IsPublished() {
		writeError(w, apperr.NotFound("post not found"))
		return
	}

	html, err := markdown.ToHTML(post.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := p.postStore.IncrementViews(post.ID); err != nil {
		slog.Warn("view counter bump failed", "slug", slugParam, "error", err)
	}

	p.cacheAndWrite(w, ctx, cache.PostKey(slugParam), postDetail{Post: *post, ContentHTML: html})
}

// LikePost increments the like counter on a published post.
func (p *Public) LikePost(w http.ResponseWriter, r *http.Request) {
	post, err := p.publishedPost(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := p.postStore.IncrementLikes(post.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes": post.Likes + 1})
}

// ListRelated returns the posts related to the given one. Visitors only
// see published related posts; an authenticated admin session sees every
// endpoint, so curation can be checked before publishing.
func (p *Public) ListRelated(w http.ResponseWriter, r *http.Request) {
	post, err := p.publishedPost(r)
	if err != nil {
		writeError(w, err)
		return
	}

	related, err := p.relationStore.ListForPost(post.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	isAdmin := sess != nil && sess.TwoFADone

	visible := make([]models.RelatedPost, 0, len(related))
	for _, rp := range related {
		if isAdmin || rp.Status == models.PostStatusPublished {
			visible = append(visible, rp)
		}
	}
	writeJSON(w, http.StatusOK, visible)
}

// ListComments returns the approved comments on a published post,
// oldest first.
func (p *Public) ListComments(w http.ResponseWriter, r *http.Request) {
	post, err := p.publishedPost(r)
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := p.commentStore.ListApprovedForPost(post.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

type commentRequest struct {
	Author  string  `json:"author"`
	Email   string  `json:"email"`
	Website *string `json:"website,omitempty"`
	Content string  `json:"content"`
}

type commentResponse struct {
	models.Comment
	// Pending tells the visitor their comment is awaiting review.
	Pending bool `json:"pending"`
}

// SubmitComment accepts a visitor comment on a published post. The
// moderation checker decides whether it goes live immediately or waits
// for manual review; if no checker is configured (or it fails), review
// is the safe default. The owner is notified asynchronously.
func (p *Public) SubmitComment(w http.ResponseWriter, r *http.Request) {
	post, err := p.publishedPost(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req commentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateComment(req.Author, req.Email, req.Content, req.Website); err != nil {
		writeError(w, err)
		return
	}

	approved := p.screen(r.Context(), req.Content)

	comment, err := p.commentStore.Create(&models.Comment{
		PostID:     post.ID,
		Author:     req.Author,
		Email:      req.Email,
		Website:    req.Website,
		Content:    req.Content,
		IsApproved: approved,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Fire-and-forget: a notification failure never fails the submission.
	go func() {
		if err := p.notifier.CommentReceived(post.Title, comment.Author, comment.Content, !approved); err != nil {
			dep := apperr.Dependency("comment notification failed", err)
			slog.Warn(dep.Message, "error", err, "post", post.Slug)
		}
	}()

	writeJSON(w, http.StatusCreated, commentResponse{Comment: *comment, Pending: !approved})
}

// screen runs the comment through the moderation checker. A missing or
// failing checker holds the comment for review rather than publishing it.
func (p *Public) screen(ctx context.Context, content string) bool {
	if p.checker == nil {
		metrics.CommentsScreened.WithLabelValues("pending").Inc()
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	result, err := p.checker.CheckSafety(checkCtx, content)
	if err != nil {
		slog.Warn("comment moderation unavailable, holding for review", "error", err)
		metrics.CommentsScreened.WithLabelValues("error").Inc()
		return false
	}
	if !result.Safe {
		slog.Info("comment flagged by moderation", "categories", result.Categories)
		metrics.CommentsScreened.WithLabelValues("pending").Inc()
		return false
	}
	metrics.CommentsScreened.WithLabelValues("approved").Inc()
	return true
}

// LikeComment increments the like counter on an approved comment.
func (p *Public) LikeComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	comment, err := p.commentStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if comment == nil || !comment.IsApproved {
		writeError(w, apperr.NotFound("comment not found"))
		return
	}

	if err := p.commentStore.IncrementLikes(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes": comment.Likes + 1})
}

// ListCategories returns every category with its post count.
func (p *Public) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := p.categoryStore.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// ListSeries returns every series with its member count.
func (p *Public) ListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := p.seriesStore.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// seriesDetail is the series payload with its ordered published members.
type seriesDetail struct {
	models.Series
	Posts []models.Post `json:"posts"`
}

// GetSeries returns a series by slug with its member posts in reading
// order. Only published members are listed.
func (p *Public) GetSeries(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	series, err := p.seriesStore.FindBySlug(slugParam)
	if err != nil {
		writeError(w, err)
		return
	}
	if series == nil {
		writeError(w, apperr.NotFound("series not found"))
		return
	}

	members, err := p.postStore.ListBySeries(series.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	published := make([]models.Post, 0, len(members))
	for _, m := range members {
		if m.IsPublished() {
			published = append(published, m)
		}
	}

	writeJSON(w, http.StatusOK, seriesDetail{Series: *series, Posts: published})
}

// GetProfile returns the site-owner profile settings.
func (p *Public) GetProfile(w http.ResponseWriter, r *http.Request) {
	settings, err := p.profileStore.All()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// publishedPost resolves the {slug} URL parameter to a published post.
func (p *Public) publishedPost(r *http.Request) (*models.Post, error) {
	slugParam := chi.URLParam(r, "slug")
	post, err := p.postStore.FindBySlug(slugParam)
	if err != nil {
		return nil, err
	}
	if post == nil || !post.IsPublished() {
		return nil, apperr.NotFound("post not found")
	}
	return post, nil
}
