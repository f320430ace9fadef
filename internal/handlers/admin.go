// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"folio/internal/apperr"
	"folio/internal/cache"
	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/slug"
	"folio/internal/store"
)

// Admin groups the editing-workflow HTTP handlers and their dependencies.
// Every mutation invalidates the public response cache and records the
// invalidation in the audit log.
type Admin struct {
	postStore     *store.PostStore
	categoryStore *store.CategoryStore
	seriesStore   *store.SeriesStore
	relationStore *store.RelationStore
	commentStore  *store.CommentStore
	profileStore  *store.ProfileStore
	revisionStore *store.RevisionStore
	cacheLog      *store.CacheLogStore
	respCache     *cache.ResponseCache
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(posts *store.PostStore, categories *store.CategoryStore, series *store.SeriesStore, relations *store.RelationStore, comments *store.CommentStore, profile *store.ProfileStore, revisions *store.RevisionStore, cacheLog *store.CacheLogStore, respCache *cache.ResponseCache) *Admin {
	return &Admin{
		postStore:     posts,
		categoryStore: categories,
		seriesStore:   series,
		relationStore: relations,
		commentStore:  comments,
		profileStore:  profile,
		revisionStore: revisions,
		cacheLog:      cacheLog,
		respCache:     respCache,
	}
}

// invalidate clears the public response cache after a mutation and
// records the action in the audit log.
func (a *Admin) invalidate(r *http.Request, entityType string, entityID uuid.UUID, action string) {
	a.respCache.InvalidateAll(r.Context())
	a.cacheLog.Log(entityType, entityID, action)
}

// Dashboard returns the content counters shown on the admin landing page.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	postCount, err := a.postStore.Count()
	if err != nil {
		writeError(w, err)
		return
	}
	categories, err := a.categoryStore.List()
	if err != nil {
		writeError(w, err)
		return
	}
	series, err := a.seriesStore.List()
	if err != nil {
		writeError(w, err)
		return
	}
	_, counts, err := a.commentStore.List(models.CommentFilterAll)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":            postCount,
		"categories":       len(categories),
		"series":           len(series),
		"comments":         counts.Total,
		"pending_comments": counts.Pending,
	})
}

// --- Posts ---

type postRequest struct {
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Excerpt         *string    `json:"excerpt,omitempty"`
	Content         string     `json:"content"`
	Status          string     `json:"status"`
	Tags            []string   `json:"tags"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	SeriesID        *uuid.UUID `json:"series_id,omitempty"`
	SeriesOrder     *int       `json:"series_order,omitempty"`
	MetaDescription *string    `json:"meta_description,omitempty"`
	MetaKeywords    *string    `json:"meta_keywords,omitempty"`
}

// resolveSlug normalizes the requested slug, deriving it from the title
// when absent. An input that normalizes to nothing is rejected.
func resolveSlug(title, requested string) (string, error) {
	source := requested
	if strings.TrimSpace(source) == "" {
		source = title
	}
	s := slug.Generate(source)
	if s == "" {
		return "", apperr.Validation("slug must contain at least one letter or digit")
	}
	return s, nil
}

// checkPostReq validates the shared create/update invariants and returns
// the normalized slug.
func (a *Admin) checkPostReq(req *postRequest) (string, error) {
	if err := validatePost(req.Title, req.Slug, req.Content, req.Tags); err != nil {
		return "", err
	}
	if err := validateMetadata(req.Excerpt, req.MetaDescription, req.MetaKeywords); err != nil {
		return "", err
	}
	if req.Status == "" {
		req.Status = string(models.PostStatusDraft)
	}
	if !models.ValidStatus(models.PostStatus(req.Status)) {
		return "", apperr.Validation("status must be draft, published, or archived")
	}
	return resolveSlug(req.Title, req.Slug)
}

// placeInSeries assigns the series order for a post joining a series:
// explicit orders are kept, otherwise the post is appended at the end.
func (a *Admin) placeInSeries(req *postRequest) error {
	if req.SeriesID == nil {
		req.SeriesOrder = nil
		return nil
	}
	if req.SeriesOrder != nil {
		if *req.SeriesOrder < 1 {
			return apperr.Validation("series order must be at least 1")
		}
		return nil
	}
	count, err := a.seriesStore.MemberCount(*req.SeriesID)
	if err != nil {
		return err
	}
	order := count + 1
	req.SeriesOrder = &order
	return nil
}

// ListPosts returns every post regardless of status.
func (a *Admin) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.postStore.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost returns a single post by ID, any status.
func (a *Admin) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	post, err := a.postStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if post == nil {
		writeError(w, apperr.NotFound("post not found"))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// CreatePost creates a new post authored by the session user.
func (a *Admin) CreatePost(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req postRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s, err := a.checkPostReq(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.placeInSeries(&req); err != nil {
		writeError(w, err)
		return
	}

	post, err := a.postStore.Create(&models.Post{
		Title:           req.Title,
		Slug:            s,
		Excerpt:         req.Excerpt,
		Content:         req.Content,
		Status:          models.PostStatus(req.Status),
		Tags:            req.Tags,
		CategoryID:      req.CategoryID,
		SeriesID:        req.SeriesID,
		SeriesOrder:     req.SeriesOrder,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
		AuthorID:        sess.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "post", post.ID, "create")
	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost replaces a post's editable fields. The previous state is
// snapshotted as a revision before the write.
func (a *Admin) UpdatePost(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req postRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s, err := a.checkPostReq(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := a.postStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, apperr.NotFound("post not found"))
		return
	}

	// A post joining a different series gets appended there; re-saving
	// within the same series keeps its position.
	joiningNewSeries := req.SeriesID != nil &&
		(existing.SeriesID == nil || *existing.SeriesID != *req.SeriesID)
	if joiningNewSeries {
		req.SeriesOrder = nil
	} else if req.SeriesID != nil && req.SeriesOrder == nil {
		req.SeriesOrder = existing.SeriesOrder
	}
	if err := a.placeInSeries(&req); err != nil {
		writeError(w, err)
		return
	}

	if err := a.revisionStore.Snapshot(existing, "pre-update snapshot", sess.UserID); err != nil {
		writeError(w, err)
		return
	}

	existing.Title = req.Title
	existing.Slug = s
	existing.Excerpt = req.Excerpt
	existing.Content = req.Content
	existing.Status = models.PostStatus(req.Status)
	existing.Tags = req.Tags
	existing.CategoryID = req.CategoryID
	existing.SeriesID = req.SeriesID
	existing.SeriesOrder = req.SeriesOrder
	existing.MetaDescription = req.MetaDescription
	existing.MetaKeywords = req.MetaKeywords

	updated, err := a.postStore.Update(existing)
	if err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "post", updated.ID, "update")
	writeJSON(w, http.StatusOK, updated)
}

// DeletePost removes a post. Its comments and relation edges go with it.
func (a *Admin) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := a.postStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if post == nil {
		writeError(w, apperr.NotFound("post not found"))
		return
	}

	if err := a.postStore.Delete(id); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "post", id, "delete")
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ListRevisions returns the revision history of a post, newest first.
func (a *Admin) ListRevisions(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	revisions, err := a.revisionStore.ListByPostID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revisions)
}

// --- Categories ---

type categoryRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
	Description *string `json:"description,omitempty"`
}

// ListCategories returns every category with post counts.
func (a *Admin) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categoryStore.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a category; the slug is derived from the name
// unless one is given.
func (a *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateName(req.Name); err != nil {
		writeError(w, err)
		return
	}
	s, err := resolveSlug(req.Name, req.Slug)
	if err != nil {
		writeError(w, err)
		return
	}

	category, err := a.categoryStore.Create(&models.Category{
		Name:        req.Name,
		Slug:        s,
		Color:       req.Color,
		Icon:        req.Icon,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "category", category.ID, "create")
	writeJSON(w, http.StatusCreated, category)
}

// UpdateCategory modifies a category.
func (a *Admin) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateName(req.Name); err != nil {
		writeError(w, err)
		return
	}
	s, err := resolveSlug(req.Name, req.Slug)
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := a.categoryStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, apperr.NotFound("category not found"))
		return
	}

	existing.Name = req.Name
	existing.Slug = s
	existing.Color = req.Color
	existing.Icon = req.Icon
	existing.Description = req.Description

	if err := a.categoryStore.Update(existing); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "category", id, "update")
	writeJSON(w, http.StatusOK, existing)
}

// DeleteCategory removes a category; member posts keep existing with the
// category cleared.
func (a *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := a.categoryStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, apperr.NotFound("category not found"))
		return
	}

	if err := a.categoryStore.Delete(id); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "category", id, "delete")
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// --- Series ---

type seriesRequest struct {
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
	Difficulty  *string `json:"difficulty,omitempty"`
}

// ListSeries returns every series with member counts.
func (a *Admin) ListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := a.seriesStore.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// CreateSeries creates a series. New series start with no members.
func (a *Admin) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateName(req.Title); err != nil {
		writeError(w, err)
		return
	}
	s, err := resolveSlug(req.Title, req.Slug)
	if err != nil {
		writeError(w, err)
		return
	}

	series, err := a.seriesStore.Create(&models.Series{
		Title:       req.Title,
		Slug:        s,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "series", series.ID, "create")
	writeJSON(w, http.StatusCreated, series)
}

// UpdateSeries modifies a series.
func (a *Admin) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req seriesRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateName(req.Title); err != nil {
		writeError(w, err)
		return
	}
	s, err := resolveSlug(req.Title, req.Slug)
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := a.seriesStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, apperr.NotFound("series not found"))
		return
	}

	existing.Title = req.Title
	existing.Slug = s
	existing.Description = req.Description
	existing.Color = req.Color
	existing.Icon = req.Icon
	existing.Difficulty = req.Difficulty

	if err := a.seriesStore.Update(existing); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "series", id, "update")
	writeJSON(w, http.StatusOK, existing)
}

// DeleteSeries removes a series; member posts keep existing with their
// series membership cleared.
func (a *Admin) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := a.seriesStore.FindByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, apperr.NotFound("series not found"))
		return
	}

	if err := a.seriesStore.Delete(id); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "series", id, "delete")
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type reorderRequest struct {
	PostID   uuid.UUID `json:"post_id"`
	Position int       `json:"position"`
}

// ReorderSeries moves a member post to a new 1-based position within the
// series, shifting the other members to stay contiguous.
func (a *Admin) ReorderSeries(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req reorderRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := a.seriesStore.Reorder(id, req.PostID, req.Position); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "series", id, "reorder")

	members, err := a.postStore.ListBySeries(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// --- Relations ---

type relationRequest struct {
	TargetPostID uuid.UUID `json:"target_post_id"`
	RelationType string    `json:"relation_type"`
}

// ListRelations returns every edge touching the given post, including
// unpublished endpoints.
func (a *Admin) ListRelations(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	relations, err := a.relationStore.ListForPost(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, relations)
}

// CreateRelation links the URL post to the target post. The edge is
// undirected: relating A to B also relates B to A.
func (a *Admin) CreateRelation(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req relationRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	// Both endpoints must exist before the edge is attempted.
	for _, postID := range []uuid.UUID{id, req.TargetPostID} {
		post, err := a.postStore.FindByID(postID)
		if err != nil {
			writeError(w, err)
			return
		}
		if post == nil {
			writeError(w, apperr.NotFound("post not found"))
			return
		}
	}

	relation, err := a.relationStore.Add(id, req.TargetPostID, req.RelationType, sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "relation", relation.ID, "create")
	writeJSON(w, http.StatusCreated, relation)
}

// DeleteRelation removes an edge by its ID.
func (a *Admin) DeleteRelation(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := a.relationStore.Remove(id); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "relation", id, "delete")
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// --- Comments ---

// commentListResponse carries the filtered listing plus the moderation
// counters shown alongside it.
type commentListResponse struct {
	Comments []models.Comment     `json:"comments"`
	Counts   models.CommentCounts `json:"counts"`
}

// ListComments returns comments filtered by ?filter=all|pending|approved
// (default all) with aggregate counters.
func (a *Admin) ListComments(w http.ResponseWriter, r *http.Request) {
	filter := models.CommentFilter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = models.CommentFilterAll
	}

	comments, counts, err := a.commentStore.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commentListResponse{Comments: comments, Counts: counts})
}

// ApproveComment publishes a comment.
func (a *Admin) ApproveComment(w http.ResponseWriter, r *http.Request) {
	a.moderateComment(w, r, true)
}

// RejectComment unpublishes a comment without deleting it.
func (a *Admin) RejectComment(w http.ResponseWriter, r *http.Request) {
	a.moderateComment(w, r, false)
}

func (a *Admin) moderateComment(w http.ResponseWriter, r *http.Request, approved bool) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := a.commentStore.SetApproved(id, approved); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "comment", id, "moderate")
	writeJSON(w, http.StatusOK, map[string]bool{"approved": approved})
}

// DeleteComment removes a comment permanently.
func (a *Admin) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := a.commentStore.Delete(id); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "comment", id, "delete")
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// --- Profile ---

// GetProfile returns the owner profile settings for editing.
func (a *Admin) GetProfile(w http.ResponseWriter, r *http.Request) {
	settings, err := a.profileStore.All()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateProfile upserts the given profile settings. Keys not present in
// the request are left untouched.
func (a *Admin) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var settings map[string]string
	if err := readJSON(r, &settings); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSettings(settings); err != nil {
		writeError(w, err)
		return
	}

	if err := a.profileStore.SetMany(settings); err != nil {
		writeError(w, err)
		return
	}

	a.invalidate(r, "profile", uuid.Nil, "update")

	all, err := a.profileStore.All()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// --- Cache audit log ---

// CacheLog returns the most recent cache invalidation entries.
func (a *Admin) CacheLog(w http.ResponseWriter, r *http.Request) {
	entries, err := a.cacheLog.RecentEntries(100)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
