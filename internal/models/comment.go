// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a visitor-submitted comment attached to a post. It is created
// in a pending or auto-approved state depending on the moderation policy,
// mutated only by admin approve/reject/delete actions, and never edited.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Website    *string   `json:"website,omitempty"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"is_approved"`
	Likes      int       `json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentFilter selects which comments a moderation listing returns.
type CommentFilter string

const (
	CommentFilterAll      CommentFilter = "all"
	CommentFilterPending  CommentFilter = "pending"
	CommentFilterApproved CommentFilter = "approved"
)

// CommentCounts carries the aggregate counters shown in the moderation UI.
type CommentCounts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
}
