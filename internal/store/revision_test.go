// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"github.com/google/uuid"

	"folio/internal/models"
)

func TestRevisionSnapshotAndList(t *testing.T) {
	db := testDB(t)
	userID := testUserID(t, db)
	revisions := NewRevisionStore(db)

	post := makePost(t, db, userID, "Test Revision History", models.PostStatusDraft)

	if err := revisions.Snapshot(post, "first snapshot", userID); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	post.Content = "second draft"
	if err := revisions.Snapshot(post, "second snapshot", userID); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	history, err := revisions.ListByPostID(post.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history: got %d entries, want 2", len(history))
	}

	// Newest first.
	if history[0].Content != "second draft" {
		t.Errorf("newest revision content: got %q", history[0].Content)
	}
	if history[1].Content != "test content" {
		t.Errorf("oldest revision content: got %q", history[1].Content)
	}
	if history[0].RevisionLog != "second snapshot" {
		t.Errorf("revision log: got %q", history[0].RevisionLog)
	}
	if history[0].CreatedBy != userID {
		t.Error("revision should record who made it")
	}
}

func TestRevisionListEmptyForUnknownPost(t *testing.T) {
	db := testDB(t)
	revisions := NewRevisionStore(db)

	history, err := revisions.ListByPostID(uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history: got %d entries, want 0", len(history))
	}
}

func TestRevisionsDeletedWithPost(t *testing.T) {
	db := testDB(t)
	userID := testUserID(t, db)
	posts := NewPostStore(db)
	revisions := NewRevisionStore(db)

	post := makePost(t, db, userID, "Test Revision Cascade", models.PostStatusDraft)
	if err := revisions.Snapshot(post, "only snapshot", userID); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if err := posts.Delete(post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	history, err := revisions.ListByPostID(post.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history after post delete: got %d entries, want 0", len(history))
	}
}
