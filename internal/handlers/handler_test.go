// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"folio/internal/cache"
	"folio/internal/database"
	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/moderation"
	"folio/internal/notify"
	"folio/internal/session"
	"folio/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "folio")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "folio")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "resp:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Sessions      *session.Store
	PostStore     *store.PostStore
	CategoryStore *store.CategoryStore
	SeriesStore   *store.SeriesStore
	RelationStore *store.RelationStore
	CommentStore  *store.CommentStore
	UserStore     *store.UserStore
	ProfileStore  *store.ProfileStore
	RevisionStore *store.RevisionStore
	CacheLog      *store.CacheLogStore
	RespCache     *cache.ResponseCache
	Admin         *Admin
	Auth          *Auth
	Public        *Public
}

// newTestEnv creates a complete test environment with all handler
// dependencies. The moderation checker is the given one (nil means
// comments always land in the moderation queue).
func newTestEnv(t *testing.T, checker moderation.Checker) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	postStore := store.NewPostStore(db)
	categoryStore := store.NewCategoryStore(db)
	seriesStore := store.NewSeriesStore(db)
	relationStore := store.NewRelationStore(db)
	commentStore := store.NewCommentStore(db)
	userStore := store.NewUserStore(db)
	profileStore := store.NewProfileStore(db)
	revisionStore := store.NewRevisionStore(db)
	cacheLogStore := store.NewCacheLogStore(db)
	respCache := cache.NewResponseCache(vk, 1*time.Minute)

	admin := NewAdmin(postStore, categoryStore, seriesStore, relationStore,
		commentStore, profileStore, revisionStore, cacheLogStore, respCache)
	auth := NewAuth(sessions, userStore)
	public := NewPublic(postStore, categoryStore, seriesStore, relationStore,
		commentStore, profileStore, respCache, checker, notify.LogNotifier{})

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Sessions:      sessions,
		PostStore:     postStore,
		CategoryStore: categoryStore,
		SeriesStore:   seriesStore,
		RelationStore: relationStore,
		CommentStore:  commentStore,
		UserStore:     userStore,
		ProfileStore:  profileStore,
		RevisionStore: revisionStore,
		CacheLog:      cacheLogStore,
		RespCache:     respCache,
		Admin:         admin,
		Auth:          auth,
		Public:        public,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// testAuthorID returns a valid user ID for post creation.
func testAuthorID(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := db.QueryRow("SELECT id FROM users LIMIT 1").Scan(&id); err != nil {
		t.Fatalf("no users in database — run seed first: %v", err)
	}
	return id
}

// adminSession builds a fully authenticated admin session for the seeded user.
func adminSession(t *testing.T, db *sql.DB) *session.Data {
	t.Helper()
	return testSession(testAuthorID(t, db), "admin@example.com", string(models.RoleAdmin), true)
}

// cleanPosts removes test posts by slug.
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM posts WHERE slug = $1", s)
	}
}

// cleanCategories removes test categories by slug.
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", s)
	}
}

// cleanSeries removes test series by slug.
func cleanSeries(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM series WHERE slug = $1", s)
	}
}
