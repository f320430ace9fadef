// Package router sets up all HTTP routes and middleware chains for the
// folio blog backend. It organizes routes into the public API and the
// admin API with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folio/internal/handlers"
	"folio/internal/middleware"
	"folio/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. secure controls whether the CSRF cookie is
// marked Secure.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, secure bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Metrics)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check and metrics — no auth, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	// Abuse limiters for the anonymous write paths.
	loginLimiter := middleware.NewRateLimiter(5, time.Minute)
	commentLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Public API — no session required; reads are cached.
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)
			r.Get("/me", auth.Me)

			// 2FA — requires a session but NOT completed verification.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/2fa/setup", auth.TwoFASetup)
				r.Post("/2fa/verify", auth.TwoFAVerify)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", public.ListPosts)
			r.Get("/{slug}", public.GetPost)
			r.Post("/{slug}/like", public.LikePost)
			r.Get("/{slug}/related", public.ListRelated)
			r.Get("/{slug}/comments", public.ListComments)
			r.With(commentLimiter.Middleware).Post("/{slug}/comments", public.SubmitComment)
		})
		r.With(commentLimiter.Middleware).Post("/comments/{id}/like", public.LikeComment)

		r.Get("/categories", public.ListCategories)
		r.Get("/series", public.ListSeries)
		r.Get("/series/{slug}", public.GetSeries)
		r.Get("/profile", public.GetProfile)
	})

	// Admin API — authenticated, 2FA-verified, CSRF-protected.
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(secure))
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)

		r.Get("/csrf", csrfTokenHandler)
		r.Get("/dashboard", admin.Dashboard)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", admin.ListPosts)
			r.Post("/", admin.CreatePost)
			r.Get("/{id}", admin.GetPost)
			r.Put("/{id}", admin.UpdatePost)
			r.With(middleware.RequireAdmin).Delete("/{id}", admin.DeletePost)
			r.Get("/{id}/revisions", admin.ListRevisions)
			r.Get("/{id}/relations", admin.ListRelations)
			r.Post("/{id}/relations", admin.CreateRelation)
		})
		r.With(middleware.RequireAdmin).Delete("/relations/{id}", admin.DeleteRelation)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", admin.ListCategories)
			r.Post("/", admin.CreateCategory)
			r.Put("/{id}", admin.UpdateCategory)
			r.With(middleware.RequireAdmin).Delete("/{id}", admin.DeleteCategory)
		})

		r.Route("/series", func(r chi.Router) {
			r.Get("/", admin.ListSeries)
			r.Post("/", admin.CreateSeries)
			r.Put("/{id}", admin.UpdateSeries)
			r.With(middleware.RequireAdmin).Delete("/{id}", admin.DeleteSeries)
			r.Post("/{id}/reorder", admin.ReorderSeries)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", admin.ListComments)
			r.Post("/{id}/approve", admin.ApproveComment)
			r.Post("/{id}/reject", admin.RejectComment)
			r.With(middleware.RequireAdmin).Delete("/{id}", admin.DeleteComment)
		})

		r.Get("/profile", admin.GetProfile)
		r.Put("/profile", admin.UpdateProfile)
		r.Get("/cache-log", admin.CacheLog)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// csrfTokenHandler hands the current CSRF token to the admin frontend so
// it can echo it back on mutating requests.
func csrfTokenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"token":"` + middleware.CSRFTokenFromCtx(r.Context()) + `"}`))
}
