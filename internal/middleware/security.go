// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// SecureHeaders stamps browser security headers on every response. The
// API serves JSON only, so the policy can be stricter than a page-serving
// frontend would tolerate.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// JSON responses must never be MIME-sniffed into something active.
		h.Set("X-Content-Type-Options", "nosniff")

		// Nothing served here is meant to be framed.
		h.Set("X-Frame-Options", "DENY")

		// The legacy XSS auditor does more harm than good.
		h.Set("X-XSS-Protection", "0")

		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Opt out of FLoC / Topics cohort calculations.
		h.Set("Permissions-Policy", "interest-cohort=()")

		next.ServeHTTP(w, r)
	})
}
