package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"folio/internal/apperr"
	"folio/internal/middleware"
	"folio/internal/session"
	"folio/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	// Needs2FASetup tells the client to fetch a TOTP secret before
	// verifying; otherwise it goes straight to code entry.
	Needs2FASetup bool `json:"needs_2fa_setup"`
}

// Login checks credentials and opens a session. The session starts with
// TwoFADone=false; the client must complete TOTP verification before the
// admin surface accepts it.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.userStore.FindByEmail(req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		writeError(w, apperr.Unauthorized("invalid email or password"))
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		Role:          string(user.Role),
		Needs2FASetup: user.Needs2FASetup(),
	})
}

type twoFASetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"` // base64-encoded PNG of the otpauth URL
}

// TwoFASetup generates a fresh TOTP secret for the logged-in user and
// returns it with a QR code for the authenticator app. The secret is not
// active until the first code is verified.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, apperr.Unauthorized("authentication required"))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "folio",
		AccountName: sess.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		writeError(w, err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, twoFASetupResponse{
		Secret: key.Secret(),
		QRCode: base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type twoFAVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates the TOTP code and completes authentication.
// On first-time setup this also enables TOTP for the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, apperr.Unauthorized("authentication required"))
		return
	}

	var req twoFAVerifyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || user.TOTPSecret == nil {
		writeError(w, apperr.Validation("two-factor setup has not been started"))
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		writeError(w, apperr.Unauthorized("invalid verification code"))
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			writeError(w, err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// Me returns the current session's identity. Used by the admin frontend
// to restore its login state after a reload.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, apperr.Unauthorized("authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":        sess.Email,
		"display_name": sess.DisplayName,
		"role":         sess.Role,
		"two_fa_done":  sess.TwoFADone,
	})
}
