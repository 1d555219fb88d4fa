package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/askdb/askdb/internal/mail"
	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

// googleUserInfoURL is where Google serves the signed-in user's profile.
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// oauthStateCookie carries the anti-forgery state between the redirect and
// the callback.
const oauthStateCookie = "askdb_oauth_state"

// AuthHandler manages signup, email verification, sessions, and Google
// OAuth sign-in.
type AuthHandler struct {
	store       *store.Store
	authSvc     *service.AuthService
	mailer      *mail.Mailer
	oauth       *oauth2.Config
	baseURL     string
	userInfoURL string
	validate    *validator.Validate
	rest        *resty.Client
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. mailer and oauth may be nil when
// the corresponding feature is not configured; baseURL is the externally
// visible URL used to build verification links and post-login redirects.
func NewAuthHandler(st *store.Store, authSvc *service.AuthService, mailer *mail.Mailer, oauth *oauth2.Config, baseURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		store:       st,
		authSvc:     authSvc,
		mailer:      mailer,
		oauth:       oauth,
		baseURL:     baseURL,
		userInfoURL: googleUserInfoURL,
		validate:    validator.New(),
		rest:        resty.New().SetTimeout(10 * time.Second),
		logger:      logger,
	}
}

// SetUserInfoURL redirects profile lookups to a stand-in server in tests.
func (h *AuthHandler) SetUserInfoURL(url string) {
	h.userInfoURL = url
}

// signupRequest is the expected payload for the Signup endpoint.
type signupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"fname" validate:"required"`
	LastName  string `json:"lname"`
}

// Signup registers a new inactive account and emails a verification link.
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid signup data: "+err.Error())
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}
	token, err := service.NewVerificationToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create verification token")
		return
	}

	u := &model.User{
		Email:             req.Email,
		PasswordHash:      hash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		IsActive:          false,
		VerificationToken: token,
		CreatedBy:         req.Email,
		ModifiedBy:        req.Email,
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	if h.mailer != nil {
		verifyURL := h.baseURL + "/api/auth/verify-email?token=" + token
		if err := h.mailer.SendVerification(u.Email, u.FirstName, verifyURL); err != nil {
			// The account exists; the token can be re-delivered out of band.
			h.logger.Error("verification mail failed", "email", u.Email, "error", err)
		}
	} else {
		h.logger.Warn("mail not configured, account needs manual activation", "email", u.Email)
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User created. Verification email sent!",
	})
}

// VerifyEmail activates the account behind a verification token.
// GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing verification token")
		return
	}

	u, err := h.store.GetUserByVerificationToken(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired verification token")
		return
	}
	if err := h.store.ActivateUser(r.Context(), u.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to activate account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the password, records the session, and sets the session
// cookie. The token is also returned for non-browser clients.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, u, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountInactive):
			writeError(w, http.StatusForbidden, "Please verify your email before signing in")
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			writeError(w, http.StatusInternalServerError, "Authentication error")
		}
		return
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

// Logout drops the session record and clears the cookie.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p != nil {
		if err := h.authSvc.Logout(r.Context(), p.UserID); err != nil {
			h.logger.Error("logout failed", "user_id", p.UserID, "error", err)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GoogleRedirect starts the OAuth flow.
// GET /api/auth/google
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, http.StatusNotImplemented, "Google sign-in is not configured")
		return
	}

	state, err := service.NewVerificationToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create state token")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((5 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// googleUser is the subset of the userinfo response we consume.
type googleUser struct {
	Email     string `json:"email"`
	GivenName string `json:"given_name"`
	LastName  string `json:"family_name"`
}

// GoogleCallback finishes the OAuth flow: it verifies the state, exchanges
// the code, resolves the Google profile, and signs the user in, creating the
// account on first sight. OAuth accounts skip email verification since
// Google already attests the address.
// GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		writeError(w, http.StatusNotImplemented, "Google sign-in is not configured")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "OAuth state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "OAuth code exchange failed")
		return
	}

	var profile googleUser
	resp, err := h.rest.R().
		SetContext(r.Context()).
		SetAuthToken(token.AccessToken).
		SetResult(&profile).
		Get(h.userInfoURL)
	if err != nil || resp.IsError() || profile.Email == "" {
		writeError(w, http.StatusBadGateway, "Failed to fetch Google profile")
		return
	}

	u, err := h.store.GetUserByEmail(r.Context(), profile.Email)
	if errors.Is(err, store.ErrNotFound) {
		u = &model.User{
			Email:         profile.Email,
			FirstName:     profile.GivenName,
			LastName:      profile.LastName,
			IsActive:      true,
			OAuthProvider: "google",
			CreatedBy:     profile.Email,
			ModifiedBy:    profile.Email,
		}
		err = h.store.CreateUser(r.Context(), u)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve account")
		return
	}

	sessionToken, err := h.authSvc.LoginOAuth(r.Context(), u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to establish session")
		return
	}

	setSessionCookie(w, sessionToken)
	http.Redirect(w, r, h.baseURL+"/", http.StatusTemporaryRedirect)
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(service.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
