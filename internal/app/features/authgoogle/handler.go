// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/courseportal/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/dalemusser/courseportal/internal/app/system/normalize"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateTTL        = 10 * time.Minute
	googleUserInfo  = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultLanding  = "/dashboard"
	callbackSubpath = "/api/auth/google/callback"
)

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	StateStore *oauthstate.Store
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	Log        *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://api.example.edu/api/auth/google/callback"
	ClientURL    string // where the browser client lives; sign-in lands on ClientURL + "/dashboard"
	AdminEmail   string // a new account with this email is created as admin

	// Endpoint and UserInfoURL default to Google's; tests point them at a fake.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler. baseURL is the public
// address of this service and is used to build the callback URL.
func NewHandler(
	users *userstore.Store,
	stateStore *oauthstate.Store,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL, clientURL, adminEmail string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        users,
		StateStore:   stateStore,
		SessionMgr:   sessionMgr,
		Audit:        audit,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + callbackSubpath,
		ClientURL:    strings.TrimRight(clientURL, "/"),
		AdminEmail:   normalize.Email(adminEmail),
		Endpoint:     google.Endpoint,
		UserInfoURL:  googleUserInfo,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google                                                         |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToLogin(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google/callback                                                |
| Handles the OAuth callback from Google, exchanges code for tokens,           |
| fetches user info, resolves the account, and creates the session.           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.Audit.LoginFailed(ctx, r, "google_denied")
		h.redirectToLogin(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.Audit.LoginFailed(ctx, r, "invalid_state")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Consume(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.Audit.LoginFailed(ctx, r, "invalid_state")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.Audit.LoginFailed(ctx, r, "invalid_code")
		h.redirectToLogin(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.Audit.LoginFailed(ctx, r, "token_exchange")
		h.redirectToLogin(w, r, "token_exchange")
		return
	}

	googleUser, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.Audit.LoginFailed(ctx, r, "user_info")
		h.redirectToLogin(w, r, "user_info")
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email))

	lookupCtx, cancelLookup := context.WithTimeout(ctx, timeouts.Medium())
	defer cancelLookup()

	user, created, err := h.ResolveUser(lookupCtx, googleUser)
	if errors.Is(err, errUserDisabled) {
		h.Log.Info("Google OAuth: user disabled",
			zap.String("user_id", user.ID.Hex()),
			zap.String("email", googleUser.Email))
		h.Audit.LoginFailedUserDisabled(ctx, r, user.ID)
		h.redirectToLogin(w, r, "account_disabled")
		return
	}
	if errors.Is(err, errEmailUnverified) {
		h.Log.Warn("Google OAuth: unverified email for existing or admin account",
			zap.String("google_id", googleUser.ID),
			zap.String("email", googleUser.Email))
		h.Audit.LoginFailed(ctx, r, "email_unverified")
		h.redirectToLogin(w, r, "email_unverified")
		return
	}
	if err != nil {
		h.Log.Error("failed to resolve user", zap.Error(err), zap.String("email", googleUser.Email))
		h.Audit.LoginFailed(ctx, r, "user_lookup")
		h.redirectToLogin(w, r, "internal")
		return
	}

	h.createSessionAndRedirect(w, r, user, created, returnURL)
}

/*─────────────────────────────────────────────────────────────────────────────*
| User lookup                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

var (
	errUserDisabled    = errors.New("user disabled")
	errNoEmail         = errors.New("google account has no email")
	errEmailUnverified = errors.New("google email is not verified")
)

// GoogleUser is the profile returned by Google's userinfo endpoint.
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// fetchUserInfo retrieves the signed-in profile from the userinfo endpoint.
func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (GoogleUser, error) {
	client := h.oauth2Config().Client(ctx, token)

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleUser{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleUser{}, fmt.Errorf("failed to decode user info: %w", err)
	}
	return info, nil
}

// ResolveUser finds the account for a Google profile:
//  1. by Google id (already linked)
//  2. by email, linking the Google id and avatar to that account
//  3. otherwise a new account is created; its role is admin when the email
//     matches the configured admin email, student otherwise
//
// created reports whether step 3 ran. A disabled account is returned along
// with errUserDisabled. Steps 2 and 3 refuse an unverified Google email when
// it would link an existing account or grant the admin role.
func (h *Handler) ResolveUser(ctx context.Context, g GoogleUser) (u models.User, created bool, err error) {
	u, err = h.Users.GetByGoogleID(ctx, g.ID)
	switch {
	case err == nil:
	case errors.Is(err, userstore.ErrNotFound):
		u, created, err = h.linkOrCreate(ctx, g)
		if err != nil {
			return models.User{}, false, err
		}
	default:
		return models.User{}, false, fmt.Errorf("lookup by google id: %w", err)
	}

	if !u.IsActive {
		return u, false, errUserDisabled
	}
	if err := h.Users.TouchLogin(ctx, u.ID); err != nil {
		h.Log.Warn("failed to record last login", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	} else {
		now := time.Now().UTC()
		u.LastLogin = &now
	}
	return u, created, nil
}

func (h *Handler) linkOrCreate(ctx context.Context, g GoogleUser) (models.User, bool, error) {
	email := normalize.Email(g.Email)
	if email == "" {
		return models.User{}, false, errNoEmail
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err == nil {
		if !g.EmailVerified {
			return models.User{}, false, errEmailUnverified
		}
		u, err = h.Users.LinkGoogle(ctx, u.ID, g.ID, g.Picture)
		if err != nil {
			return models.User{}, false, fmt.Errorf("link google account: %w", err)
		}
		h.Log.Info("linked Google account to existing user",
			zap.String("user_id", u.ID.Hex()),
			zap.String("email", email))
		return u, false, nil
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		return models.User{}, false, fmt.Errorf("lookup by email: %w", err)
	}

	role := models.RoleStudent
	if h.AdminEmail != "" && email == h.AdminEmail {
		if !g.EmailVerified {
			return models.User{}, false, errEmailUnverified
		}
		role = models.RoleAdmin
	}
	name := g.Name
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSpace(g.GivenName + " " + g.FamilyName)
	}
	u, err = h.Users.Create(ctx, models.User{
		GoogleID: g.ID,
		Email:    email,
		Name:     name,
		Avatar:   g.Picture,
		Role:     role,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Another callback for the same account created it first.
		u, err = h.Users.GetByGoogleID(ctx, g.ID)
		if err != nil {
			return models.User{}, false, fmt.Errorf("reload created user: %w", err)
		}
		return u, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("create user: %w", err)
	}
	return u, true, nil
}

// redirectToLogin sends the browser back to the client's login page.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, h.ClientURL+"/login?error="+errorCode, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session creation                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// createSessionAndRedirect signs the user in and redirects to the client.
func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, u models.User, created bool, returnURL string) {
	err := h.SessionMgr.SignIn(w, r, &auth.SessionUser{
		ID:     u.ID.Hex(),
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
		Role:   u.Role,
	})
	if err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		h.redirectToLogin(w, r, "session")
		return
	}

	h.Audit.LoginSuccess(r.Context(), r, u.ID, u.Email, created)

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role),
		zap.Bool("new_account", created))

	http.Redirect(w, r, h.ClientURL+urlutil.SafeReturn(returnURL, "", defaultLanding), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
