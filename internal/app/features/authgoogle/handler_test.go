package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/courseportal/internal/app/features/authgoogle"
	"github.com/dalemusser/courseportal/internal/app/store/audit"
	"github.com/dalemusser/courseportal/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/app/system/auditlog"
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/courseportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const clientURL = "http://client.test"

func newTestHandler(t *testing.T, clientID, clientSecret string) (*authgoogle.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager(strings.Repeat("k", 32), "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	h := authgoogle.NewHandler(
		userstore.New(db),
		oauthstate.New(db),
		sessionMgr,
		auditlog.New(audit.New(db), logger, auditlog.Config{}),
		clientID,
		clientSecret,
		"http://localhost:8080",
		clientURL,
		"Dean@Example.com",
		logger,
	)
	return h, db
}

// fakeGoogle serves the token and userinfo endpoints for one profile.
func fakeGoogle(t *testing.T, profile authgoogle.GoogleUser) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIsConfigured(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id", "test-client-secret")
	if !h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
	h.ClientSecret = ""
	if h.IsConfigured() {
		t.Error("IsConfigured() should return false without a client secret")
	}
}

func TestNewHandler_BuildsCallbackURL(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")
	if h.RedirectURL != "http://localhost:8080/api/auth/google/callback" {
		t.Errorf("RedirectURL = %q", h.RedirectURL)
	}
	if h.AdminEmail != "dean@example.com" {
		t.Errorf("AdminEmail = %q, want normalized", h.AdminEmail)
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, "", "")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/api/auth/google", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != clientURL+"/login?error=google_not_configured" {
		t.Errorf("Location = %q", loc)
	}
}

func TestServeLogin_RedirectsToGoogleAndStoresState(t *testing.T) {
	h, db := newTestHandler(t, "test-client-id", "test-client-secret")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/api/auth/google?return=/courses", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "accounts.google.com") {
		t.Errorf("Location = %q, want to contain 'accounts.google.com'", location)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	var st oauthstate.State
	if err := db.Collection("oauth_states").FindOne(ctx, bson.M{}).Decode(&st); err != nil {
		t.Fatalf("state not stored: %v", err)
	}
	if st.ReturnURL != "/courses" {
		t.Errorf("ReturnURL = %q, want /courses", st.ReturnURL)
	}
	if !strings.Contains(location, "state=") {
		t.Errorf("Location = %q, want a state parameter", location)
	}
}

func TestServeCallback_Rejections(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id", "test-client-secret")

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"google error", "/callback?error=access_denied", "google_denied"},
		{"missing state", "/callback?code=test-code", "invalid_state"},
		{"unknown state", "/callback?state=invalid-state&code=test-code", "invalid_state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeCallback(rec, httptest.NewRequest("GET", tt.target, nil))

			if rec.Code != http.StatusSeeOther {
				t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != clientURL+"/login?error="+tt.want {
				t.Errorf("Location = %q, want error %s", loc, tt.want)
			}
		})
	}
}

func TestServeCallback_SignsInNewUser(t *testing.T) {
	h, db := newTestHandler(t, "test-client-id", "test-client-secret")
	srv := fakeGoogle(t, authgoogle.GoogleUser{
		ID: "google-123", Email: "Ada@Example.com", EmailVerified: true, Name: "Ada Lovelace", Picture: "https://img/ada.png",
	})
	h.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.UserInfoURL = srv.URL + "/userinfo"

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := h.StateStore.Save(ctx, "state-1", "", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save state: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/callback?state=state-1&code=abc", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != clientURL+"/dashboard" {
		t.Errorf("Location = %q, want %s/dashboard", loc, clientURL)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "test-session=") {
		t.Error("session cookie not set")
	}

	u, err := h.Users.GetByGoogleID(ctx, "google-123")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Email != "ada@example.com" || u.Role != models.RoleStudent || u.LastLogin == nil {
		t.Errorf("user = %+v", u)
	}

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventLoginSuccess})
	if err != nil || n != 1 {
		t.Errorf("login audit events = %d (%v), want 1", n, err)
	}

	// The state token is single use.
	rec = httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/callback?state=state-1&code=abc", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "invalid_state") {
		t.Errorf("replayed state Location = %q", loc)
	}
}

func TestServeCallback_UnverifiedEmailForExistingAccount(t *testing.T) {
	h, db := newTestHandler(t, "test-client-id", "test-client-secret")
	fx := testutil.NewFixtures(t, db)
	srv := fakeGoogle(t, authgoogle.GoogleUser{ID: "google-imposter", Email: "grace@example.com", Name: "Grace"})
	h.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.UserInfoURL = srv.URL + "/userinfo"

	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateStudentUser(ctx, "Grace", "grace@example.com")
	if err := h.StateStore.Save(ctx, "state-2", "", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save state: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/callback?state=state-2&code=abc", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != clientURL+"/login?error=email_unverified" {
		t.Errorf("Location = %q, want error email_unverified", loc)
	}
	if strings.Contains(rec.Header().Get("Set-Cookie"), "test-session=") {
		t.Error("session cookie set for an unverified email")
	}
	if _, err := h.Users.GetByGoogleID(ctx, "google-imposter"); err == nil {
		t.Error("unverified Google account was linked")
	}

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{
		"event_type":     audit.EventLoginFailed,
		"failure_reason": "email_unverified",
	})
	if err != nil || n != 1 {
		t.Errorf("login_failed email_unverified events = %d (%v), want 1", n, err)
	}
}

func TestResolveUser(t *testing.T) {
	h, db := newTestHandler(t, "id", "secret")
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	t.Run("creates admin for configured email", func(t *testing.T) {
		u, created, err := h.ResolveUser(ctx, authgoogle.GoogleUser{ID: "g-dean", Email: "dean@example.com", EmailVerified: true, Name: "Dean"})
		if err != nil {
			t.Fatalf("ResolveUser: %v", err)
		}
		if !created || u.Role != models.RoleAdmin {
			t.Errorf("created=%v role=%q, want new admin", created, u.Role)
		}
	})

	t.Run("links existing account by email", func(t *testing.T) {
		existing := fx.CreateStudentUser(ctx, "Grace", "grace@example.com")
		u, created, err := h.ResolveUser(ctx, authgoogle.GoogleUser{ID: "g-grace", Email: "GRACE@example.com", EmailVerified: true, Picture: "https://img/g.png"})
		if err != nil {
			t.Fatalf("ResolveUser: %v", err)
		}
		if created || u.ID != existing.ID {
			t.Errorf("got user %s (created=%v), want existing %s", u.ID.Hex(), created, existing.ID.Hex())
		}
		if u.GoogleID != "g-grace" || u.Avatar != "https://img/g.png" {
			t.Errorf("google account not linked: %+v", u)
		}
	})

	t.Run("finds by google id", func(t *testing.T) {
		existing := fx.CreateStudentUser(ctx, "Alan", "alan@example.com")
		u, created, err := h.ResolveUser(ctx, authgoogle.GoogleUser{ID: existing.GoogleID, Email: "other@example.com"})
		if err != nil {
			t.Fatalf("ResolveUser: %v", err)
		}
		if created || u.ID != existing.ID {
			t.Errorf("got user %s, want %s", u.ID.Hex(), existing.ID.Hex())
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		existing := fx.CreateStudentUser(ctx, "Off", "off@example.com")
		if _, err := h.Users.SetActive(ctx, existing.ID, false); err != nil {
			t.Fatalf("SetActive: %v", err)
		}
		if _, _, err := h.ResolveUser(ctx, authgoogle.GoogleUser{ID: existing.GoogleID}); err == nil {
			t.Error("expected an error for a disabled account")
		}
	})

	t.Run("unverified email does not link an existing account", func(t *testing.T) {
		existing := fx.CreateStudentUser(ctx, "Hopper", "hopper@example.com")
		if _, _, err := h.ResolveUser(ctx, authgoogle.GoogleUser{ID: "g-hopper", Email: "hopper@example.com"}); err == nil {
			t.Fatal("expected an error for an unverified email matching an existing account")
		}
		stored, err := h.Users.GetByID(ctx, existing.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if stored.GoogleID != existing.GoogleID {
			t.Errorf("GoogleID = %q, want unchanged %q", stored.GoogleID, existing.GoogleID)
		}
		if _, err := h.Users.GetByGoogleID(ctx, "g-hopper"); err == nil {
			t.Error("unverified Google id was linked")
		}
	})

	t.Run("unverified admin email is not granted admin", func(t *testing.T) {
		h2, db2 := newTestHandler(t, "id", "secret")
		if _, _, err := h2.ResolveUser(ctx, authgoogle.GoogleUser{ID: "g-fake-dean", Email: "dean@example.com"}); err == nil {
			t.Fatal("expected an error for an unverified admin email")
		}
		n, err := db2.Collection("users").CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
		if err != nil || n != 0 {
			t.Errorf("admin users = %d (%v), want 0", n, err)
		}
	})

	t.Run("unverified email still creates a student", func(t *testing.T) {
		u, created, err := h.ResolveUser(ctx, authgoogle.GoogleUser{ID: "g-new", Email: "newcomer@example.com"})
		if err != nil {
			t.Fatalf("ResolveUser: %v", err)
		}
		if !created || u.Role != models.RoleStudent {
			t.Errorf("created=%v role=%q, want new student", created, u.Role)
		}
	})

	t.Run("no email", func(t *testing.T) {
		if _, _, err := h.ResolveUser(ctx, authgoogle.GoogleUser{ID: "g-nobody"}); err == nil {
			t.Error("expected an error for a profile without email")
		}
	})
}

func TestRoutes(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")
	if authgoogle.Routes(h) == nil {
		t.Fatal("Routes() returned nil")
	}
}
