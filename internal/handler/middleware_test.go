package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/handler"
	"github.com/pocketlearn/pocketlearn/internal/repository/sqlite"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

const testCookieSecret = "0123456789abcdef0123456789abcdef"

// learningAPIStub fakes the upstream learning API with two known accounts,
// one of them an admin.
func learningAPIStub() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch body["email"] {
		case "learner@example.com":
			json.NewEncoder(w).Encode(map[string]string{"access": "learner-access", "refresh": "learner-refresh"})
		case "admin@example.com":
			json.NewEncoder(w).Encode(map[string]string{"access": "admin-access", "refresh": "admin-refresh"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found"})
		}
	})
	mux.HandleFunc("GET /users/me/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer learner-access":
			json.NewEncoder(w).Encode(map[string]any{
				"id": 1, "email": "learner@example.com", "first_name": "Lea", "is_admin": false,
			})
		case "Bearer admin-access":
			json.NewEncoder(w).Encode(map[string]any{
				"id": 2, "email": "admin@example.com", "first_name": "Ada", "is_admin": true,
			})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	mux.HandleFunc("GET /modules/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{})
	})
	mux.HandleFunc("GET /progress/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{})
	})
	return mux
}

// newTestApp wires the full handler stack over the given upstream and
// returns a server plus a client that keeps cookies and never follows
// redirects, so guard behavior stays observable.
func newTestApp(t *testing.T, upstream http.Handler) (*httptest.Server, *http.Client) {
	t.Helper()

	upstreamSrv := httptest.NewServer(upstream)
	t.Cleanup(upstreamSrv.Close)

	db, err := sqlite.New(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := api.New(upstreamSrv.URL, nil)
	sessions := service.NewSessionManager(client, db.Sessions())
	progress := service.NewProgressService(client)
	content := service.NewContentService(client)
	player := service.NewPlayerService(client, progress)
	cookies := handler.NewSessionCookie(testCookieSecret, false)
	limiter := service.NewLoginLimiter(100, 100)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, sessions, content, progress, player, cookies, limiter)

	srv := httptest.NewServer(handler.SecurityHeaders(handler.WithSession(sessions, cookies, mux)))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	httpClient := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, httpClient
}

func login(t *testing.T, srv *httptest.Server, client *http.Client, email string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": "password123"})
	resp, err := client.Post(srv.URL+"/api/session/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
}

func TestRequireAuth_AnonymousRedirectsToLogin(t *testing.T) {
	srv, client := newTestApp(t, learningAPIStub())

	resp, err := client.Get(srv.URL + "/modules")
	if err != nil {
		t.Fatalf("GET /modules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireAuth_AuthenticatedPasses(t *testing.T) {
	srv, client := newTestApp(t, learningAPIStub())
	login(t, srv, client, "learner@example.com")

	resp, err := client.Get(srv.URL + "/modules")
	if err != nil {
		t.Fatalf("GET /modules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRequireAdmin_AnonymousRedirectsToLogin(t *testing.T) {
	srv, client := newTestApp(t, learningAPIStub())

	resp, err := client.Get(srv.URL + "/admin/modules")
	if err != nil {
		t.Fatalf("GET /admin/modules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireAdmin_NonAdminRedirectsHome(t *testing.T) {
	srv, client := newTestApp(t, learningAPIStub())
	login(t, srv, client, "learner@example.com")

	resp, err := client.Get(srv.URL + "/admin/modules")
	if err != nil {
		t.Fatalf("GET /admin/modules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestRequireAdmin_AdminPasses(t *testing.T) {
	srv, client := newTestApp(t, learningAPIStub())
	login(t, srv, client, "admin@example.com")

	resp, err := client.Get(srv.URL + "/admin/modules")
	if err != nil {
		t.Fatalf("GET /admin/modules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWithSession_StaleCookieIsCleared(t *testing.T) {
	srv, client := newTestApp(t, learningAPIStub())

	// Sign a cookie for a session that was never stored. The restore
	// yields an anonymous request and the cookie is expired in the
	// response.
	cookies := handler.NewSessionCookie(testCookieSecret, false)
	rec := httptest.NewRecorder()
	if err := cookies.Issue(rec, "no-such-session"); err != nil {
		t.Fatalf("issue cookie: %v", err)
	}
	stale := rec.Result().Cookies()
	if len(stale) != 1 {
		t.Fatalf("expected one issued cookie, got %d", len(stale))
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/modules", nil)
	req.AddCookie(stale[0])
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET /modules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	cleared := false
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if strings.Contains(sc, "pl_session=") && strings.Contains(sc, "Max-Age=0") {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the stale session cookie to be expired")
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, client := newTestApp(t, learningAPIStub())

	resp, err := client.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
