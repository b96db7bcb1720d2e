package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	web "companion/internal/adapters/http"
	"companion/internal/adapters/http/middleware"
	"companion/internal/adapters/http/perf"
	"companion/internal/adapters/realtime"
	"companion/internal/adapters/storage"
	attendanceStore "companion/internal/adapters/storage/attendance"
	outboxStore "companion/internal/adapters/storage/outbox"
	sessionStore "companion/internal/adapters/storage/sessionstate"
	"companion/internal/application/orchestrators"
	"companion/internal/domain/appdata"
	"companion/internal/domain/danceclass"
)

const adminSecret = "TestSecret123!"

// staticContent serves a fixed AppData instead of fetching the sheet.
type staticContent struct{ data appdata.AppData }

func (s staticContent) Load(context.Context) appdata.AppData { return s.data }

func sampleData() appdata.AppData {
	data := appdata.Empty()
	data.Classes = []danceclass.DanceClass{{ID: "class-1", Name: "Beginner Salsa", Content: "Basic, Right turn, Cross body lead"}}
	return data
}

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	Hub     *realtime.Hub
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// skipUnlessBrowser skips unless browser tests were asked for; they need the
// Playwright driver and a Chromium install.
func skipUnlessBrowser(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("COMPANION_BROWSER_TESTS") != "1" {
		t.Skip("set COMPANION_BROWSER_TESTS=1 to run browser tests")
	}
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+storage.DSNPragmas)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	secretHash, err := orchestrators.HashAdminSecret(adminSecret)
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	collector := perf.NewCollector(perf.DefaultRingSize)
	timed := storage.NewTimedDB(db, collector)
	outbox := outboxStore.NewSQLiteStore(timed)
	hub := realtime.NewHub()
	dispatch := orchestrators.DispatchDeps{OutboxStore: outbox, Now: time.Now}

	handler := web.NewMux("", &web.Deps{
		Content:         staticContent{data: sampleData()},
		AttendanceStore: attendanceStore.NewSQLiteStore(timed),
		SessionStore:    sessionStore.NewSQLiteStore(timed),
		OutboxStore:     outbox,
		Hub:             hub,
		Sync:            orchestrators.NewDebouncedSync(dispatch, 50*time.Millisecond),
		Tokens:          middleware.NewTokenService([]byte("browser-test-signing-key")),
		AdminSecretHash: secretHash,
		TrustedOrigins:  []string{fmt.Sprintf("127.0.0.1:%d", port), fmt.Sprintf("localhost:%d", port)},
	}, collector)

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: handler,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		Hub:     hub,
		PW:      pw,
		Browser: browser,
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		hub.Close()
		srv.Close()
		db.Close()
	})
	return app
}

// newPage opens a tab on the app's origin so fetch and WebSocket are same-origin.
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	if _, err := page.Goto(a.BaseURL + "/health"); err != nil {
		t.Fatalf("failed to navigate to health: %v", err)
	}
	return page
}

// login posts the admin secret from the page; the token lands in the admin cookie.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	status, err := page.Evaluate(`async (secret) => {
		const res = await fetch("/api/admin/login", {
			method: "POST",
			headers: {"Content-Type": "application/json"},
			body: JSON.stringify({secret}),
		});
		return res.status;
	}`, adminSecret)
	if err != nil {
		t.Fatalf("login script failed: %v", err)
	}
	if asInt(status) != http.StatusOK {
		t.Fatalf("login status = %v, want 200", status)
	}
}

// asInt normalizes a number returned from Evaluate.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return -1
}
