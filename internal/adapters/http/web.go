package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"companion/internal/adapters/email"
	"companion/internal/adapters/http/middleware"
	"companion/internal/adapters/http/perf"
	"companion/internal/adapters/realtime"
	attendanceStore "companion/internal/adapters/storage/attendance"
	outboxStore "companion/internal/adapters/storage/outbox"
	sessionStore "companion/internal/adapters/storage/sessionstate"
	"companion/internal/application/orchestrators"
	"companion/internal/domain/appdata"
)

// ContentSource yields one snapshot of the studio sheet.
type ContentSource interface {
	Load(ctx context.Context) appdata.AppData
}

// Deps holds everything the handlers need.
type Deps struct {
	Content         ContentSource
	AttendanceStore attendanceStore.Store
	SessionStore    sessionStore.Store
	OutboxStore     outboxStore.Store
	Script          orchestrators.ScriptPoster
	Mailer          email.Sender // nil disables the payout report
	ReportTo        []string
	Hub             *realtime.Hub
	Sync            orchestrators.StateScheduler
	Flusher         SyncFlusher // nil when pushes are not debounced
	Tokens          *middleware.TokenService
	AdminSecretHash []byte // bcrypt hash; nil disables admin login
	TrustedOrigins  []string
}

// SyncFlusher pushes a debounced tally immediately.
type SyncFlusher interface {
	Flush(ctx context.Context) string
}

// loadCSRFKey reads the CSRF secret from COMPANION_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("COMPANION_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("COMPANION_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("COMPANION_ENV") == "production" {
		log.Fatal("COMPANION_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key. Set COMPANION_CSRF_KEY for production.")
	return key
}

// Global dependencies (set by NewMux)
var deps *Deps

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// LoginAttemptsPerMinute bounds secret guesses per IP.
var LoginAttemptsPerMinute = 5

// loginLimiter is set by NewMux.
var loginLimiter *middleware.RateLimiter

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app. staticDir may be empty when no
// front end is served.
func NewMux(staticDir string, d *Deps, collector *perf.Collector) http.Handler {
	deps = d
	perfCollector = collector
	loginLimiter = middleware.NewRateLimiter(LoginAttemptsPerMinute, time.Minute)
	middleware.SecureCookies = os.Getenv("COMPANION_ENV") == "production"

	mux := http.NewServeMux()
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	registerRoutes(mux)

	csrfKey := loadCSRFKey()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, d.TrustedOrigins),
		middleware.Auth(d.Tokens),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}

func sessionDeps() orchestrators.SessionDeps {
	sd := orchestrators.SessionDeps{
		SessionStore: deps.SessionStore,
		Sync:         deps.Sync,
		Now:          timeNow,
	}
	if deps.Hub != nil {
		sd.Hub = deps.Hub
	}
	return sd
}

func dispatchDeps() orchestrators.DispatchDeps {
	return orchestrators.DispatchDeps{
		Script:      deps.Script,
		OutboxStore: deps.OutboxStore,
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

func retryDeps() orchestrators.OutboxRetryDeps {
	return orchestrators.OutboxRetryDeps{
		OutboxStore:     deps.OutboxStore,
		AttendanceStore: deps.AttendanceStore,
		Script:          deps.Script,
		Mailer:          deps.Mailer,
		Now:             timeNow,
	}
}

func scriptConfigured() bool {
	return deps.Script != nil && deps.Script.IsConfigured()
}
