package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "companion/internal/adapters/email"
	web "companion/internal/adapters/http"
	"companion/internal/adapters/http/middleware"
	"companion/internal/adapters/http/perf"
	"companion/internal/adapters/realtime"
	"companion/internal/adapters/script"
	"companion/internal/adapters/sheets"
	"companion/internal/adapters/storage"
	attendanceStore "companion/internal/adapters/storage/attendance"
	outboxStorePkg "companion/internal/adapters/storage/outbox"
	sessionStorePkg "companion/internal/adapters/storage/sessionstate"
	"companion/internal/application/orchestrators"
	"companion/internal/domain/sheet"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// config is the server configuration, read once from the environment.
type config struct {
	Addr           string
	Env            string
	DBPath         string
	StaticDir      string
	Sheet          sheets.Config
	ScriptURL      string
	AdminSecret    string
	JWTSecret      string
	ResendKey      string
	ReportFrom     string
	ReportTo       []string
	TrustedOrigins []string
	LogLevel       slog.Level
}

func (c config) production() bool { return c.Env == "production" }

func loadConfig(getenv func(string) string) config {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}
	return config{
		Addr:      get("COMPANION_ADDR", ":8080"),
		Env:       get("COMPANION_ENV", "development"),
		DBPath:    get("COMPANION_DB_PATH", "companion.db"),
		StaticDir: get("COMPANION_STATIC_DIR", ""),
		Sheet: sheets.Config{
			BaseURL:       get("COMPANION_SHEET_BASE_URL", sheets.DefaultBaseURL),
			SpreadsheetID: get("COMPANION_SPREADSHEET_ID", ""),
			SheetName:     get("COMPANION_SHEET_NAME", "webapp data"),
			Format:        get("COMPANION_SHEET_FORMAT", sheets.FormatJSON),
		},
		ScriptURL:      get("COMPANION_SCRIPT_URL", ""),
		AdminSecret:    get("COMPANION_ADMIN_SECRET", ""),
		JWTSecret:      get("COMPANION_JWT_SECRET", ""),
		ResendKey:      get("COMPANION_RESEND_KEY", ""),
		ReportFrom:     get("COMPANION_REPORT_FROM", "Dance Night <noreply@example.com>"),
		ReportTo:       splitList(get("COMPANION_REPORT_TO", "")),
		TrustedOrigins: splitList(get("COMPANION_TRUSTED_ORIGINS", "")),
		LogLevel:       parseLevel(get("COMPANION_LOG_LEVEL", "info")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// signingKey returns the JWT secret. Development falls back to a random key,
// so tokens do not survive a restart.
func signingKey(cfg config) []byte {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret)
	}
	if cfg.production() && cfg.AdminSecret != "" {
		log.Fatal("COMPANION_JWT_SECRET is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate token key: %v", err)
	}
	slog.Warn("using random token key (admin logins won't survive restart)")
	return key
}

func main() {
	cfg := loadConfig(os.Getenv)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	db, err := sql.Open("sqlite", cfg.DBPath+storage.DSNPragmas)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	attendance := attendanceStore.NewSQLiteStore(timedDB)
	sessions := sessionStorePkg.NewSQLiteStore(timedDB)
	outboxStore := outboxStorePkg.NewSQLiteStore(timedDB)

	fetcher := sheets.NewFetcher(cfg.Sheet, nil, nil).WithCollector(collector)
	if cfg.Sheet.SpreadsheetID == "" {
		slog.Warn("COMPANION_SPREADSHEET_ID is not set; content endpoints will serve empty data")
	}
	loader := orchestrators.NewAppDataLoader(orchestrators.LoadAppDataDeps{
		Fetcher: fetcher,
		Options: sheet.ParseOptions{},
	})

	scriptClient := script.NewClient(cfg.ScriptURL, nil).WithCollector(collector)
	if !scriptClient.IsConfigured() {
		slog.Warn("COMPANION_SCRIPT_URL is not set; attendance stays in the local ledger only")
	}

	var mailer emailPkg.Sender
	if cfg.ResendKey != "" {
		mailer = emailPkg.NewResendSender(cfg.ResendKey, cfg.ReportFrom)
		slog.Info("email sender configured", "provider", "resend", "recipients", len(cfg.ReportTo))
	} else {
		mailer = emailPkg.NewNoopSender()
		if cfg.production() && len(cfg.ReportTo) > 0 {
			slog.Warn("COMPANION_RESEND_KEY is not set; payout reports are DISABLED in production")
		}
	}

	secretHash, err := orchestrators.HashAdminSecret(cfg.AdminSecret)
	if err != nil {
		log.Fatalf("failed to hash admin secret: %v", err)
	}
	if secretHash == nil {
		slog.Warn("COMPANION_ADMIN_SECRET is not set; admin endpoints are disabled")
	}
	tokens := middleware.NewTokenService(signingKey(cfg))

	dispatch := orchestrators.DispatchDeps{
		Script:      scriptClient,
		OutboxStore: outboxStore,
		GenerateID:  uuid.NewString,
		Now:         time.Now,
	}
	hub := realtime.NewHub()
	syncer := orchestrators.NewDebouncedSync(dispatch, orchestrators.DefaultSyncDelay)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	restoreDeps := orchestrators.RestoreSessionDeps{SessionStore: sessions, Now: time.Now}
	if scriptClient.IsConfigured() {
		restoreDeps.Script = scriptClient
	}
	restoreCtx, cancelRestore := context.WithTimeout(ctx, script.DefaultTimeout)
	if _, _, err := orchestrators.ExecuteRestoreSession(restoreCtx, restoreDeps); err != nil {
		slog.Error("session_restore_failed", "error", err)
	}
	cancelRestore()

	stopRetry := orchestrators.StartOutboxRetryScheduler(ctx, orchestrators.OutboxRetryDeps{
		OutboxStore:     outboxStore,
		AttendanceStore: attendance,
		Script:          scriptClient,
		Mailer:          mailer,
		Now:             time.Now,
	}, orchestrators.DefaultOutboxRetryConfig())

	handler := web.NewMux(cfg.StaticDir, &web.Deps{
		Content:         loader,
		AttendanceStore: attendance,
		SessionStore:    sessions,
		OutboxStore:     outboxStore,
		Script:          scriptClient,
		Mailer:          mailer,
		ReportTo:        cfg.ReportTo,
		Hub:             hub,
		Sync:            syncer,
		Flusher:         syncer,
		Tokens:          tokens,
		AdminSecretHash: secretHash,
		TrustedOrigins:  cfg.TrustedOrigins,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("server starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
	stopRetry()
	if dispatch := syncer.Flush(shutdownCtx); dispatch != "" {
		slog.Info("session_event", "event", "final_sync", "dispatch", dispatch)
	}
}
