package web

import (
	"net/http"

	"companion/internal/adapters/http/middleware"
	"companion/internal/adapters/realtime"
)

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)

	// Public content, read fresh from the sheet on every request
	mux.HandleFunc("GET /api/data", handleData)
	mux.HandleFunc("GET /api/classes", handleClasses)
	mux.HandleFunc("GET /api/media", handleMedia)
	mux.HandleFunc("GET /api/announcements", handleAnnouncements)
	mux.HandleFunc("GET /api/embed", handleEmbed)

	mux.Handle("POST /api/admin/login", middleware.RateLimit(loginLimiter)(http.HandlerFunc(handleAdminLogin)))
	mux.HandleFunc("POST /api/admin/logout", handleAdminLogout)

	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }
	mux.Handle("GET /api/admin/session", admin(handleGetSession))
	mux.Handle("PUT /api/admin/session", admin(handlePutSession))
	mux.Handle("POST /api/admin/session/reset", admin(handleResetSession))
	mux.Handle("POST /api/admin/session/sync", admin(handleSyncSession))
	mux.Handle("GET /api/admin/attendance", admin(handleListAttendance))
	mux.Handle("POST /api/admin/attendance", admin(handleCommitAttendance))
	mux.Handle("GET /api/admin/attendance/export", admin(handleExportAttendance))
	mux.Handle("POST /api/admin/comped", admin(handleAddComped))
	mux.Handle("GET /api/admin/outbox", admin(handleListOutbox))
	mux.Handle("POST /api/admin/outbox/{id}/retry", admin(handleRetryOutbox))
	mux.Handle("POST /api/admin/outbox/{id}/abandon", admin(handleAbandonOutbox))
	mux.Handle("GET /api/admin/perf", admin(handlePerf))

	if deps.Hub != nil {
		mux.Handle("GET /ws/session", middleware.RequireAdmin(realtime.Handler(deps.Hub, nil)))
	}
}
