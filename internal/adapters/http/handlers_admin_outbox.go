package web

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"

	"companion/internal/application/listutil"
	"companion/internal/application/orchestrators"
	"companion/internal/application/projections"
	"companion/internal/domain/outbox"
)

var outboxStatuses = []string{
	outbox.StatusPending,
	outbox.StatusRetrying,
	outbox.StatusDone,
	outbox.StatusFailed,
	outbox.StatusAbandoned,
}

// handleListOutbox lists recent dispatches waiting to reach the sheet.
// Query: status (one of the entry statuses, default all), limit (1-100, default 50)
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && !slices.Contains(outboxStatuses, status) {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	view, err := projections.GetOutboxView(r.Context(), status, listutil.ParseLimit(q, 50, 100), deps.OutboxStore)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleRetryOutbox attempts one entry now, ignoring its backoff.
func handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	entry, err := orchestrators.ExecuteRetryOutboxEntry(r.Context(), r.PathValue("id"), retryDeps())
	if writeOutboxError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, projections.NewOutboxRow(entry))
}

// handleAbandonOutbox stops an entry from being replayed.
func handleAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	entry, err := orchestrators.ExecuteAbandonOutboxEntry(r.Context(), r.PathValue("id"), retryDeps())
	if writeOutboxError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, projections.NewOutboxRow(entry))
}

func writeOutboxError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "outbox entry not found", http.StatusNotFound)
	case errors.Is(err, orchestrators.ErrNotRetryable), errors.Is(err, outbox.ErrNotAbandonable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		internalError(w, err)
	}
	return true
}
