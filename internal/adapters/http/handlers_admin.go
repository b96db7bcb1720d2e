package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"companion/internal/adapters/http/middleware"
	"companion/internal/application/listutil"
	"companion/internal/application/orchestrators"
	"companion/internal/application/projections"
	"companion/internal/domain/attendance"
	"companion/internal/domain/export"
)

// --- Login ---

type loginRequest struct {
	Secret string `json:"secret"`
}

// handleAdminLogin exchanges the studio's shared secret for an admin token,
// returned in the body and as a cookie.
func handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteAdminLogin(r.Context(), orchestrators.AdminLoginInput{
		Secret:   req.Secret,
		RemoteIP: remoteIP(r),
	}, orchestrators.AdminLoginDeps{
		SecretHash: deps.AdminSecretHash,
		Tokens:     deps.Tokens,
		Now:        timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrInvalidSecret):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, orchestrators.ErrAdminDisabled):
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		internalError(w, err)
		return
	}
	middleware.SetAdminCookie(w, result.Token, result.ExpiresAt)
	writeJSON(w, http.StatusOK, result)
}

func handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearAdminCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// --- Session ---

func writeSessionView(w http.ResponseWriter, r *http.Request, status int) {
	view, err := projections.GetSessionView(r.Context(), deps.SessionStore, scriptConfigured(), timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	noStore(w)
	writeJSON(w, status, view)
}

func handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeSessionView(w, r, http.StatusOK)
}

// handlePutSession replaces tonight's tally. Fields left out of the body fall
// back to their defaults.
func handlePutSession(w http.ResponseWriter, r *http.Request) {
	var s attendance.SessionState
	if err := strictDecode(r, &s); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := orchestrators.ExecuteUpdateSession(r.Context(), orchestrators.UpdateSessionInput{State: s}, sessionDeps()); err != nil {
		writeOrchestratorError(w, err)
		return
	}
	writeSessionView(w, r, http.StatusOK)
}

func handleResetSession(w http.ResponseWriter, r *http.Request) {
	if _, err := orchestrators.ExecuteResetSession(r.Context(), sessionDeps()); err != nil {
		internalError(w, err)
		return
	}
	writeSessionView(w, r, http.StatusOK)
}

// handleSyncSession pushes the tally to the sheet now instead of waiting for
// the debounce.
func handleSyncSession(w http.ResponseWriter, r *http.Request) {
	var dispatch string
	if deps.Flusher != nil {
		dispatch = deps.Flusher.Flush(r.Context())
	}
	if dispatch == "" {
		s, ok, err := deps.SessionStore.Get(r.Context())
		if err != nil {
			internalError(w, err)
			return
		}
		if !ok {
			s = attendance.NewSessionState(timeNow().Format(attendance.DateLayout))
		}
		s.Normalize()
		if dispatch, err = orchestrators.ExecuteSyncSession(r.Context(), s, dispatchDeps()); err != nil {
			internalError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"dispatch": dispatch})
}

// --- Attendance ---

// handleCommitAttendance records the night. The body may carry the tally to
// commit; an empty body commits the saved session.
func handleCommitAttendance(w http.ResponseWriter, r *http.Request) {
	var s attendance.SessionState
	err := strictDecode(r, &s)
	switch {
	case errors.Is(err, io.EOF):
		saved, ok, getErr := deps.SessionStore.Get(r.Context())
		if getErr != nil {
			internalError(w, getErr)
			return
		}
		if !ok {
			http.Error(w, "no session to commit", http.StatusConflict)
			return
		}
		s = saved
	case err != nil:
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := orchestrators.ExecuteCommitAttendance(r.Context(), orchestrators.CommitAttendanceInput{State: s}, orchestrators.CommitAttendanceDeps{
		AttendanceStore: deps.AttendanceStore,
		Dispatch:        dispatchDeps(),
		Mailer:          deps.Mailer,
		ReportTo:        deps.ReportTo,
		GenerateID:      generateID,
		Now:             timeNow,
	})
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func handleListAttendance(w http.ResponseWriter, r *http.Request) {
	view, err := projections.GetAttendanceLedger(r.Context(), listutil.ParsePageParams(r.URL.Query()), deps.AttendanceStore)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleExportAttendance downloads the whole ledger.
// Query: format (json or csv, default json)
func handleExportAttendance(w http.ResponseWriter, r *http.Request) {
	format, err := export.NormalizeFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := timeNow()
	data, err := projections.GetLedgerExport(r.Context(), format, now, deps.AttendanceStore)
	if err != nil {
		internalError(w, err)
		return
	}

	var body []byte
	contentType := "application/json"
	if format == export.FormatCSV {
		body, err = data.ToCSV()
		contentType = "text/csv; charset=utf-8"
	} else {
		body, err = data.ToJSON()
	}
	if err != nil {
		internalError(w, err)
		return
	}
	noStore(w)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.%s"`, now.Format(attendance.DateLayout), format))
	_, _ = w.Write(body)
}

type compedRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
	Date  string `json:"date"`
}

type compedResponse struct {
	Comped  attendance.CompedRecord `json:"comped"`
	Session attendance.SessionState `json:"session"`
	Tally   attendance.Tally        `json:"tally"`
}

func handleAddComped(w http.ResponseWriter, r *http.Request) {
	var req compedRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	c, s, err := orchestrators.ExecuteAddComped(r.Context(), orchestrators.AddCompedInput{
		Name:  req.Name,
		Notes: req.Notes,
		Date:  req.Date,
	}, orchestrators.AddCompedDeps{
		AttendanceStore: deps.AttendanceStore,
		Session:         sessionDeps(),
		Dispatch:        dispatchDeps(),
		GenerateID:      generateID,
	})
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, compedResponse{Comped: c, Session: s, Tally: s.Tally()})
}

// --- Perf ---

// defaultPerfWindow is how far back the perf snapshot looks unless ?minutes= is given.
const defaultPerfWindow = 15 * time.Minute

func handlePerf(w http.ResponseWriter, r *http.Request) {
	window := defaultPerfWindow
	if v := r.URL.Query().Get("minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 24*60 {
			window = time.Duration(n) * time.Minute
		}
	}
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	snap := perfCollector.Snapshot(time.Now().Add(-window), 10)
	clients := 0
	if deps.Hub != nil {
		clients = deps.Hub.Stats().Clients
	}
	noStore(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"window":           window.String(),
		"websocketClients": clients,
		"snapshot":         snap,
	})
}
