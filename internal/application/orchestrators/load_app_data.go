package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"companion/internal/domain/appdata"
	"companion/internal/domain/sheet"
)

// LoadAppDataDeps holds dependencies for LoadAppData.
type LoadAppDataDeps struct {
	Fetcher GridFetcher
	Options sheet.ParseOptions
}

// ExecuteLoadAppData fetches the sheet and parses it into AppData.
// Any fetch error or panic during parsing is logged and replaced by the
// all-empty default; callers never see a failure.
// PRE: deps.Fetcher is non-nil
// POST: Returns AppData with all four lists non-nil
func ExecuteLoadAppData(ctx context.Context, deps LoadAppDataDeps) (data appdata.AppData) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sheet_load_failed", "stage", "parse", "panic", fmt.Sprint(r))
			data = appdata.Empty()
		}
	}()

	grid, err := deps.Fetcher.Fetch(ctx)
	if err != nil {
		slog.Error("sheet_load_failed", "stage", "fetch", "error", err)
		return appdata.Empty()
	}

	data, report := sheet.Parse(grid, deps.Options)
	for _, section := range report.Fallbacks {
		slog.Debug("sheet_section_fallback", "section", section)
	}
	for _, section := range report.Skipped {
		slog.Warn("sheet_section_skipped", "section", section)
	}
	if data.IsEmpty() {
		slog.Warn("sheet_loaded_empty", "rows", len(grid), "skipped", len(report.Skipped))
		return data
	}
	slog.Debug("sheet_loaded",
		"rows", len(grid),
		"classes", len(data.Classes),
		"songs", len(data.Songs),
		"videos", len(data.Videos),
		"announcements", len(data.Announcements),
	)
	return data
}

// AppDataLoader coalesces concurrent loads so at most one sheet fetch is in
// flight. Every waiter of a flight receives the same snapshot, which must be
// treated as read-only.
type AppDataLoader struct {
	deps  LoadAppDataDeps
	group singleflight.Group
}

// NewAppDataLoader creates a loader over deps.
func NewAppDataLoader(deps LoadAppDataDeps) *AppDataLoader {
	return &AppDataLoader{deps: deps}
}

// Load returns a freshly fetched AppData. A caller whose context ends first
// gets the empty default while the shared fetch completes for the others.
// POST: Returns AppData with all four lists non-nil
func (l *AppDataLoader) Load(ctx context.Context) appdata.AppData {
	ch := l.group.DoChan("appdata", func() (any, error) {
		return ExecuteLoadAppData(context.WithoutCancel(ctx), l.deps), nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("sheet_load_shared")
		}
		return res.Val.(appdata.AppData)
	case <-ctx.Done():
		slog.Warn("sheet_load_abandoned", "error", ctx.Err())
		return appdata.Empty()
	}
}
