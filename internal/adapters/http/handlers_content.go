package web

import (
	"net/http"
	"strings"

	"companion/internal/application/projections"
	"companion/internal/domain/media"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleData returns the whole parsed sheet. A failed fetch still answers 200
// with empty collections.
func handleData(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, deps.Content.Load(r.Context()))
}

func handleClasses(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, projections.GetClassesView(deps.Content.Load(r.Context())))
}

func handleMedia(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, projections.GetMediaView(deps.Content.Load(r.Context())))
}

func handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, projections.GetAnnouncementsView(deps.Content.Load(r.Context())))
}

// handleEmbed resolves a video or playlist link to its player URL.
func handleEmbed(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	embed, ok := media.ResolveEmbed(raw)
	if !ok {
		http.Error(w, "no video found in url", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"embed": media.PlayerURL(embed)})
}
