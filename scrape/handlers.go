package scrape

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/commentdrop/runlog"
)

// Handler exposes the scraper over HTTP.
type Handler struct {
	scraper *Scraper
	store   *runlog.Store
	host    string
	log     *slog.Logger
}

// NewHandler wires a Scraper to HTTP. store may be nil to skip run
// recording. host restricts scrape targets; empty means pump.fun.
func NewHandler(s *Scraper, store *runlog.Store, host string, log *slog.Logger) *Handler {
	if host == "" {
		host = "pump.fun"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{scraper: s, store: store, host: host, log: log}
}

// Mount registers the scrape routes on a chi router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/scrape", h.handleScrape)
}

func (h *Handler) handleScrape(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 32*1024)

	var req struct {
		URL   string `json:"url"`
		XPath string `json:"xpath,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		jsonErr(w, "url is required", http.StatusBadRequest)
		return
	}
	if !h.allowedURL(req.URL) {
		jsonErr(w, "url must be a "+h.host+" page", http.StatusBadRequest)
		return
	}

	res, err := h.scraper.Run(r.Context(), req.URL, req.XPath)
	if err != nil {
		h.log.Error("scrape: run failed", "url", req.URL, "error", err)
		if errors.Is(err, ErrPageFault) {
			jsonErr(w, "page could not be loaded", http.StatusInternalServerError)
			return
		}
		jsonErr(w, "scrape failed", http.StatusInternalServerError)
		return
	}

	runID := h.record(req.URL, res)

	if len(res.Commenters) == 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   "no commenters found",
			"details": "the page loaded but no comment could be extracted",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if runID != "" {
		w.Header().Set("X-Run-Id", runID)
	}
	json.NewEncoder(w).Encode(res.Commenters)
}

// allowedURL accepts http(s) URLs whose host is the configured site or
// a subdomain of it.
func (h *Handler) allowedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == h.host || strings.HasSuffix(host, "."+h.host)
}

func (h *Handler) record(pageURL string, res *Result) string {
	if h.store == nil {
		return ""
	}
	detail, _ := json.Marshal(res.Commenters)
	id, err := h.store.RecordRun(runlog.Run{
		Kind:       runlog.KindScrape,
		PageURL:    pageURL,
		Strategy:   res.Strategy,
		Commenters: len(res.Commenters),
		Resolved:   res.Resolved,
		Detail:     string(detail),
	})
	if err != nil {
		h.log.Warn("scrape: run not recorded", "error", err)
		return ""
	}
	return id
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
