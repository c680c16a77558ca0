package runlog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Mount registers the run history routes on a chi router.
func (s *Store) Mount(r chi.Router) {
	r.Get("/api/runs", s.handleRuns)
	r.Get("/api/runs/{id}/batches", s.handleBatches)
}

func (s *Store) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := s.RecentRuns(limit)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func (s *Store) handleBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.Batches(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batches)
}
