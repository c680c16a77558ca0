package airdrop

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/commentdrop/runlog"
	"github.com/hazyhaar/commentdrop/wallet"
)

// Handler exposes distribution planning and execution over HTTP.
type Handler struct {
	executor *Executor
	store    *runlog.Store
	log      *slog.Logger
}

// NewHandler wires an Executor to HTTP. store may be nil to skip run
// recording.
func NewHandler(x *Executor, store *runlog.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{executor: x, store: store, log: log}
}

// Mount registers the airdrop routes on a chi router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/airdrop", h.handleValidate)
	r.Post("/api/airdrop/execute", h.handleExecute)
}

// handleValidate splits a candidate recipient list into valid and
// invalid addresses without touching the chain. The mint must decode
// too; a typoed mint fails here instead of at execution.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req struct {
		Recipients []string `json:"recipients"`
		TokenMint  string   `json:"tokenMint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Recipients) == 0 {
		jsonErr(w, "recipients are required", http.StatusBadRequest)
		return
	}
	if !wallet.IsValid(req.TokenMint) {
		jsonErr(w, "invalid token mint", http.StatusBadRequest)
		return
	}

	valid, invalid := Validate(req.Recipients)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"validCount":   len(valid),
		"invalidCount": len(invalid),
		"valid":        valid,
		"invalid":      invalid,
	})
}

type executeRequest struct {
	Mint              string      `json:"mint"`
	Recipients        []Recipient `json:"recipients"`
	Amount            float64     `json:"amount"`
	Decimals          *uint8      `json:"decimals,omitempty"`
	Multiplier        float64     `json:"multiplier,omitempty"`
	MultiplierEnabled bool        `json:"multiplierEnabled,omitempty"`
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if h.executor == nil {
		jsonErr(w, "signing key not configured", http.StatusServiceUnavailable)
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Mint == "" {
		jsonErr(w, "mint is required", http.StatusBadRequest)
		return
	}
	if len(req.Recipients) == 0 {
		jsonErr(w, "recipients are required", http.StatusBadRequest)
		return
	}

	decimals := uint8(6)
	if req.Decimals != nil {
		decimals = *req.Decimals
	}

	plan, err := BuildPlan(req.Recipients, PlanOptions{
		Base:              req.Amount,
		Decimals:          decimals,
		Multiplier:        req.Multiplier,
		MultiplierEnabled: req.MultiplierEnabled,
	})
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.executor.Execute(r.Context(), req.Mint, plan)
	runID := h.record(req, plan, results)

	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidMint):
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrInsufficientFunds):
		jsonErr(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, ErrNoEndpoint):
		jsonErr(w, err.Error(), http.StatusBadGateway)
		return
	case errors.Is(err, ErrNoBatchConfirmed):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   err.Error(),
			"runId":   runID,
			"results": results,
		})
		return
	default:
		h.log.Error("airdrop: execute failed", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}

	confirmed := 0
	for _, res := range results {
		if res.Confirmed {
			confirmed++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"runId":     runID,
		"batches":   len(results),
		"confirmed": confirmed,
		"results":   results,
	})
}

func (h *Handler) record(req executeRequest, plan *Plan, results []Result) string {
	if h.store == nil || plan == nil {
		return ""
	}

	detail, _ := json.Marshal(map[string]any{
		"mint":          req.Mint,
		"recipients":    len(plan.Transfers),
		"totalRequired": plan.TotalRequired,
	})
	id, err := h.store.RecordRun(runlog.Run{
		Kind:       runlog.KindAirdrop,
		Commenters: len(plan.Transfers),
		Detail:     string(detail),
	})
	if err != nil {
		h.log.Warn("airdrop: run not recorded", "error", err)
		return ""
	}

	batches := make([]runlog.Batch, 0, len(results))
	for _, res := range results {
		batches = append(batches, runlog.Batch{
			Signature: res.Signature,
			Confirmed: res.Confirmed,
			Error:     res.Error,
		})
	}
	if err := h.store.RecordBatches(id, batches); err != nil {
		h.log.Warn("airdrop: batches not recorded", "error", err)
	}
	return id
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
