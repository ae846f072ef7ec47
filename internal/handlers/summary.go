package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"finance-tracker/internal/ledger"
)

// SummaryJSON serves the session's summary for scripts and tests.
func (h *Handlers) SummaryJSON(w http.ResponseWriter, r *http.Request) {
	state, err := h.db.LoadState(SessionFromContext(r))
	if err != nil {
		h.serverError(w, "load state", err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(ledger.Summarize(state, h.now())); err != nil {
		h.serverError(w, "encode summary", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = buf.WriteTo(w)
}
