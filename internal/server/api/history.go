package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryHandler serves recently confirmed signs and spoken sentences.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type historyResponse struct {
	Events    []*store.SignEvent      `json:"events"`
	Sentences []*store.SpokenSentence `json:"sentences"`
	Counts    []store.SymbolCount     `json:"counts"`
}

// ServeHTTP handles GET /api/history?limit=N.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	events, err := h.store.Events().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events")
		return
	}
	sentences, err := h.store.Sentences().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sentences")
		return
	}
	counts, err := h.store.Events().CountBySymbol()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	response := historyResponse{
		Events:    events,
		Sentences: sentences,
		Counts:    counts,
	}
	if response.Events == nil {
		response.Events = []*store.SignEvent{}
	}
	if response.Sentences == nil {
		response.Sentences = []*store.SpokenSentence{}
	}
	if response.Counts == nil {
		response.Counts = []store.SymbolCount{}
	}
	writeJSON(w, http.StatusOK, response)
}
