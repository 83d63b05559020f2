package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/sign"
	"github.com/ayusman/mudra/internal/store"
)

// GestureHandler handles HTTP requests for letter template resources.
type GestureHandler struct {
	store   *store.Store
	matcher *gesture.StaticMatcher
}

// NewGestureHandler creates a GestureHandler. matcher may be nil; when set
// it is kept in step with deletions.
func NewGestureHandler(s *store.Store, matcher *gesture.StaticMatcher) *GestureHandler {
	return &GestureHandler{store: s, matcher: matcher}
}

// ServeHTTP routes /api/gestures and /api/gestures/{id}.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

type createGestureRequest struct {
	Symbol    string  `json:"symbol"`
	Tolerance float64 `json:"tolerance"`
}

type updateGestureRequest struct {
	Symbol    string  `json:"symbol"`
	Tolerance float64 `json:"tolerance"`
}

type gestureResponse struct {
	ID        string      `json:"id"`
	Symbol    sign.Symbol `json:"symbol"`
	Tolerance float64     `json:"tolerance"`
	Samples   int         `json:"samples"`
	Trained   bool        `json:"trained"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

func (h *GestureHandler) toResponse(g *store.Gesture) gestureResponse {
	landmarks, _ := h.store.Gestures().GetLandmarks(g.ID)
	return gestureResponse{
		ID:        g.ID,
		Symbol:    g.Symbol,
		Tolerance: g.Tolerance,
		Samples:   g.Samples,
		Trained:   len(landmarks) > 0,
		CreatedAt: g.CreatedAt.Format(timeFormat),
		UpdatedAt: g.UpdatedAt.Format(timeFormat),
	}
}

func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.store.Gestures().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(gestures)),
	}
	for _, g := range gestures {
		response.Gestures = append(response.Gestures, h.toResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	g, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

// create handles POST /api/gestures. Each sign has at most one template.
func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, http.StatusBadRequest, "Symbol is required")
		return
	}
	sym, err := sign.Parse(req.Symbol)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown symbol")
		return
	}
	if req.Tolerance < 0 {
		writeError(w, http.StatusBadRequest, "Tolerance must not be negative")
		return
	}

	if _, err := h.store.Gestures().GetBySymbol(sym); err == nil {
		writeError(w, http.StatusConflict, "Gesture already exists for symbol")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check gesture")
		return
	}

	g := &store.Gesture{Symbol: sym, Tolerance: req.Tolerance}
	if err := h.store.Gestures().Create(g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create gesture")
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(g))
}

func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	g, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	var req updateGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Symbol != "" {
		sym, err := sign.Parse(req.Symbol)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unknown symbol")
			return
		}
		if sym != g.Symbol {
			if _, err := h.store.Gestures().GetBySymbol(sym); err == nil {
				writeError(w, http.StatusConflict, "Gesture already exists for symbol")
				return
			}
		}
		g.Symbol = sym
	}
	if req.Tolerance < 0 {
		writeError(w, http.StatusBadRequest, "Tolerance must not be negative")
		return
	}
	if req.Tolerance != 0 {
		g.Tolerance = req.Tolerance
	}

	if err := h.store.Gestures().Update(g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}
	h.refresh(g)

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Gestures().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete gesture")
		return
	}
	if h.matcher != nil {
		h.matcher.RemoveTemplate(id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// refresh reloads the live template for g after its symbol or tolerance
// changed.
func (h *GestureHandler) refresh(g *store.Gesture) {
	if h.matcher == nil {
		return
	}
	landmarks, err := h.store.Gestures().GetLandmarks(g.ID)
	if err != nil || len(landmarks) == 0 {
		return
	}
	h.matcher.AddTemplate(templateFor(g, landmarks))
}
