package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// SamplesHandler records poses for a letter template and retrains it.
type SamplesHandler struct {
	store   *store.Store
	trainer *gesture.Trainer
	matcher *gesture.StaticMatcher
}

// NewSamplesHandler creates a SamplesHandler. matcher may be nil.
func NewSamplesHandler(s *store.Store, matcher *gesture.StaticMatcher) *SamplesHandler {
	return &SamplesHandler{store: s, trainer: gesture.NewTrainer(), matcher: matcher}
}

// ServeHTTP handles /api/gestures/{id}/samples.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] != "samples" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	gestureID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, gestureID)
	case http.MethodPost:
		h.create(w, r, gestureID)
	case http.MethodDelete:
		h.clear(w, r, gestureID)
	default:
		methodNotAllowed(w)
	}
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type createSamplesResponse struct {
	Status  string `json:"status"`
	Samples int    `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, gestureID string) {
	if _, ok := h.lookup(w, gestureID); !ok {
		return
	}

	samples, err := h.store.Samples().GetByGestureID(gestureID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			GestureID:   s.GestureID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(timeFormat),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/gestures/{id}/samples: the samples are stored
// and the template is retrained from every sample recorded so far.
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, gestureID string) {
	g, ok := h.lookup(w, gestureID)
	if !ok {
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}
	for i, raw := range req.Samples {
		if _, err := gesture.ParseSample(raw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid sample %d: %v", i, err))
			return
		}
	}

	total, err := h.store.Samples().Append(gestureID, req.Samples)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	if err := h.retrain(g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to train gesture")
		return
	}

	writeJSON(w, http.StatusCreated, createSamplesResponse{Status: "ok", Samples: total})
}

// clear handles DELETE /api/gestures/{id}/samples and untrains the template.
func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, gestureID string) {
	if _, ok := h.lookup(w, gestureID); !ok {
		return
	}
	if err := h.store.Samples().DeleteByGestureID(gestureID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	if err := h.store.Gestures().SetLandmarks(gestureID, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset gesture")
		return
	}
	if h.matcher != nil {
		h.matcher.RemoveTemplate(gestureID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SamplesHandler) lookup(w http.ResponseWriter, gestureID string) (*store.Gesture, bool) {
	g, err := h.store.Gestures().GetByID(gestureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify gesture")
		return nil, false
	}
	return g, true
}

func (h *SamplesHandler) retrain(g *store.Gesture) error {
	stored, err := h.store.Samples().GetByGestureID(g.ID)
	if err != nil {
		return err
	}
	raw := make([]json.RawMessage, len(stored))
	for i, s := range stored {
		raw[i] = s.Data
	}

	points, err := h.trainer.TrainStatic(raw)
	if err != nil {
		return err
	}

	landmarks := make([]store.Landmark, len(points))
	for i, p := range points {
		landmarks[i] = store.Landmark{X: p.X, Y: p.Y, Z: p.Z}
	}
	if err := h.store.Gestures().SetLandmarks(g.ID, landmarks); err != nil {
		return err
	}

	if h.matcher != nil {
		h.matcher.AddTemplate(templateFor(g, landmarks))
	}
	return nil
}

func templateFor(g *store.Gesture, landmarks []store.Landmark) *gesture.Template {
	points := make([]detector.Point3D, len(landmarks))
	for i, l := range landmarks {
		points[i] = detector.Point3D{X: l.X, Y: l.Y, Z: l.Z}
	}
	return &gesture.Template{
		ID:        g.ID,
		Symbol:    g.Symbol,
		Landmarks: points,
		Tolerance: g.Tolerance,
	}
}
