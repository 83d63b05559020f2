package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/sign"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func createGesture(t *testing.T, s *store.Store, label string) *store.Gesture {
	t.Helper()
	g := &store.Gesture{Symbol: sign.MustParse(label), Tolerance: 1.5}
	if err := s.Gestures().Create(g); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	return g
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGestureHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)

	createGesture(t, s, "B")
	createGesture(t, s, "A")

	rec := doJSON(t, handler, http.MethodGet, "/api/gestures", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listGesturesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Gestures) != 2 {
		t.Fatalf("expected 2 gestures, got %d", len(response.Gestures))
	}
	// Ordered by sign.
	if response.Gestures[0].Symbol != sign.MustParse("A") {
		t.Errorf("expected first gesture A, got %v", response.Gestures[0].Symbol)
	}
	if response.Gestures[0].Trained {
		t.Error("gesture without landmarks should not be trained")
	}
}

func TestGestureHandler_List_Empty(t *testing.T) {
	rec := doJSON(t, NewGestureHandler(newTestStore(t), nil), http.MethodGet, "/api/gestures", nil)
	if got := rec.Body.String(); got != "{\"gestures\":[]}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestGestureHandler_Create(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)

	rec := doJSON(t, handler, http.MethodPost, "/api/gestures", createGestureRequest{Symbol: "space", Tolerance: 0.8})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if raw["symbol"] != "SPACE" {
		t.Errorf("expected symbol SPACE, got %v", raw["symbol"])
	}
	if raw["tolerance"] != 0.8 {
		t.Errorf("expected tolerance 0.8, got %v", raw["tolerance"])
	}

	// Verify the gesture was persisted in the store
	created, err := s.Gestures().GetByID(raw["id"].(string))
	if err != nil {
		t.Fatalf("failed to get created gesture: %v", err)
	}
	if created.Symbol != sign.Space {
		t.Errorf("stored symbol mismatch: got %v", created.Symbol)
	}
}

func TestGestureHandler_Create_Defaults(t *testing.T) {
	s := newTestStore(t)
	rec := doJSON(t, NewGestureHandler(s, nil), http.MethodPost, "/api/gestures", createGestureRequest{Symbol: "c"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}
	var response gestureResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.Tolerance != store.DefaultTolerance {
		t.Errorf("expected default tolerance %v, got %v", store.DefaultTolerance, response.Tolerance)
	}
}

func TestGestureHandler_Create_Invalid(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)
	createGesture(t, s, "A")

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", "invalid json", http.StatusBadRequest},
		{"missing symbol", `{"tolerance": 1}`, http.StatusBadRequest},
		{"unknown symbol", `{"symbol": "thumbs_up"}`, http.StatusBadRequest},
		{"negative tolerance", `{"symbol": "B", "tolerance": -1}`, http.StatusBadRequest},
		{"duplicate", `{"symbol": "a"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/gestures", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			var response errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil || response.Error == "" {
				t.Errorf("expected error message, got %q (%v)", response.Error, err)
			}
		})
	}
}

func TestGestureHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)
	g := createGesture(t, s, "Q")

	rec := doJSON(t, handler, http.MethodGet, "/api/gestures/"+g.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response gestureResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != g.ID || response.Symbol != sign.MustParse("Q") || response.Tolerance != 1.5 {
		t.Errorf("unexpected response %+v", response)
	}
}

func TestGestureHandler_Get_NotFound(t *testing.T) {
	rec := doJSON(t, NewGestureHandler(newTestStore(t), nil), http.MethodGet, "/api/gestures/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGestureHandler_Update(t *testing.T) {
	s := newTestStore(t)
	matcher := gesture.NewStaticMatcher()
	handler := NewGestureHandler(s, matcher)
	g := createGesture(t, s, "A")
	createGesture(t, s, "B")

	t.Run("changes symbol and tolerance", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPut, "/api/gestures/"+g.ID, updateGestureRequest{Symbol: "E", Tolerance: 3})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		updated, err := s.Gestures().GetByID(g.ID)
		if err != nil {
			t.Fatal(err)
		}
		if updated.Symbol != sign.MustParse("E") || updated.Tolerance != 3 {
			t.Errorf("stored gesture = %+v", updated)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPut, "/api/gestures/"+g.ID, updateGestureRequest{Symbol: "B"})
		if rec.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPut, "/api/gestures/missing", updateGestureRequest{Tolerance: 1})
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestGestureHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	matcher := gesture.NewStaticMatcher()
	handler := NewGestureHandler(s, matcher)
	g := createGesture(t, s, "A")
	matcher.AddTemplate(&gesture.Template{ID: g.ID, Symbol: g.Symbol})

	rec := doJSON(t, handler, http.MethodDelete, "/api/gestures/"+g.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, err := s.Gestures().GetByID(g.ID); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if matcher.Len() != 0 {
		t.Errorf("template still loaded after delete")
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/gestures/"+g.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGestureHandler_MethodNotAllowed(t *testing.T) {
	handler := NewGestureHandler(newTestStore(t), nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/gestures"},
		{http.MethodDelete, "/api/gestures"},
		{http.MethodPatch, "/api/gestures"},
		{http.MethodPost, "/api/gestures/some-id"},
		{http.MethodPatch, "/api/gestures/some-id"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doJSON(t, handler, tt.method, tt.path, nil)
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
			}
		})
	}
}
