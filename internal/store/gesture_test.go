package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/sign"
)

func TestGestureRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	gesture := &Gesture{Symbol: sign.MustParse("A"), Tolerance: 1.5}
	if err := repo.Create(gesture); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}

	if gesture.ID == "" {
		t.Error("ID should be generated")
	}
	if gesture.CreatedAt.IsZero() || gesture.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	retrieved, err := repo.GetByID(gesture.ID)
	if err != nil {
		t.Fatalf("failed to get gesture: %v", err)
	}
	if retrieved.Symbol != sign.MustParse("A") || retrieved.Tolerance != 1.5 {
		t.Errorf("retrieved = %+v", retrieved)
	}

	bySymbol, err := repo.GetBySymbol(sign.MustParse("A"))
	if err != nil || bySymbol.ID != gesture.ID {
		t.Errorf("GetBySymbol() = %+v, %v", bySymbol, err)
	}
}

func TestGestureRepository_Create_Defaults(t *testing.T) {
	s := newTestStore(t)
	g := &Gesture{Symbol: sign.Space}
	if err := s.Gestures().Create(g); err != nil {
		t.Fatal(err)
	}
	if g.Tolerance != DefaultTolerance {
		t.Errorf("Tolerance = %v, want %v", g.Tolerance, DefaultTolerance)
	}
}

func TestGestureRepository_Create_Invalid(t *testing.T) {
	s := newTestStore(t)
	err := s.Gestures().Create(&Gesture{Symbol: sign.None})
	if !errors.Is(err, sign.ErrUnknownLabel) {
		t.Errorf("Create(None) error = %v, want ErrUnknownLabel", err)
	}
}

func TestGestureRepository_Create_DuplicateSymbol(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if err := repo.Create(&Gesture{Symbol: sign.MustParse("B")}); err != nil {
		t.Fatalf("failed to create first gesture: %v", err)
	}
	if err := repo.Create(&Gesture{Symbol: sign.MustParse("B")}); err == nil {
		t.Error("creating a second template for the same sign should fail")
	}
}

func TestGestureRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	for _, l := range []string{"C", "A", "DELETE"} {
		if err := repo.Create(&Gesture{Symbol: sign.MustParse(l)}); err != nil {
			t.Fatalf("failed to create %s: %v", l, err)
		}
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list gestures: %v", err)
	}

	want := []string{"A", "C", "DELETE"}
	if len(list) != len(want) {
		t.Fatalf("expected %d gestures, got %d", len(want), len(list))
	}
	for i, g := range list {
		if g.Symbol.String() != want[i] {
			t.Errorf("list[%d] = %v, want %s", i, g.Symbol, want[i])
		}
	}
}

func TestGestureRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := &Gesture{Symbol: sign.MustParse("D")}
	if err := repo.Create(g); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetLandmarks(g.ID, []Landmark{{X: 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Samples().Append(g.ID, []json.RawMessage{json.RawMessage(`{}`)}); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(g.ID); err != nil {
		t.Fatalf("failed to delete gesture: %v", err)
	}

	if _, err := repo.GetByID(g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}

	landmarks, _ := repo.GetLandmarks(g.ID)
	samples, _ := s.Samples().GetByGestureID(g.ID)
	if len(landmarks) != 0 || len(samples) != 0 {
		t.Errorf("cascade left %d landmarks and %d samples", len(landmarks), len(samples))
	}
}

func TestGestureRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got: %v", err)
	}
	if _, err := repo.GetBySymbol(sign.MustParse("Z")); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySymbol: expected ErrNotFound, got: %v", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got: %v", err)
	}
	if err := repo.Update(&Gesture{ID: "missing", Symbol: sign.MustParse("Z")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got: %v", err)
	}
}

func TestGestureRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := &Gesture{Symbol: sign.MustParse("E"), Tolerance: 1.0}
	if err := repo.Create(g); err != nil {
		t.Fatal(err)
	}
	originalUpdatedAt := g.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	g.Symbol = sign.MustParse("F")
	g.Tolerance = 2.5
	if err := repo.Update(g); err != nil {
		t.Fatalf("failed to update gesture: %v", err)
	}

	retrieved, err := repo.GetByID(g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if retrieved.Symbol != sign.MustParse("F") || retrieved.Tolerance != 2.5 {
		t.Errorf("retrieved = %+v", retrieved)
	}
	if !retrieved.UpdatedAt.After(originalUpdatedAt) {
		t.Error("UpdatedAt should be updated after Update")
	}
}

func TestGestureRepository_Landmarks(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := &Gesture{Symbol: sign.MustParse("L")}
	if err := repo.Create(g); err != nil {
		t.Fatal(err)
	}

	if got, err := repo.GetLandmarks(g.ID); err != nil || len(got) != 0 {
		t.Errorf("untrained GetLandmarks() = %v, %v", got, err)
	}

	first := []Landmark{{X: 0, Y: 0, Z: 0}, {X: 0.1, Y: 0.2, Z: 0.3}}
	if err := repo.SetLandmarks(g.ID, first); err != nil {
		t.Fatal(err)
	}
	second := []Landmark{{X: 1, Y: 2, Z: 3}}
	if err := repo.SetLandmarks(g.ID, second); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetLandmarks(g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != second[0] {
		t.Errorf("GetLandmarks() = %v, want %v", got, second)
	}
}

func TestSampleRepository(t *testing.T) {
	s := newTestStore(t)

	g := &Gesture{Symbol: sign.MustParse("O")}
	if err := s.Gestures().Create(g); err != nil {
		t.Fatal(err)
	}

	total, err := s.Samples().Append(g.ID, []json.RawMessage{
		json.RawMessage(`{"timestamp":1}`),
		json.RawMessage(`{"timestamp":2}`),
	})
	if err != nil || total != 2 {
		t.Fatalf("Append() = %d, %v; want 2", total, err)
	}
	total, err = s.Samples().Append(g.ID, []json.RawMessage{json.RawMessage(`{"timestamp":3}`)})
	if err != nil || total != 3 {
		t.Fatalf("second Append() = %d, %v; want 3", total, err)
	}

	samples, err := s.Samples().GetByGestureID(g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 || samples[2].SampleIndex != 2 || string(samples[2].Data) != `{"timestamp":3}` {
		t.Errorf("samples = %+v", samples)
	}

	updated, _ := s.Gestures().GetByID(g.ID)
	if updated.Samples != 3 {
		t.Errorf("gesture sample count = %d, want 3", updated.Samples)
	}

	if err := s.Samples().DeleteByGestureID(g.ID); err != nil {
		t.Fatal(err)
	}
	updated, _ = s.Gestures().GetByID(g.ID)
	if updated.Samples != 0 {
		t.Errorf("sample count after delete = %d, want 0", updated.Samples)
	}

	t.Run("unknown gesture", func(t *testing.T) {
		_, err := s.Samples().Append("missing", []json.RawMessage{json.RawMessage(`{}`)})
		if err == nil {
			t.Error("expected error for unknown gesture")
		}
	})
}
