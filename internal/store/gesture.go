package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/sign"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// DefaultTolerance is the match tolerance given to new templates: the
// largest mean landmark distance, in hand units, that still matches.
const DefaultTolerance = 0.3

// Gesture is a letter template definition. Each sign has at most one.
type Gesture struct {
	ID        string      `json:"id"`
	Symbol    sign.Symbol `json:"symbol"`
	Tolerance float64     `json:"tolerance"`
	Samples   int         `json:"samples"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Landmark is one stored template point.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GestureRepository provides CRUD operations for gestures.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

const gestureColumns = `id, name, tolerance, samples, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGesture(row scanner) (*Gesture, error) {
	g := &Gesture{}
	var name string
	if err := row.Scan(&g.ID, &name, &g.Tolerance, &g.Samples, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	sym, err := sign.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("gesture %s: %w", g.ID, err)
	}
	g.Symbol = sym
	return g, nil
}

// Create inserts a new gesture. An empty ID is replaced with a new UUID.
func (r *GestureRepository) Create(g *Gesture) error {
	if !g.Symbol.Valid() {
		return fmt.Errorf("create gesture: %w: %v", sign.ErrUnknownLabel, g.Symbol)
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Tolerance <= 0 {
		g.Tolerance = DefaultTolerance
	}

	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO gestures (id, name, tolerance, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Symbol.String(), g.Tolerance, g.Samples, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// GetBySymbol retrieves the template for a sign.
func (r *GestureRepository) GetBySymbol(s sign.Symbol) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE name = ?`, s.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// List retrieves all gestures ordered by sign name.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(`SELECT ` + gestureColumns + ` FROM gestures ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gestures, nil
}

// Update updates an existing gesture in the database.
func (r *GestureRepository) Update(g *Gesture) error {
	if !g.Symbol.Valid() {
		return fmt.Errorf("update gesture: %w: %v", sign.ErrUnknownLabel, g.Symbol)
	}
	g.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE gestures SET name = ?, tolerance = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		g.Symbol.String(), g.Tolerance, g.Samples, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a gesture and, through cascades, its landmarks and samples.
func (r *GestureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// SetLandmarks replaces the trained landmarks of a gesture.
func (r *GestureRepository) SetLandmarks(gestureID string, landmarks []Landmark) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_landmarks WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO gesture_landmarks (gesture_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range landmarks {
		if _, err := stmt.Exec(gestureID, i, l.X, l.Y, l.Z); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE gestures SET updated_at = ? WHERE id = ?`, time.Now(), gestureID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetLandmarks returns the trained landmarks of a gesture in index order.
// A gesture that has not been trained yet has none.
func (r *GestureRepository) GetLandmarks(gestureID string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT x, y, z FROM gesture_landmarks WHERE gesture_id = ? ORDER BY landmark_index`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.X, &l.Y, &l.Z); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func expectOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
