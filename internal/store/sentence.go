package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SpokenSentence is a sentence that was sent to speech.
type SpokenSentence struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SentenceRepository records spoken sentences.
type SentenceRepository struct {
	db *sql.DB
}

// Sentences returns the spoken sentence repository for this store.
func (s *Store) Sentences() *SentenceRepository {
	return &SentenceRepository{db: s.db}
}

// Record inserts a spoken sentence.
func (r *SentenceRepository) Record(s *SpokenSentence) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sentences (id, session_id, text, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.SessionID, s.Text, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record sentence: %w", err)
	}
	return nil
}

// Recent returns up to limit sentences, newest first.
func (r *SentenceRepository) Recent(limit int) ([]*SpokenSentence, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, text, created_at FROM sentences
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SpokenSentence
	for rows.Next() {
		s := &SpokenSentence{}
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Text, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
