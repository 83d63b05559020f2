package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/sign"
)

// SignEvent is a confirmed sign as recorded in history.
type SignEvent struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"session_id"`
	Symbol     sign.Symbol `json:"symbol"`
	Confidence float64     `json:"confidence"`
	Sentence   string      `json:"sentence"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SymbolCount is the number of times a sign has been confirmed.
type SymbolCount struct {
	Symbol sign.Symbol `json:"symbol"`
	Count  int         `json:"count"`
}

// EventRepository records confirmed signs.
type EventRepository struct {
	db *sql.DB
}

// Events returns the sign event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts an event. ID and CreatedAt are filled in when empty.
func (r *EventRepository) Record(e *SignEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sign_events (id, session_id, symbol, confidence, sentence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Symbol.String(), e.Confidence, e.Sentence, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record sign event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]*SignEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, symbol, confidence, sentence, created_at
		 FROM sign_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*SignEvent
	for rows.Next() {
		e := &SignEvent{}
		var symbol string
		if err := rows.Scan(&e.ID, &e.SessionID, &symbol, &e.Confidence, &e.Sentence, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Symbol, err = sign.Parse(symbol); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountBySymbol returns how often each sign was confirmed, most frequent first.
func (r *EventRepository) CountBySymbol() ([]SymbolCount, error) {
	rows, err := r.db.Query(
		`SELECT symbol, COUNT(*) AS n FROM sign_events GROUP BY symbol ORDER BY n DESC, symbol`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []SymbolCount
	for rows.Next() {
		var symbol string
		var c SymbolCount
		if err := rows.Scan(&symbol, &c.Count); err != nil {
			return nil, err
		}
		if c.Symbol, err = sign.Parse(symbol); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Prune deletes events older than cutoff and reports how many were removed.
func (r *EventRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sign_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
