package store

import (
	"database/sql"
	"errors"
)

// SettingsRepository stores key/value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value for key or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
