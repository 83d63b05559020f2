package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Letter templates, one per sign
		`CREATE TABLE IF NOT EXISTS gestures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			tolerance REAL NOT NULL DEFAULT 0.3,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Trained template landmarks
		`CREATE TABLE IF NOT EXISTS gesture_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			landmark_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		// Raw recorded samples used for training
		`CREATE TABLE IF NOT EXISTS gesture_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Every confirmed sign
		`CREATE TABLE IF NOT EXISTS sign_events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			confidence REAL NOT NULL,
			sentence TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		// Sentences sent to speech
		`CREATE TABLE IF NOT EXISTS sentences (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_landmarks_gesture_id ON gesture_landmarks(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_samples_gesture_id ON gesture_samples(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sign_events_created_at ON sign_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sentences_created_at ON sentences(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
