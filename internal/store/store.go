// Package store provides SQLite persistence for a local review corpus.
// The store backs the "store" page source and the revs maintenance CLI.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/reviews/internal/review"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
// seq fixes the paging order to insertion order.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reviews (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		hash TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		rating INTEGER NOT NULL,
		text TEXT NOT NULL,
		created TEXT NOT NULL,
		avatar_url TEXT,
		photo_urls TEXT
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Hash identifies a review by content, so re-seeding the same fixture adds
// nothing.
func Hash(r review.Review) string {
	h := sha256.New()
	for _, part := range []string{r.FirstName, r.LastName, fmt.Sprint(r.Rating), r.Text, r.Created, r.AvatarURL} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, p := range r.PhotoURLs {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// SaveReviews stores reviews, returning count of new reviews inserted.
// Duplicates (by content hash) are silently ignored via INSERT OR IGNORE.
// Thread-safe: acquires write lock.
func (s *Store) SaveReviews(reviews []review.Review) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(reviews) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO reviews (
			hash, first_name, last_name, rating, text, created, avatar_url, photo_urls
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newCount := 0
	for _, r := range reviews {
		photos, err := json.Marshal(r.PhotoURLs)
		if err != nil {
			return 0, err
		}
		result, err := stmt.Exec(Hash(r), r.FirstName, r.LastName, r.Rating, r.Text, r.Created, r.AvatarURL, string(photos))
		if err != nil {
			return 0, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected > 0 {
			newCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newCount, nil
}

// Page returns up to limit reviews starting at offset, in insertion order.
// Thread-safe: acquires read lock.
func (s *Store) Page(offset, limit int) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT first_name, last_name, rating, text, created, avatar_url, photo_urls
		FROM reviews
		ORDER BY seq
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []review.Review{}
	for rows.Next() {
		var (
			r              review.Review
			avatar, photos sql.NullString
		)
		if err := rows.Scan(&r.FirstName, &r.LastName, &r.Rating, &r.Text, &r.Created, &avatar, &photos); err != nil {
			return nil, err
		}
		r.AvatarURL = avatar.String
		if photos.Valid && photos.String != "" && photos.String != "null" {
			if err := json.Unmarshal([]byte(photos.String), &r.PhotoURLs); err != nil {
				return nil, fmt.Errorf("decode photo_urls: %w", err)
			}
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored reviews.
// Thread-safe: acquires read lock.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM reviews").Scan(&n)
	return n, err
}

// Reset deletes every stored review.
// Thread-safe: acquires write lock.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM reviews")
	return err
}
