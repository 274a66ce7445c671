package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

// NextSequence atomically increments the named counter and returns the new value.
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, s.q(
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT(name) DO UPDATE SET value = counters.value + 1
		 RETURNING value`), name,
	).Scan(&v)
	return v, err
}

// SetMetadata upserts a key-value pair.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`),
		key, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT value FROM metadata WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

const signingSecretKey = "token_signing_secret"

// SigningSecret returns the persisted token signing secret, generating
// one on first use so tokens survive restarts.
func (s *Store) SigningSecret(ctx context.Context) ([]byte, error) {
	v, err := s.GetMetadata(ctx, signingSecretKey)
	if err != nil {
		return nil, err
	}
	if v == "" {
		v, err = generateToken()
		if err != nil {
			return nil, err
		}
		// keep whichever secret was stored first
		if _, err := s.db.ExecContext(ctx, s.q(
			`INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`),
			signingSecretKey, v); err != nil {
			return nil, err
		}
		if v, err = s.GetMetadata(ctx, signingSecretKey); err != nil {
			return nil, err
		}
	}
	return []byte(v), nil
}

// GetImportedFileHash returns the hash recorded for path, or "".
func (s *Store) GetImportedFileHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT hash FROM imported_files WHERE path = ?`), path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the hash of an imported file.
func (s *Store) SetImportedFileHash(ctx context.Context, path, hash string) error {
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO imported_files (path, hash, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, imported_at = excluded.imported_at`),
		path, hash, time.Now().UTC(),
	)
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
