package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pavelanni/bandscore/internal/model"
)

// CreateAuthSession records a login for userID valid for ttl and returns its ID.
func (s *Store) CreateAuthSession(ctx context.Context, userID int64, ttl time.Duration) (model.AuthSession, error) {
	token, err := generateToken()
	if err != nil {
		return model.AuthSession{}, err
	}
	now := time.Now().UTC()
	sess := model.AuthSession{ID: token, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`),
		sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return model.AuthSession{}, err
	}
	return sess, nil
}

// GetAuthSession returns the auth session with the given ID, or nil if
// it is missing or expired.
func (s *Store) GetAuthSession(ctx context.Context, id string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, user_id, created_at, expires_at FROM auth_sessions WHERE id = ?`), id,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.DeleteAuthSession(ctx, id)
		return nil, nil
	}
	return &sess, nil
}

// DeleteAuthSession revokes a session.
func (s *Store) DeleteAuthSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM auth_sessions WHERE id = ?`), id)
	return err
}

// CleanupExpiredSessions removes all expired auth sessions.
func (s *Store) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM auth_sessions WHERE expires_at < ?`), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
