package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionMissing 会话不存在或已过期
var ErrSessionMissing = errors.New("import session not found")

// SaveSession 写入（或覆盖）会话快照
func (s *Store) SaveSession(ctx context.Context, id, state string, payload []byte, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_sessions (id, state, payload, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, id, state, string(payload), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save import session: %w", err)
	}
	return nil
}

// LoadSession 读取未过期的会话快照
func (s *Store) LoadSession(ctx context.Context, id string) ([]byte, error) {
	var payload string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, expires_at FROM import_sessions WHERE id = ?", id,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import session: %w", err)
	}
	if time.Now().After(expiresAt) {
		_ = s.DeleteSession(ctx, id)
		return nil, ErrSessionMissing
	}
	return []byte(payload), nil
}

// DeleteSession 删除会话快照
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM import_sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete import session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions 清理过期会话，返回清理条数
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM import_sessions WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge import sessions: %w", err)
	}
	return res.RowsAffected()
}
