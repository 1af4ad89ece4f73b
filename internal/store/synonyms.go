package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// HeaderSynonym 自定义表头别名
type HeaderSynonym struct {
	Alias     string `json:"alias"`
	Field     string `json:"field"`
	CreatedBy string `json:"createdBy"`
}

// ListHeaderSynonyms 按录入顺序列出自定义别名
func (s *Store) ListHeaderSynonyms(ctx context.Context) ([]HeaderSynonym, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT alias, field, created_by FROM header_synonyms ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list header synonyms: %w", err)
	}
	defer rows.Close()

	out := []HeaderSynonym{}
	for rows.Next() {
		var h HeaderSynonym
		var createdBy sql.NullString
		if err := rows.Scan(&h.Alias, &h.Field, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan header synonym: %w", err)
		}
		h.CreatedBy = createdBy.String
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpsertHeaderSynonym 新增或改写别名
func (s *Store) UpsertHeaderSynonym(ctx context.Context, h HeaderSynonym) error {
	alias := strings.TrimSpace(h.Alias)
	if alias == "" {
		return fmt.Errorf("alias is empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO header_synonyms (alias, field, created_by) VALUES (?, ?, ?)
		ON CONFLICT(alias) DO UPDATE SET field = excluded.field, created_by = excluded.created_by
	`, alias, h.Field, h.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to save header synonym: %w", err)
	}
	return nil
}

// DeleteHeaderSynonym 删除别名
func (s *Store) DeleteHeaderSynonym(ctx context.Context, alias string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM header_synonyms WHERE alias = ?", strings.TrimSpace(alias)); err != nil {
		return fmt.Errorf("failed to delete header synonym: %w", err)
	}
	return nil
}
