package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"quotedesk/internal/model"
)

// InsertMiscCost 新增项目杂费
func (s *Store) InsertMiscCost(ctx context.Context, m *model.MiscCost) error {
	if strings.TrimSpace(m.ProjectName) == "" || strings.TrimSpace(m.Category) == "" {
		return fmt.Errorf("misc cost requires project name and category")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO misc_costs (project_name, category, amount, currency, entered_by, region)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ProjectName, m.Category, m.Amount, m.Currency, m.EnteredBy, m.Region)
	if err != nil {
		return fmt.Errorf("failed to insert misc cost: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get misc cost id: %w", err)
	}
	m.ID = id
	return nil
}

// MiscCostQuery 杂费查询条件
type MiscCostQuery struct {
	ProjectName string // 模糊匹配
	Region      string // 精确匹配
}

// SearchMiscCosts 查询项目杂费
func (s *Store) SearchMiscCosts(ctx context.Context, q MiscCostQuery) ([]model.MiscCost, error) {
	query := `
		SELECT id, project_name, category, amount, currency, entered_by, region, created_at
		FROM misc_costs WHERE LOWER(project_name) LIKE ?`
	args := []any{"%" + strings.ToLower(strings.TrimSpace(q.ProjectName)) + "%"}
	if v := strings.TrimSpace(q.Region); v != "" {
		query += " AND region = ?"
		args = append(args, v)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query misc costs: %w", err)
	}
	defer rows.Close()

	out := []model.MiscCost{}
	for rows.Next() {
		var m model.MiscCost
		var currency, enteredBy, region sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.ProjectName, &m.Category, &m.Amount, &currency, &enteredBy, &region, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan misc cost: %w", err)
		}
		m.Currency = currency.String
		m.EnteredBy = enteredBy.String
		m.Region = region.String
		if createdAt.Valid {
			m.CreatedAt = createdAt.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
