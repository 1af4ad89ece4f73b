package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"quotedesk/internal/model"
)

var quotationColumns = func() []string {
	fields := model.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column()
	}
	return cols
}()

// DefaultSearchFields 关键词默认检索的字段
var DefaultSearchFields = []model.Field{
	model.FieldItemName,
	model.FieldDescription,
	model.FieldBrand,
	model.FieldSpecModel,
	model.FieldProjectName,
	model.FieldSupplierName,
}

// InsertQuotations 在单个事务中批量插入报价，返回累计影响行数
func (s *Store) InsertQuotations(ctx context.Context, importID string, rows []model.Quotation) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(quotationColumns)+1), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO quotations (%s, import_id) VALUES (%s)",
		strings.Join(quotationColumns, ", "), placeholders)

	fields := model.Fields()
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, q := range rows {
			args := make([]any, 0, len(fields)+1)
			for _, f := range fields {
				args = append(args, dbValue(q.Value(f)))
			}
			args = append(args, importID)

			res, err := stmt.ExecContext(ctx, args...)
			if err != nil {
				return fmt.Errorf("failed to insert quotation: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rowcount: %w", err)
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// dbValue 空文本按 NULL 存储
func dbValue(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

// QuotationQuery 报价查询条件
type QuotationQuery struct {
	Keyword      string        // 空白分词，每个词需命中任一检索字段
	SearchFields []model.Field // 为空时使用 DefaultSearchFields
	ProjectName  string
	SupplierName string
	Brand        string
	Currency     string // 精确匹配
	Region       string // 精确匹配
	Limit        int
	Offset       int
}

func (q QuotationQuery) where() (string, []any) {
	conds := []string{}
	args := []any{}

	like := func(col, v string) {
		conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ?", col))
		args = append(args, "%"+strings.ToLower(v)+"%")
	}
	if v := strings.TrimSpace(q.ProjectName); v != "" {
		like(model.FieldProjectName.Column(), v)
	}
	if v := strings.TrimSpace(q.SupplierName); v != "" {
		like(model.FieldSupplierName.Column(), v)
	}
	if v := strings.TrimSpace(q.Brand); v != "" {
		like(model.FieldBrand.Column(), v)
	}
	if v := strings.TrimSpace(q.Currency); v != "" {
		conds = append(conds, "currency = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(q.Region); v != "" {
		conds = append(conds, "region = ?")
		args = append(args, v)
	}

	fields := q.SearchFields
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}
	for _, tok := range strings.Fields(q.Keyword) {
		ors := make([]string, 0, len(fields))
		for _, f := range fields {
			ors = append(ors, fmt.Sprintf("LOWER(%s) LIKE ?", f.Column()))
			args = append(args, "%"+strings.ToLower(tok)+"%")
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SearchQuotations 按条件查询报价，返回当前页与总数
func (s *Store) SearchQuotations(ctx context.Context, q QuotationQuery) ([]model.Quotation, int, error) {
	for _, f := range q.SearchFields {
		if f.Index() < 0 {
			return nil, 0, fmt.Errorf("unknown search field: %s", f)
		}
	}

	where, args := q.where()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM quotations"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count quotations: %w", err)
	}

	query := fmt.Sprintf("SELECT id, %s, import_id, created_at FROM quotations%s ORDER BY id",
		strings.Join(quotationColumns, ", "), where)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, max(q.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query quotations: %w", err)
	}
	defer rows.Close()

	out := []model.Quotation{}
	for rows.Next() {
		item, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate quotations: %w", err)
	}
	return out, total, nil
}

// GetQuotationsByIDs 按 id 查询
func (s *Store) GetQuotationsByIDs(ctx context.Context, ids []int64) ([]model.Quotation, error) {
	if len(ids) == 0 {
		return []model.Quotation{}, nil
	}
	in, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, %s, import_id, created_at FROM quotations WHERE id IN (%s) ORDER BY id",
		strings.Join(quotationColumns, ", "), in,
	), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotations: %w", err)
	}
	defer rows.Close()

	out := []model.Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuotation(rows *sql.Rows) (model.Quotation, error) {
	var q model.Quotation
	fields := model.Fields()

	texts := make([]sql.NullString, len(fields))
	nums := make([]sql.NullFloat64, len(fields))
	dest := make([]any, 0, len(fields)+3)
	dest = append(dest, &q.ID)
	for i, f := range fields {
		if f.Spec().Kind == model.KindNumber {
			dest = append(dest, &nums[i])
		} else {
			dest = append(dest, &texts[i])
		}
	}
	var importID sql.NullString
	var createdAt sql.NullTime
	dest = append(dest, &importID, &createdAt)

	if err := rows.Scan(dest...); err != nil {
		return q, fmt.Errorf("failed to scan quotation: %w", err)
	}

	for i, f := range fields {
		switch p := q.FieldPtr(f).(type) {
		case *string:
			*p = texts[i].String
		case **float64:
			if nums[i].Valid {
				v := nums[i].Float64
				*p = &v
			}
		}
	}
	q.ImportID = importID.String
	if createdAt.Valid {
		q.CreatedAt = createdAt.Time
	}
	return q, nil
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// DeleteReport 删除结果
type DeleteReport struct {
	Requested    int      `json:"requested"`
	Matched      int      `json:"matched"`
	Deleted      int64    `json:"deleted"`
	Archived     bool     `json:"archived"`
	ArchiveError string   `json:"archiveError,omitempty"`
	Remaining    int      `json:"remaining"`
	Warnings     []string `json:"warnings,omitempty"`
}

// DeleteQuotations 管理员删除：先按 id 重新确认存在，尽力归档，删除后校验
func (s *Store) DeleteQuotations(ctx context.Context, ids []int64, deletedBy string) (*DeleteReport, error) {
	ids = uniqueIDs(ids)
	report := &DeleteReport{Requested: len(ids), Warnings: []string{}}
	if len(ids) == 0 {
		return report, nil
	}

	matched, err := s.matchIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	report.Matched = len(matched)
	if len(matched) == 0 {
		report.Warnings = append(report.Warnings, "no matching quotations, nothing deleted")
		return report, nil
	}
	if len(matched) < len(ids) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d of %d ids no longer exist", len(ids)-len(matched), len(ids)))
	}

	// 归档失败不阻断删除
	if err := s.archiveQuotations(ctx, matched, deletedBy); err != nil {
		log.Printf("archive deleted quotations skipped: %v", err)
		report.ArchiveError = err.Error()
	} else {
		report.Archived = true
	}

	in, args := inClause(matched)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM quotations WHERE id IN (%s)", in), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete quotations: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		report.Warnings = append(report.Warnings, "delete executed but rowcount unavailable, please verify")
		report.Deleted = -1
	} else {
		report.Deleted = n
		if n != int64(len(matched)) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("rowcount %d does not match selection size %d", n, len(matched)))
		}
	}

	remaining, err := s.matchIDs(ctx, matched)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("post-delete verification failed: %v", err))
		return report, nil
	}
	report.Remaining = len(remaining)
	if len(remaining) > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d rows still present after delete", len(remaining)))
	}
	return report, nil
}

// uniqueIDs 去重并保持原顺序
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Store) matchIDs(ctx context.Context, ids []int64) ([]int64, error) {
	in, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM quotations WHERE id IN (%s) ORDER BY id", in), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select quotations: %w", err)
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

const archiveTable = "deleted_quotations"

func (s *Store) archiveQuotations(ctx context.Context, ids []int64, deletedBy string) error {
	ok, err := s.tableExists(ctx, archiveTable)
	if err != nil {
		return fmt.Errorf("failed to check archive table: %w", err)
	}
	if !ok {
		return fmt.Errorf("archive table %s does not exist", archiveTable)
	}

	in, args := inClause(ids)
	cols := strings.Join(quotationColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s (original_id, %s, deleted_at, deleted_by)
		SELECT id, %s, ?, ? FROM quotations WHERE id IN (%s)
	`, archiveTable, cols, cols, in)

	_, err = s.db.ExecContext(ctx, query, append([]any{time.Now().UTC(), deletedBy}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to archive quotations: %w", err)
	}
	return nil
}

// EnsureArchiveTable 创建删除归档表
func (s *Store) EnsureArchiveTable(ctx context.Context) error {
	defs := make([]string, 0, len(quotationColumns))
	for _, f := range model.Fields() {
		typ := "TEXT"
		if f.Spec().Kind == model.KindNumber {
			typ = "REAL"
		}
		defs = append(defs, f.Column()+" "+typ)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			archive_id INTEGER PRIMARY KEY AUTOINCREMENT,
			original_id INTEGER NOT NULL,
			%s,
			deleted_at DATETIME,
			deleted_by TEXT
		)
	`, archiveTable, strings.Join(defs, ",\n\t\t\t")))
	if err != nil {
		return fmt.Errorf("failed to create archive table: %w", err)
	}
	return nil
}

// CountArchived 归档表记录数（表不存在时为 0）
func (s *Store) CountArchived(ctx context.Context) (int, error) {
	ok, err := s.tableExists(ctx, archiveTable)
	if err != nil || !ok {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+archiveTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count archive: %w", err)
	}
	return n, nil
}
