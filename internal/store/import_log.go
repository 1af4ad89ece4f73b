package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ImportLog 导入日志
type ImportLog struct {
	ID            int64  `json:"id"`
	SessionID     string `json:"sessionId"`
	Filename      string `json:"filename"`
	SheetName     string `json:"sheetName"`
	EnteredBy     string `json:"enteredBy"`
	Region        string `json:"region"`
	TotalRows     int    `json:"totalRows"`
	AcceptedRows  int    `json:"acceptedRows"`
	RejectedRows  int    `json:"rejectedRows"`
	CommittedRows int64  `json:"committedRows"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// 导入日志状态
const (
	ImportStatusProcessing = "processing"
	ImportStatusCommitted  = "committed"
	ImportStatusFailed     = "failed"
	ImportStatusDiscarded  = "discarded"
)

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, sessionID, filename, sheetName, enteredBy, region string, totalRows int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (session_id, filename, sheet_name, entered_by, region, total_rows, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, filename, sheetName, enteredBy, region, totalRows, ImportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(ctx context.Context, id int64, accepted, rejected int, committed int64, status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			accepted_rows = ?,
			rejected_rows = ?,
			committed_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, accepted, rejected, committed, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

const importLogSelect = `
	SELECT id, session_id, COALESCE(filename, ''), COALESCE(sheet_name, ''),
		COALESCE(entered_by, ''), COALESCE(region, ''),
		total_rows, accepted_rows, rejected_rows, committed_rows,
		status, COALESCE(error_message, '')
	FROM import_logs`

func scanImportLog(row *sql.Row) (*ImportLog, error) {
	var l ImportLog
	err := row.Scan(&l.ID, &l.SessionID, &l.Filename, &l.SheetName, &l.EnteredBy, &l.Region,
		&l.TotalRows, &l.AcceptedRows, &l.RejectedRows, &l.CommittedRows, &l.Status, &l.ErrorMessage)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetImportLog 按 id 读取导入日志
func (s *Store) GetImportLog(ctx context.Context, id int64) (*ImportLog, error) {
	l, err := scanImportLog(s.db.QueryRowContext(ctx, importLogSelect+" WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get import log: %w", err)
	}
	return l, nil
}

// LatestImportLog 最近一次导入日志，没有记录时返回 nil
func (s *Store) LatestImportLog(ctx context.Context) (*ImportLog, error) {
	l, err := scanImportLog(s.db.QueryRowContext(ctx, importLogSelect+" ORDER BY id DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest import log: %w", err)
	}
	return l, nil
}
