package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
)

// 运行类型
const (
	RunKindEvaluate = "evaluate"
	RunKindExport   = "export"
)

// 运行状态
const (
	RunStatusProcessing = "processing"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// RunLog 一次解析或导出的记录
type RunLog struct {
	ID           int64      `json:"id"`
	SessionID    string     `json:"sessionId"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	TotalLines   int        `json:"totalLines"`
	ReviewLines  int        `json:"reviewLines"`
	WarningCount int        `json:"warningCount"`
	ErrorMessage string     `json:"errorMessage"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// CreateRunLog 创建运行日志，返回 id
func (s *Store) CreateRunLog(ctx context.Context, sessionID, kind string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO run_logs (session_id, kind, status) VALUES (?, ?, ?)
	`, sessionID, kind, RunStatusProcessing)
	if err != nil {
		return 0, eris.Wrap(err, "failed to create run log")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "failed to get run log id")
	}
	return id, nil
}

// CompleteRunLog 完成运行日志
func (s *Store) CompleteRunLog(ctx context.Context, id int64, totalLines, reviewLines, warningCount int, status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE run_logs SET
			total_lines = ?,
			review_lines = ?,
			warning_count = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, totalLines, reviewLines, warningCount, status, errorMessage, id)
	if err != nil {
		return eris.Wrap(err, "failed to update run log")
	}
	return nil
}

// ListRunLogs 按时间倒序列出会话的运行日志
func (s *Store) ListRunLogs(ctx context.Context, sessionID string, limit int) ([]RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, kind, status, total_lines, review_lines, warning_count,
			error_message, started_at, completed_at
		FROM run_logs WHERE session_id = ?
		ORDER BY id DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query run logs")
	}
	defer rows.Close()

	out := make([]RunLog, 0)
	for rows.Next() {
		var l RunLog
		var completed sql.NullTime
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Kind, &l.Status, &l.TotalLines, &l.ReviewLines,
			&l.WarningCount, &l.ErrorMessage, &l.StartedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "failed to scan run log")
		}
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
