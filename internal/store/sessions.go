package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = eris.New("session not found")

// Session 对账会话记录
type Session struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	CatalogFile       string          `json:"catalogFile"`
	CatalogPath       string          `json:"-"`
	ToolFile          string          `json:"toolFile"`
	ToolPath          string          `json:"-"`
	CampaignFile      string          `json:"campaignFile"`
	CampaignPath      string          `json:"-"`
	CatalogHeaderRow  int             `json:"catalogHeaderRow"`
	ToolHeaderRow     int             `json:"toolHeaderRow"`
	CampaignHeaderRow int             `json:"campaignHeaderRow"`
	RemarkStart       int             `json:"remarkStart"`
	RemarkEnd         int             `json:"remarkEnd"`
	PricePercent      decimal.Decimal `json:"pricePercent"`
	AuditColumn       int             `json:"auditColumn"`
	IntegerPrices     bool            `json:"integerPrices"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

const sessionColumns = `id, name, catalog_file, catalog_path, tool_file, tool_path,
	campaign_file, campaign_path, catalog_header_row, tool_header_row, campaign_header_row,
	remark_start, remark_end, price_percent, audit_column, integer_prices, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*Session, error) {
	var sess Session
	err := r.Scan(
		&sess.ID, &sess.Name,
		&sess.CatalogFile, &sess.CatalogPath,
		&sess.ToolFile, &sess.ToolPath,
		&sess.CampaignFile, &sess.CampaignPath,
		&sess.CatalogHeaderRow, &sess.ToolHeaderRow, &sess.CampaignHeaderRow,
		&sess.RemarkStart, &sess.RemarkEnd,
		&sess.PricePercent, &sess.AuditColumn, &sess.IntegerPrices,
		&sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// CreateSession 新建会话
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, name, catalog_file, catalog_path, tool_file, tool_path,
			campaign_file, campaign_path, catalog_header_row, tool_header_row, campaign_header_row,
			remark_start, remark_end, price_percent, audit_column, integer_prices
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID, sess.Name, sess.CatalogFile, sess.CatalogPath, sess.ToolFile, sess.ToolPath,
		sess.CampaignFile, sess.CampaignPath, sess.CatalogHeaderRow, sess.ToolHeaderRow, sess.CampaignHeaderRow,
		sess.RemarkStart, sess.RemarkEnd, sess.PricePercent, sess.AuditColumn, sess.IntegerPrices,
	)
	if err != nil {
		return eris.Wrapf(err, "failed to create session %s", sess.ID)
	}
	return nil
}

// GetSession 读取会话
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrSessionNotFound, "%s", id)
		}
		return nil, eris.Wrapf(err, "failed to get session %s", id)
	}
	return sess, nil
}

// ListSessions 按更新时间倒序列出会话
func (s *Store) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM sessions ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, eris.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	out := make([]*Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "failed to scan session")
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// UpdateSessionLayout 更新表头行/备注行等读取参数
func (s *Store) UpdateSessionLayout(ctx context.Context, sess *Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			catalog_header_row = ?,
			tool_header_row = ?,
			campaign_header_row = ?,
			remark_start = ?,
			remark_end = ?,
			price_percent = ?,
			audit_column = ?,
			integer_prices = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		sess.CatalogHeaderRow, sess.ToolHeaderRow, sess.CampaignHeaderRow,
		sess.RemarkStart, sess.RemarkEnd, sess.PricePercent, sess.AuditColumn, sess.IntegerPrices,
		sess.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "failed to update session %s", sess.ID)
	}
	return requireAffected(res, sess.ID)
}

// TouchSession 刷新会话更新时间
func (s *Store) TouchSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return eris.Wrapf(err, "failed to touch session %s", id)
	}
	return requireAffected(res, id)
}

// DeleteSession 删除会话及其编辑
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return eris.Wrapf(err, "failed to delete session %s", id)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "failed to get affected rows")
	}
	if n == 0 {
		return eris.Wrapf(ErrSessionNotFound, "%s", id)
	}
	return nil
}
