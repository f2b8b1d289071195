package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
)

// Edit 已保存的人工编辑。Confirmed 为 nil 表示未设置确认状态。
type Edit struct {
	SessionID   string    `json:"sessionId"`
	ProductID   string    `json:"productId"`
	VariationID string    `json:"variationId"`
	PriceText   string    `json:"priceText"`
	Confirmed   *bool     `json:"confirmed,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpsertEdits 批量保存编辑，同一行的旧编辑被覆盖
func (s *Store) UpsertEdits(ctx context.Context, sessionID string, edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edits (session_id, product_id, variation_id, price_text, confirmed)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(session_id, product_id, variation_id) DO UPDATE SET
				price_text = excluded.price_text,
				confirmed = excluded.confirmed,
				updated_at = CURRENT_TIMESTAMP
		`)
		if err != nil {
			return eris.Wrap(err, "failed to prepare edit upsert")
		}
		defer stmt.Close()

		for _, e := range edits {
			var confirmed sql.NullBool
			if e.Confirmed != nil {
				confirmed = sql.NullBool{Bool: *e.Confirmed, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, sessionID, e.ProductID, e.VariationID, e.PriceText, confirmed); err != nil {
				return eris.Wrapf(err, "failed to save edit %s-%s", e.ProductID, e.VariationID)
			}
		}
		if _, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", sessionID); err != nil {
			return eris.Wrap(err, "failed to touch session")
		}
		return nil
	})
}

// ListEdits 按保存顺序列出会话的编辑
func (s *Store) ListEdits(ctx context.Context, sessionID string) ([]Edit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, product_id, variation_id, price_text, confirmed, updated_at
		FROM edits WHERE session_id = ?
		ORDER BY updated_at, rowid
	`, sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query edits")
	}
	defer rows.Close()

	out := make([]Edit, 0)
	for rows.Next() {
		var e Edit
		var confirmed sql.NullBool
		if err := rows.Scan(&e.SessionID, &e.ProductID, &e.VariationID, &e.PriceText, &confirmed, &e.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "failed to scan edit")
		}
		if confirmed.Valid {
			v := confirmed.Bool
			e.Confirmed = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearEdits 清空会话的全部编辑，返回删除条数
func (s *Store) ClearEdits(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM edits WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, eris.Wrap(err, "failed to clear edits")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "failed to get affected rows")
	}
	return n, nil
}
