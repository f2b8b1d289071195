package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
)

// ConfigLastSession 最近一次打开的会话
const ConfigLastSession = "last_session_id"

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = eris.New("config key not found")

// GetConfig 获取配置项
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", eris.Wrapf(ErrConfigNotFound, "%s", key)
		}
		return "", eris.Wrapf(err, "failed to get config %s", key)
	}
	return value, nil
}

// SetConfig 设置配置项
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return eris.Wrapf(err, "failed to set config %s", key)
	}
	return nil
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM config")
	if err != nil {
		return nil, eris.Wrap(err, "failed to query config")
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, eris.Wrap(err, "failed to scan config")
		}
		config[key] = value
	}
	return config, rows.Err()
}
