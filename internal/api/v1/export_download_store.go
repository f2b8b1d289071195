package v1

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"sync"
	"time"
)

// exportTTL 下载链接有效期
const exportTTL = 10 * time.Minute

type exportDownload struct {
	filePath  string
	fileName  string
	sessionID string
	expiresAt time.Time
}

type exportDownloadStore struct {
	mu    sync.Mutex
	items map[string]exportDownload
	now   func() time.Time
}

func newExportDownloadStore() *exportDownloadStore {
	return &exportDownloadStore{
		items: make(map[string]exportDownload),
		now:   time.Now,
	}
}

func (s *exportDownloadStore) put(item exportDownload, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removeFiles(s.purgeExpiredLocked(now))

	token = newRandomToken(24)
	item.expiresAt = now.Add(ttl)
	s.items[token] = item
	return token
}

func (s *exportDownloadStore) get(token string) (exportDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removeFiles(s.purgeExpiredLocked(now))

	v, ok := s.items[token]
	if !ok {
		return exportDownload{}, false
	}
	return v, true
}

func (s *exportDownloadStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

// purgeExpiredLocked 清理过期项，返回被清理的文件路径
func (s *exportDownloadStore) purgeExpiredLocked(now time.Time) []string {
	var expired []string
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			expired = append(expired, v.filePath)
			delete(s.items, k)
		}
	}
	return expired
}

func removeFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
