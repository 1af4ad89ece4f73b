package api

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type download struct {
	filename  string
	data      []byte
	expiresAt time.Time
}

// downloadStore 生成文件的一次性下载令牌
type downloadStore struct {
	mu    sync.Mutex
	items map[string]download
}

func newDownloadStore() *downloadStore {
	return &downloadStore{
		items: make(map[string]download),
	}
}

func (s *downloadStore) put(filename string, data []byte, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token = newRandomToken(24)
	s.items[token] = download{
		filename:  filename,
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

// take 取出并作废令牌
func (s *downloadStore) take(token string) (download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if !ok {
		return download{}, false
	}
	delete(s.items, token)
	if time.Now().After(v.expiresAt) {
		return download{}, false
	}
	return v, true
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// contentDisposition ASCII 兜底文件名 + UTF-8 文件名
func contentDisposition(fallback, filename string) string {
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fallback, url.PathEscape(filename))
}

// sendXLSX 直接返回 Excel 文件
func sendXLSX(c *gin.Context, fallback, filename string, data []byte) {
	c.Header("Content-Disposition", contentDisposition(fallback, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// DownloadExport 下载生成的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	item, ok := h.downloads.take(c.Param("token"))
	if !ok {
		errorResponse(c, http.StatusNotFound, CodeNotFound, "下载链接已失效")
		return
	}
	sendXLSX(c, "download.xlsx", item.filename, item.data)
}
