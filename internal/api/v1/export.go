package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Export 生成最终活动价格表，返回一次性下载地址
// POST /api/sessions/:id/export
func (h *Handler) Export(c *gin.Context) {
	id := c.Param("id")
	res, err := h.sessions.Export(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token := h.downloads.put(exportDownload{
		filePath:  res.Path,
		fileName:  res.FileName,
		sessionID: id,
	}, exportTTL)

	prefix := "/api"
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		prefix = "/api/v1"
	}

	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": fmt.Sprintf("%s/export/download/%s", prefix, token),
		"fileName":    res.FileName,
		"matched":     res.Plan.Matched,
		"unmatched":   res.Plan.Unmatched,
		"warnings":    res.Plan.Warnings,
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", contentDisposition(item.fileName))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(item.filePath)

	h.downloads.delete(token)
	if err := os.Remove(item.filePath); err != nil {
		h.logger.Warn("failed to remove export file", zap.String("session", item.sessionID), zap.Error(err))
	}
}

// contentDisposition 中文文件名使用 RFC 5987 编码，并附带 ASCII 备用名
func contentDisposition(fileName string) string {
	return fmt.Sprintf("attachment; filename=\"campaign-prices.xlsx\"; filename*=UTF-8''%s", url.PathEscape(fileName))
}
