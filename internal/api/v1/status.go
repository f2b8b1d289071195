package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pricecheck/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	SessionCount  int          `json:"sessionCount"`  // 会话数
	LastSessionID string       `json:"lastSessionId"` // 最近一次新建的会话
	Fields        model.Fields `json:"fields"`        // 列名绑定
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	sessions, err := h.sessions.List(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{
		SessionCount:  len(sessions),
		LastSessionID: h.sessions.LastSessionID(ctx),
		Fields:        h.sessions.Fields(),
	})
}
