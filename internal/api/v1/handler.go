package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricecheck/internal/service/session"
)

func init() {
	// 价格以 JSON 数字返回
	decimal.MarshalJSONWithoutQuotes = true
}

// Handler API 处理器
type Handler struct {
	sessions  *session.Manager
	downloads *exportDownloadStore
	logger    *zap.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(sessions *session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:  sessions,
		downloads: newExportDownloadStore(),
		logger:    logger,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 对账会话
	router.GET("/sessions", h.ListSessions)
	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions/:id", h.GetSession)
	router.PATCH("/sessions/:id", h.UpdateSession)
	router.DELETE("/sessions/:id", h.DeleteSession)
	router.GET("/sessions/:id/lines", h.GetLines)
	router.GET("/sessions/:id/preview", h.GetPreview)

	// 人工审核
	router.GET("/sessions/:id/review", h.GetReview)
	router.PATCH("/sessions/:id/review", h.SubmitReview)
	router.DELETE("/sessions/:id/review", h.ClearReview)

	// 导出
	router.POST("/sessions/:id/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}
