package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pricecheck/internal/export"
	"pricecheck/internal/pricing"
	"pricecheck/internal/service/session"
	"pricecheck/internal/store"
)

type schemaErrorDTO struct {
	Table   string   `json:"table"`
	Missing []string `json:"missing"`
}

// respondError 按错误类型返回状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return
	}

	if schemaErrs := pricing.SchemaErrors(err); len(schemaErrs) > 0 {
		details := make([]schemaErrorDTO, 0, len(schemaErrs))
		for _, se := range schemaErrs {
			details = append(details, schemaErrorDTO{Table: se.Table, Missing: se.Missing})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "schema": details})
		return
	}
	if errors.Is(err, pricing.ErrTableMissing) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ve *session.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
		return
	}

	var ae *export.AlignmentError
	if errors.As(err, &ae) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "导出定位失败: " + ae.Reason})
		return
	}

	h.logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
}
