package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pricecheck/internal/service/session"
)

// GetReview 需要人工审核的行
// GET /api/sessions/:id/review
func (h *Handler) GetReview(c *gin.Context) {
	ev, err := h.sessions.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(ev))
}

// SubmitReview 提交审核表修改，服务端计算是否修改与是否超出浮动范围
// PATCH /api/sessions/:id/review
func (h *Handler) SubmitReview(c *gin.Context) {
	var reqs []EditRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	inputs := make([]session.EditInput, 0, len(reqs))
	for _, r := range reqs {
		in, err := r.toInput()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "价格格式错误"})
			return
		}
		inputs = append(inputs, in)
	}

	ev, err := h.sessions.SubmitEdits(c.Request.Context(), c.Param("id"), inputs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(ev))
}

// ClearReview 清空人工修改
// DELETE /api/sessions/:id/review
func (h *Handler) ClearReview(c *gin.Context) {
	n, err := h.sessions.ClearEdits(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}
