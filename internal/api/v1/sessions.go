package v1

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pricecheck/internal/service/session"
)

// ListSessions 会话列表
// GET /api/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions":      sessions,
		"lastSessionId": h.sessions.LastSessionID(c.Request.Context()),
	})
}

// CreateSession 上传三张表并新建会话
// POST /api/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的表单数据"})
		return
	}

	req := session.CreateRequest{Name: c.PostForm("name")}
	uploads := []struct {
		field string
		dst   *session.Upload
		label string
	}{
		{"catalog", &req.Catalog, "SKU表"},
		{"tool", &req.Tool, "工具价格表"},
		{"campaign", &req.Campaign, "活动价格提交表"},
	}
	for _, u := range uploads {
		files := form.File[u.field]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件: " + u.label, "field": u.field})
			return
		}
		upload, err := readUpload(files[0])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败: " + u.label, "field": u.field})
			return
		}
		*u.dst = upload
	}

	params, field, err := parseFormParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数格式错误: " + field, "field": field})
		return
	}
	req.Params = params

	ev, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(ev))
}

func readUpload(fh *multipart.FileHeader) (session.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return session.Upload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return session.Upload{}, err
	}
	return session.Upload{Filename: fh.Filename, Data: data}, nil
}

// parseFormParams 解析可选的表单参数，出错时返回字段名
func parseFormParams(c *gin.Context) (session.Params, string, error) {
	var p session.Params

	ints := []struct {
		field string
		dst   **int
	}{
		{"catalogHeaderRow", &p.CatalogHeaderRow},
		{"toolHeaderRow", &p.ToolHeaderRow},
		{"campaignHeaderRow", &p.CampaignHeaderRow},
		{"remarkStart", &p.RemarkStart},
		{"remarkEnd", &p.RemarkEnd},
		{"auditColumn", &p.AuditColumn},
	}
	for _, f := range ints {
		v, ok := c.GetPostForm(f.field)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, f.field, err
		}
		*f.dst = &n
	}

	if v, ok := c.GetPostForm("pricePercent"); ok && v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return p, "pricePercent", err
		}
		p.PricePercent = &d
	}
	if v, ok := c.GetPostForm("integerPrices"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, "integerPrices", err
		}
		p.IntegerPrices = &b
	}
	return p, "", nil
}

// GetSession 会话参数、统计与提示
// GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	ev, err := h.sessions.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(ev))
}

// UpdateSession 修改表头行、备注行、浮动百分比等参数
// PATCH /api/sessions/:id
func (h *Handler) UpdateSession(c *gin.Context) {
	var req SessionParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}
	ev, err := h.sessions.UpdateParams(c.Request.Context(), c.Param("id"), req.toParams())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(ev))
}

// DeleteSession 删除会话
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetLines 全量活动行（含来源展示与价格标记）
// GET /api/sessions/:id/lines
func (h *Handler) GetLines(c *gin.Context) {
	ev, err := h.sessions.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines": toLineDTOs(ev.Result.Lines),
		"stats": ev.Result.Stats,
	})
}

// GetPreview 上传文件前若干行原始内容，用于核对表头行与备注行
// GET /api/sessions/:id/preview?table=catalog|tool|campaign&sheet=&rows=
func (h *Handler) GetPreview(c *gin.Context) {
	limit := session.DefaultPreviewRows
	if v := c.Query("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rows 必须在 1-200 之间", "field": "rows"})
			return
		}
		limit = n
	}
	p, err := h.sessions.Preview(c.Request.Context(), c.Param("id"), c.Query("table"), c.Query("sheet"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
