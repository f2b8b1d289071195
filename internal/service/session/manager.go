package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricecheck/internal/export"
	"pricecheck/internal/model"
	"pricecheck/internal/parser"
	"pricecheck/internal/pricing"
	"pricecheck/internal/service/excel"
	"pricecheck/internal/store"
)

// Manager 会话管理：保存上传文件与人工编辑，每次请求都基于它们重新执行完整对账
type Manager struct {
	dataDir  string
	store    *store.Store
	defaults Defaults
	logger   *zap.Logger
}

// NewManager 创建会话管理器
func NewManager(dataDir string, st *store.Store, defaults Defaults, logger *zap.Logger) (*Manager, error) {
	if dataDir == "" {
		return nil, errors.New("dataDir is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults.Fields = defaults.Fields.WithDefaults()
	if defaults.AuditColumn < 1 {
		defaults.AuditColumn = export.DefaultAuditColumn
	}
	return &Manager{
		dataDir:  dataDir,
		store:    st,
		defaults: defaults,
		logger:   logger,
	}, nil
}

func (m *Manager) uploadDir(id string) string {
	return filepath.Join(m.dataDir, "uploads", id)
}

func (m *Manager) exportDir() string {
	return filepath.Join(m.dataDir, "exports")
}

// Fields 列名绑定
func (m *Manager) Fields() model.Fields {
	return m.defaults.Fields
}

// Create 保存上传文件并新建会话。三张表的缺列问题在此一次性报告，失败时不留下任何记录。
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Evaluation, error) {
	if err := validateUploads(req); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	sess := &store.Session{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		CatalogFile:  req.Catalog.Filename,
		ToolFile:     req.Tool.Filename,
		CampaignFile: req.Campaign.Filename,
	}
	if sess.Name == "" {
		sess.Name = strings.TrimSuffix(req.Campaign.Filename, filepath.Ext(req.Campaign.Filename))
	}
	if err := applyParams(sess, req.Params, m.defaults); err != nil {
		return nil, err
	}

	dir := m.uploadDir(id)
	files := []struct {
		upload Upload
		name   string
		path   *string
	}{
		{req.Catalog, "catalog", &sess.CatalogPath},
		{req.Tool, "tool", &sess.ToolPath},
		{req.Campaign, "campaign", &sess.CampaignPath},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name+strings.ToLower(filepath.Ext(f.upload.Filename)))
		if err := writeFileAtomic(path, f.upload.Data); err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		*f.path = path
	}

	if err := m.store.CreateSession(ctx, sess); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	// 结构问题（缺列、表头行错误）直接拒绝，不保留会话
	ev, err := m.Evaluate(ctx, id)
	if err != nil {
		if delErr := m.store.DeleteSession(ctx, id); delErr != nil {
			m.logger.Warn("failed to roll back session", zap.String("session", id), zap.Error(delErr))
		}
		os.RemoveAll(dir)
		return nil, err
	}

	if err := m.store.SetConfig(ctx, store.ConfigLastSession, id); err != nil {
		m.logger.Warn("failed to remember last session", zap.Error(err))
	}
	m.logger.Info("session created",
		zap.String("session", id),
		zap.String("campaign", sess.CampaignFile),
		zap.Int("lines", len(ev.Result.Lines)),
	)
	return ev, nil
}

func validateUploads(req CreateRequest) error {
	uploads := []struct {
		field  string
		upload Upload
	}{
		{"catalog", req.Catalog},
		{"tool", req.Tool},
		{"campaign", req.Campaign},
	}
	for _, u := range uploads {
		if len(u.upload.Data) == 0 {
			return invalid(u.field, "文件为空或未上传")
		}
		if !excel.IsSpreadsheet(u.upload.Filename) && !excel.IsCSV(u.upload.Filename) {
			return invalid(u.field, "不支持的文件格式: %s", u.upload.Filename)
		}
	}
	// 导出需要在原工作簿上改写
	if !excel.IsSpreadsheet(req.Campaign.Filename) {
		return invalid("campaign", "活动价格提交表必须为 Excel 文件")
	}
	return nil
}

// applyParams 按请求参数填充会话，未指定的取 d 中的值
func applyParams(sess *store.Session, p Params, d Defaults) error {
	pick := func(v *int, def int) int {
		if v != nil {
			return *v
		}
		return def
	}
	sess.CatalogHeaderRow = pick(p.CatalogHeaderRow, d.CatalogHeaderRow)
	sess.ToolHeaderRow = pick(p.ToolHeaderRow, d.ToolHeaderRow)
	sess.CampaignHeaderRow = pick(p.CampaignHeaderRow, d.Campaign.HeaderRow)
	sess.RemarkStart = pick(p.RemarkStart, d.Campaign.RemarkStart)
	sess.RemarkEnd = pick(p.RemarkEnd, d.Campaign.RemarkEnd)
	sess.AuditColumn = pick(p.AuditColumn, d.AuditColumn)
	sess.PricePercent = d.Percent
	if p.PricePercent != nil {
		sess.PricePercent = *p.PricePercent
	}
	sess.IntegerPrices = d.IntegerPrices
	if p.IntegerPrices != nil {
		sess.IntegerPrices = *p.IntegerPrices
	}

	if sess.CatalogHeaderRow < 1 {
		return invalid("catalogHeaderRow", "表头行必须 >= 1")
	}
	if sess.ToolHeaderRow < 1 {
		return invalid("toolHeaderRow", "表头行必须 >= 1")
	}
	if err := campaignLayout(sess).Validate(); err != nil {
		return invalid("campaignHeaderRow", "%v", err)
	}
	if sess.AuditColumn < 1 {
		return invalid("auditColumn", "价格标记列必须 >= 1")
	}
	if sess.PricePercent.IsNegative() || sess.PricePercent.GreaterThan(decimal.NewFromInt(100)) {
		return invalid("pricePercent", "浮动百分比必须在 0-100 之间")
	}
	return nil
}

func campaignLayout(sess *store.Session) model.Layout {
	return model.Layout{
		HeaderRow:   sess.CampaignHeaderRow,
		RemarkStart: sess.RemarkStart,
		RemarkEnd:   sess.RemarkEnd,
	}
}

// Get 读取会话记录
func (m *Manager) Get(ctx context.Context, id string) (*store.Session, error) {
	return m.store.GetSession(ctx, id)
}

// List 列出全部会话
func (m *Manager) List(ctx context.Context) ([]*store.Session, error) {
	return m.store.ListSessions(ctx)
}

// LastSessionID 最近一次新建的会话，没有时返回空串
func (m *Manager) LastSessionID(ctx context.Context) string {
	id, err := m.store.GetConfig(ctx, store.ConfigLastSession)
	if err != nil {
		return ""
	}
	return id
}

// UpdateParams 修改会话参数并重新执行
func (m *Manager) UpdateParams(ctx context.Context, id string, p Params) (*Evaluation, error) {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	current := Defaults{
		CatalogHeaderRow: sess.CatalogHeaderRow,
		ToolHeaderRow:    sess.ToolHeaderRow,
		Campaign:         campaignLayout(sess),
		Percent:          sess.PricePercent,
		AuditColumn:      sess.AuditColumn,
		IntegerPrices:    sess.IntegerPrices,
	}
	prev := *sess
	if err := applyParams(sess, p, current); err != nil {
		return nil, err
	}
	if err := m.store.UpdateSessionLayout(ctx, sess); err != nil {
		return nil, err
	}
	ev, err := m.Evaluate(ctx, id)
	if err != nil {
		if rbErr := m.store.UpdateSessionLayout(ctx, &prev); rbErr != nil {
			m.logger.Warn("failed to restore session params", zap.String("session", id), zap.Error(rbErr))
		}
		return nil, err
	}
	return ev, nil
}

// Delete 删除会话、编辑与上传文件
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	if err := os.RemoveAll(m.uploadDir(id)); err != nil {
		m.logger.Warn("failed to remove uploads", zap.String("session", id), zap.Error(err))
	}
	return nil
}

// Evaluate 基于上传文件与已保存的人工编辑重新执行完整对账
func (m *Manager) Evaluate(ctx context.Context, id string) (*Evaluation, error) {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	edits, err := m.store.ListEdits(ctx, id)
	if err != nil {
		return nil, err
	}

	logID, err := m.store.CreateRunLog(ctx, id, store.RunKindEvaluate)
	if err != nil {
		return nil, err
	}
	res, err := m.run(ctx, sess, toHumanEdits(edits))
	if err != nil {
		m.completeLog(ctx, logID, nil, err)
		return nil, err
	}
	m.completeLog(ctx, logID, res, nil)

	return &Evaluation{Session: sess, Result: res}, nil
}

func (m *Manager) run(ctx context.Context, sess *store.Session, edits []model.HumanEdit) (*pricing.Result, error) {
	in, err := m.loadInputs(sess)
	if err != nil {
		return nil, err
	}
	res, err := pricing.Run(in, edits, pricing.Options{
		Fields:  m.defaults.Fields,
		Percent: sess.PricePercent,
	})
	if err != nil {
		return nil, err
	}
	m.logWarnings(sess.ID, res.Warnings)
	return res, nil
}

func (m *Manager) loadInputs(sess *store.Session) (pricing.Inputs, error) {
	var uploads [3]Upload
	for i, f := range []struct{ name, path string }{
		{sess.CatalogFile, sess.CatalogPath},
		{sess.ToolFile, sess.ToolPath},
		{sess.CampaignFile, sess.CampaignPath},
	} {
		data, err := readUpload(f.path)
		if err != nil {
			return pricing.Inputs{}, err
		}
		uploads[i] = Upload{Filename: f.name, Data: data}
	}
	return decodeInputs(sess, uploads[0], uploads[1], uploads[2])
}

// DefaultPreviewRows 预览默认返回的行数
const DefaultPreviewRows = 20

// 预览时的表标识
const (
	PreviewCatalog  = "catalog"
	PreviewTool     = "tool"
	PreviewCampaign = "campaign"
)

// Preview 返回某张上传表的前 limit 行原始内容与工作表列表
func (m *Manager) Preview(ctx context.Context, id, table, sheet string, limit int) (*Preview, error) {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	var name, path string
	var headerRow int
	switch table {
	case PreviewCatalog:
		name, path, headerRow = sess.CatalogFile, sess.CatalogPath, sess.CatalogHeaderRow
	case PreviewTool:
		name, path, headerRow = sess.ToolFile, sess.ToolPath, sess.ToolHeaderRow
	case PreviewCampaign:
		name, path, headerRow = sess.CampaignFile, sess.CampaignPath, sess.CampaignHeaderRow
	default:
		return nil, invalid("table", "未知的表: %q", table)
	}
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	data, err := readUpload(path)
	if err != nil {
		return nil, err
	}
	sheets, err := excel.SheetNames(name, data)
	if err != nil {
		return nil, invalid("table", "%v", err)
	}
	if sheet != "" && !slices.Contains(sheets, sheet) {
		return nil, invalid("sheet", "工作表不存在: %q", sheet)
	}
	rows, err := excel.PreviewRows(name, data, sheet, limit)
	if err != nil {
		return nil, invalid("table", "%v", err)
	}
	return &Preview{
		Table:     table,
		FileName:  name,
		Sheets:    sheets,
		Sheet:     sheet,
		HeaderRow: headerRow,
		Rows:      rows,
	}, nil
}

// decodeInputs 按会话参数解码三张表
func decodeInputs(sess *store.Session, catalog, tool, campaign Upload) (pricing.Inputs, error) {
	var in pricing.Inputs
	var err error
	if in.Catalog, err = decodeTable(model.TableCatalog, catalog, model.Layout{HeaderRow: sess.CatalogHeaderRow}); err != nil {
		return in, err
	}
	if in.Tool, err = decodeTable(model.TableTool, tool, model.Layout{HeaderRow: sess.ToolHeaderRow}); err != nil {
		return in, err
	}
	if in.Campaign, err = decodeTable(model.TableCampaign, campaign, campaignLayout(sess)); err != nil {
		return in, err
	}
	return in, nil
}

func readUpload(path string) ([]byte, error) {
	if !fileExists(path) {
		return nil, eris.Errorf("上传文件已丢失: %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return data, nil
}

func decodeTable(name string, u Upload, layout model.Layout) (*model.Table, error) {
	table, err := excel.ReadTable(name, u.Filename, u.Data, excel.ReadOptions{Layout: layout})
	if err != nil {
		return nil, invalid(name, "%v", err)
	}
	return table, nil
}

func (m *Manager) logWarnings(id string, warnings []model.Warning) {
	for _, w := range warnings {
		m.logger.Warn(w.Message,
			zap.String("session", id),
			zap.String("kind", string(w.Kind)),
			zap.String("table", w.Table),
			zap.Int("row", w.RowNo),
			zap.String("value", w.Value),
		)
	}
}

func (m *Manager) completeLog(ctx context.Context, logID int64, res *pricing.Result, runErr error) {
	var err error
	if runErr != nil {
		err = m.store.CompleteRunLog(ctx, logID, 0, 0, 0, store.RunStatusFailed, runErr.Error())
	} else {
		err = m.store.CompleteRunLog(ctx, logID, len(res.Lines), len(res.Review), len(res.Warnings), store.RunStatusSuccess, "")
	}
	if err != nil {
		m.logger.Warn("failed to complete run log", zap.Int64("log", logID), zap.Error(err))
	}
}

func toHumanEdits(edits []store.Edit) []model.HumanEdit {
	out := make([]model.HumanEdit, 0, len(edits))
	for _, e := range edits {
		price, _ := parser.ParsePrice(e.PriceText)
		out = append(out, model.HumanEdit{
			ProductID:      e.ProductID,
			VariationID:    e.VariationID,
			ResolvedPrice:  price,
			PriceText:      e.PriceText,
			HumanConfirmed: e.Confirmed,
		})
	}
	return out
}

// SubmitEdits 保存审核表中的修改并重新执行。
// 只允许修改审核范围内的行；未携带价格的修改沿用当前价格，未携带确认状态的修改沿用已保存的确认状态。
func (m *Manager) SubmitEdits(ctx context.Context, id string, inputs []EditInput) (*Evaluation, error) {
	current, err := m.Evaluate(ctx, id)
	if err != nil {
		return nil, err
	}
	saved, err := m.store.ListEdits(ctx, id)
	if err != nil {
		return nil, err
	}

	lines := make(map[string]model.CampaignLine, len(current.Result.Lines))
	for _, l := range current.Result.Lines {
		k := parser.CompositeKey(l.ProductID, l.VariationID)
		if _, ok := lines[k]; !ok {
			lines[k] = l
		}
	}
	confirmed := make(map[string]*bool, len(saved))
	for _, e := range saved {
		confirmed[parser.CompositeKey(e.ProductID, e.VariationID)] = e.Confirmed
	}

	records := make([]store.Edit, 0, len(inputs))
	for i, in := range inputs {
		productID := parser.NormalizeID(in.ProductID)
		variationID := parser.NormalizeID(in.VariationID)
		if productID == "" || variationID == "" {
			return nil, invalid(fmt.Sprintf("edits[%d]", i), "缺少 Product ID 或 Variation ID")
		}
		k := parser.CompositeKey(productID, variationID)

		if l, ok := lines[k]; ok && !pricing.NeedsReview(l) {
			return nil, invalid(fmt.Sprintf("edits[%d]", i), "%s/%s 的价格已由工具价格确定，不在审核范围内", productID, variationID)
		}

		rec := store.Edit{ProductID: productID, VariationID: variationID, Confirmed: confirmed[k]}
		if in.PriceText != nil {
			text := strings.TrimSpace(*in.PriceText)
			price, ok := parser.ParsePrice(text)
			if !ok {
				return nil, invalid(fmt.Sprintf("edits[%d]", i), "价格格式错误: %q", text)
			}
			rec.PriceText = parser.FormatPrice(price)
		} else if l, ok := lines[k]; ok {
			rec.PriceText = parser.FormatPrice(l.ResolvedPrice)
		}
		if in.HumanConfirmed != nil {
			v := *in.HumanConfirmed
			rec.Confirmed = &v
		}
		records = append(records, rec)
	}

	if err := m.store.UpsertEdits(ctx, id, records); err != nil {
		return nil, err
	}
	m.logger.Info("edits saved", zap.String("session", id), zap.Int("count", len(records)))
	return m.Evaluate(ctx, id)
}

// ClearEdits 清空人工编辑，返回删除条数
func (m *Manager) ClearEdits(ctx context.Context, id string) (int64, error) {
	if _, err := m.store.GetSession(ctx, id); err != nil {
		return 0, err
	}
	n, err := m.store.ClearEdits(ctx, id)
	if err != nil {
		return 0, err
	}
	m.logger.Info("edits cleared", zap.String("session", id), zap.Int64("count", n))
	return n, nil
}

// Export 将最终价格与价格标记写回活动价格提交表，生成的文件位于 exports 目录
func (m *Manager) Export(ctx context.Context, id string) (*ExportResult, error) {
	ev, err := m.Evaluate(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := ev.Session

	logID, err := m.store.CreateRunLog(ctx, id, store.RunKindExport)
	if err != nil {
		return nil, err
	}

	result, err := m.compose(sess, ev.Result.Lines)
	if err != nil {
		m.completeLog(ctx, logID, nil, err)
		return nil, err
	}
	if err := m.store.CompleteRunLog(ctx, logID, len(ev.Result.Lines), result.Plan.Matched, len(result.Plan.Warnings), store.RunStatusSuccess, ""); err != nil {
		m.logger.Warn("failed to complete run log", zap.Int64("log", logID), zap.Error(err))
	}
	m.logWarnings(id, result.Plan.Warnings)
	m.logger.Info("export composed",
		zap.String("session", id),
		zap.Int("matched", result.Plan.Matched),
		zap.Int("unmatched", result.Plan.Unmatched),
	)
	return result, nil
}

func (m *Manager) compose(sess *store.Session, lines []model.CampaignLine) (*ExportResult, error) {
	original, err := readUpload(sess.CampaignPath)
	if err != nil {
		return nil, err
	}
	out, plan, err := composeWorkbook(sess, m.defaults.Fields, original, lines)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(m.exportDir(), fmt.Sprintf("%s_%s.xlsx", sess.ID, uuid.New().String()[:8]))
	if err := writeFileAtomic(path, out); err != nil {
		return nil, err
	}
	return &ExportResult{Path: path, FileName: export.FileName, Plan: plan}, nil
}

func composeWorkbook(sess *store.Session, fields model.Fields, original []byte, lines []model.CampaignLine) ([]byte, *export.Plan, error) {
	return export.ComposeWorkbook(original, lines, export.Options{
		Layout:        campaignLayout(sess),
		AuditColumn:   sess.AuditColumn,
		PriceField:    fields.Price,
		KeyFields:     fields.KeyFields(),
		IntegerPrices: sess.IntegerPrices,
	})
}
