package session

import (
	"github.com/shopspring/decimal"

	"pricecheck/internal/config"
	"pricecheck/internal/export"
	"pricecheck/internal/model"
	"pricecheck/internal/pricing"
	"pricecheck/internal/store"
)

// Defaults 新建会话时未指定的参数取值
type Defaults struct {
	Fields           model.Fields
	CatalogHeaderRow int
	ToolHeaderRow    int
	Campaign         model.Layout
	Percent          decimal.Decimal
	AuditColumn      int
	IntegerPrices    bool
}

// DefaultsFromConfig 从应用配置生成默认参数
func DefaultsFromConfig(cfg *config.AppConfig) Defaults {
	return Defaults{
		Fields:           cfg.ModelFields(),
		CatalogHeaderRow: cfg.Sheets.SKUHeaderRow,
		ToolHeaderRow:    cfg.Sheets.ToolHeaderRow,
		Campaign:         cfg.CampaignLayout(),
		Percent:          cfg.PricePercent(),
		AuditColumn:      cfg.Sheets.AuditColumn,
		IntegerPrices:    cfg.Sheets.IntegerPrices,
	}
}

// Upload 上传的文件
type Upload struct {
	Filename string
	Data     []byte
}

// Params 会话参数；nil 表示使用默认值
type Params struct {
	CatalogHeaderRow  *int
	ToolHeaderRow     *int
	CampaignHeaderRow *int
	RemarkStart       *int
	RemarkEnd         *int
	PricePercent      *decimal.Decimal
	AuditColumn       *int
	IntegerPrices     *bool
}

// CreateRequest 新建会话请求
type CreateRequest struct {
	Name     string
	Catalog  Upload
	Tool     Upload
	Campaign Upload
	Params   Params
}

// EditInput 审核表中的一条人工修改。
// PriceText 为 nil 时保留当前价格，空串表示清空价格；HumanConfirmed 为 nil 时保留原确认状态。
type EditInput struct {
	ProductID      string
	VariationID    string
	PriceText      *string
	HumanConfirmed *bool
}

// Evaluation 一次完整运行的结果
type Evaluation struct {
	Session *store.Session  `json:"session"`
	Result  *pricing.Result `json:"result"`
}

// InvalidCount 审核表中价格超出浮动范围的行数
func (e *Evaluation) InvalidCount() int {
	return e.Result.Stats.OutOfBand
}

// ExportResult 导出结果
type ExportResult struct {
	Path     string       `json:"-"`
	FileName string       `json:"fileName"`
	Plan     *export.Plan `json:"plan"`
}

// Preview 上传文件的原始内容预览，用于核对表头行与备注行
type Preview struct {
	Table     string     `json:"table"`
	FileName  string     `json:"fileName"`
	Sheets    []string   `json:"sheets"`
	Sheet     string     `json:"sheet,omitempty"`
	HeaderRow int        `json:"headerRow"`
	Rows      [][]string `json:"rows"`
}
