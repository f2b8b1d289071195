package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pricecheck/internal/model"
	"pricecheck/internal/parser"
)

// Options 一次对账运行的参数
type Options struct {
	Fields  model.Fields
	Percent decimal.Decimal
}

// Result 一次对账运行的产物
type Result struct {
	Lines    []model.CampaignLine `json:"lines"`
	Review   []model.CampaignLine `json:"review"`
	Stats    Stats                `json:"stats"`
	Warnings []model.Warning      `json:"warnings"`
}

// Run 完整执行：校验 -> 解码 -> 关联 SKU 表 -> 价格解析 -> 回写人工编辑 -> 统计。
// 每次调用都从输入表重新计算，相同输入得到相同输出。
func Run(in Inputs, edits []model.HumanEdit, opts Options) (*Result, error) {
	f := opts.Fields.WithDefaults()
	if err := ValidateInputs(in, f); err != nil {
		return nil, err
	}

	var warnings []model.Warning

	catalog := parser.DecodeCatalog(in.Catalog, f)
	prices, w := parser.DecodeToolPrices(in.Tool, f)
	warnings = append(warnings, w...)
	lines, w := parser.DecodeCampaign(in.Campaign, f)
	warnings = append(warnings, w...)

	lines, w = JoinCatalog(lines, catalog)
	warnings = append(warnings, w...)
	warnings = append(warnings, DuplicateLineWarnings(lines)...)

	idx, dropped := NewPriceIndex(prices)
	if dropped > 0 {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarnNaNKey,
			Table:   model.TableTool,
			Message: fmt.Sprintf("%d 行 SKU 为空或为 nan，未参与匹配", dropped),
		})
	}
	lines = ResolveWithIndex(lines, idx)

	evaluated := EvaluateEdits(lines, edits, opts.Percent)
	lines, w = Reconcile(lines, evaluated)
	warnings = append(warnings, w...)

	stats := ComputeStats(lines)
	if stats.OutOfBand > 0 {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarnOutOfBand,
			Message: fmt.Sprintf("有%d行价格超出允许浮动范围，请注意核查！", stats.OutOfBand),
		})
	}

	return &Result{
		Lines:    lines,
		Review:   ReviewSubset(lines),
		Stats:    stats,
		Warnings: warnings,
	}, nil
}
