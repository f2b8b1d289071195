package pricing

import (
	"github.com/shopspring/decimal"

	"pricecheck/internal/model"
	"pricecheck/internal/parser"
)

// PriceIndex 规范化 SKU -> 工具价格
type PriceIndex map[string]decimal.NullDecimal

// NewPriceIndex 构建价格索引：键去空白并去掉结尾 ".0"，重复键后写覆盖先写，
// 空键与 "nan" 键丢弃。dropped 为被丢弃的条目数。
func NewPriceIndex(entries []model.ToolPriceEntry) (idx PriceIndex, dropped int) {
	idx = make(PriceIndex, len(entries))
	for _, e := range entries {
		k := parser.NormalizeSKU(e.SKUCode)
		if k == "" {
			dropped++
			continue
		}
		idx[k] = e.ActivePrice
	}
	return idx, dropped
}

// lookup 查询 SKU 的工具价格；空 SKU、"nan"、未命中均返回 false
func (idx PriceIndex) lookup(sku string) (decimal.NullDecimal, bool) {
	k := parser.NormalizeSKU(sku)
	if k == "" {
		return decimal.NullDecimal{}, false
	}
	p, ok := idx[k]
	return p, ok
}

// Resolve 按 SKU -> Parent SKU -> 推荐价格 的优先级为每一行确定价格与来源。
// 不修改入参，返回新切片。
func Resolve(lines []model.CampaignLine, prices []model.ToolPriceEntry) []model.CampaignLine {
	idx, _ := NewPriceIndex(prices)
	return ResolveWithIndex(lines, idx)
}

// ResolveWithIndex 同 Resolve，使用已构建的价格索引
func ResolveWithIndex(lines []model.CampaignLine, idx PriceIndex) []model.CampaignLine {
	out := make([]model.CampaignLine, len(lines))
	for i, l := range lines {
		l.PriceSource = model.SourceUnresolved
		l.ResolvedPrice = decimal.NullDecimal{}
		l.InitialRecommendedPrice = l.RecommendedPrice
		l.InitialRecommendedText = l.RecommendedText
		l.Modified = false
		l.HumanConfirmed = false
		l.ManualOverride = false
		l.PriceValid = true
		out[i] = l
	}

	// 第一轮：SKU
	for i := range out {
		applyMatch(&out[i], idx, out[i].SKU, model.SourceToolPrice, model.SourceInvalidToolPriceZero)
	}

	// 第二轮：Parent SKU，处理第一轮未命中或工具价格为零的行
	for i := range out {
		if src := out[i].PriceSource; src != model.SourceUnresolved && src != model.SourceInvalidToolPriceZero {
			continue
		}
		applyMatch(&out[i], idx, out[i].ParentSKU, model.SourceParentToolPrice, model.SourceInvalidParentToolPriceZero)
	}

	// 第三轮：推荐价格兜底
	for i := range out {
		if out[i].PriceSource != model.SourceUnresolved {
			continue
		}
		out[i].PriceSource = model.SourceRecommended
		out[i].ResolvedPrice = out[i].RecommendedPrice
	}

	return out
}

// applyMatch 价格 > 0 采用工具价格；价格 = 0 记为无效匹配并回落到推荐价格；
// 价格为空或为负视为未命中，保留行的当前状态
func applyMatch(l *model.CampaignLine, idx PriceIndex, sku string, valid, invalidZero model.PriceSource) {
	price, ok := idx.lookup(sku)
	if !ok || !price.Valid {
		return
	}
	switch {
	case price.Decimal.IsPositive():
		l.PriceSource = valid
		l.ResolvedPrice = price
	case price.Decimal.IsZero():
		l.PriceSource = invalidZero
		l.ResolvedPrice = l.RecommendedPrice
	}
}
