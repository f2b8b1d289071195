package export

import "pricecheck/internal/model"

// AuditHeader 价格标记列的表头
const AuditHeader = "价格标记"

// LabelPriceMissing 最终价格缺失/为零时的标记，优先级最高
const LabelPriceMissing = "价格缺失(含其他严重错误)"

const (
	suffixModified          = "（已手动更改）"
	suffixConfirmed         = "（已人工确认）"
	suffixModifiedConfirmed = "（已手动更改并确认）"
)

// sourceLabels 价格来源的展示名；新增来源只需在此登记
var sourceLabels = map[model.PriceSource]string{
	model.SourceToolPrice:                  "工具价格",
	model.SourceParentToolPrice:            "Parent工具价格",
	model.SourceRecommended:                "推荐价格",
	model.SourceInvalidToolPriceZero:       "无效工具价格(零)",
	model.SourceInvalidParentToolPriceZero: "无效Parent工具价格(零)",
}

// SourceLabel 价格来源展示名
func SourceLabel(s model.PriceSource) string {
	return sourceLabels[s]
}

// DisplaySource 预览表中的来源展示：推荐价格行被人工改价时显示为已更改
func DisplaySource(l model.CampaignLine) string {
	if l.ManualOverride {
		return SourceLabel(model.SourceRecommended) + suffixModified
	}
	return SourceLabel(l.PriceSource)
}

// AuditLabel 导出到价格标记列的文本
func AuditLabel(l model.CampaignLine) string {
	if l.PriceMissing() {
		return LabelPriceMissing
	}
	base := SourceLabel(l.PriceSource)
	if !l.PriceSource.NeedsReview() {
		return base
	}
	switch {
	case l.Modified && l.HumanConfirmed:
		return base + suffixModifiedConfirmed
	case l.Modified:
		return base + suffixModified
	case l.HumanConfirmed:
		return base + suffixConfirmed
	}
	return base
}
