package pricing

import (
	"github.com/shopspring/decimal"

	"pricecheck/internal/model"
)

// IsModified 当前价格是否不同于初始推荐价格。
// 两者都能转成数字时按数值比较，否则退回到文本比较。
// 两者都为空且编辑未携带价格文本时视为未修改。
func IsModified(price decimal.NullDecimal, priceText string, initial decimal.NullDecimal, initialText string) bool {
	if price.Valid && initial.Valid {
		return !price.Decimal.Equal(initial.Decimal)
	}
	if !price.Valid && !initial.Valid && priceText == "" {
		return false
	}
	if price.Valid {
		priceText = price.Decimal.String()
	}
	if initial.Valid {
		initialText = initial.Decimal.String()
	}
	return priceText != initialText
}

// EvaluateEdits 为人工编辑补全 Modified 与 PriceValid：
// Modified 与初始推荐价格比较，PriceValid 以推荐价格为中心按 percent 校验。
// 找不到对应行的编辑原样返回，由 Reconcile 忽略。
func EvaluateEdits(lines []model.CampaignLine, edits []model.HumanEdit, percent decimal.Decimal) []model.HumanEdit {
	idx := indexLines(lines)
	out := make([]model.HumanEdit, len(edits))
	for i, e := range edits {
		if pos, ok := idx[lineKey(e.ProductID, e.VariationID)]; ok {
			l := lines[pos]
			modified := IsModified(e.ResolvedPrice, e.PriceText, l.InitialRecommendedPrice, l.InitialRecommendedText)
			valid := IsValid(l.RecommendedPrice, e.ResolvedPrice, percent)
			e.Modified = &modified
			e.PriceValid = &valid
		}
		if e.HumanConfirmed == nil {
			confirmed := false
			e.HumanConfirmed = &confirmed
		}
		out[i] = e
	}
	return out
}

// Reconcile 将人工编辑回写到全量活动行：覆盖 ResolvedPrice，以及编辑中携带的
// Modified/PriceValid/HumanConfirmed，其余字段不变。
// 找不到对应行、或对应行不在审核范围内的编辑被忽略并给出提示。
func Reconcile(lines []model.CampaignLine, edits []model.HumanEdit) ([]model.CampaignLine, []model.Warning) {
	out := make([]model.CampaignLine, len(lines))
	copy(out, lines)

	idx := indexLines(out)
	var warnings []model.Warning
	for _, e := range edits {
		k := lineKey(e.ProductID, e.VariationID)
		pos, ok := idx[k]
		if !ok {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarnUnmatchedEdit,
				Value:   k,
				Message: "人工编辑未找到对应的活动行，已忽略",
			})
			continue
		}
		l := &out[pos]
		if !NeedsReview(*l) {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarnEditNotAllowed,
				Table:   model.TableCampaign,
				RowNo:   l.RowNo,
				Value:   k,
				Message: "该行价格已由工具价格确定，不在审核范围内，人工编辑已忽略",
			})
			continue
		}
		l.ResolvedPrice = e.ResolvedPrice
		if e.Modified != nil {
			l.Modified = *e.Modified
		}
		if e.PriceValid != nil {
			l.PriceValid = *e.PriceValid
		}
		if e.HumanConfirmed != nil {
			l.HumanConfirmed = *e.HumanConfirmed
		}
		l.ManualOverride = l.PriceSource == model.SourceRecommended && l.Modified
	}
	return out, warnings
}
