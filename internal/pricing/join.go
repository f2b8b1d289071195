package pricing

import (
	"fmt"

	"pricecheck/internal/model"
	"pricecheck/internal/parser"
)

func lineKey(productID, variationID string) string {
	return parser.CompositeKey(productID, variationID)
}

// JoinCatalog 将 SKU 表按 (ProductID, VariationID) 左关联到活动行，补齐 SKU 与 Parent SKU。
// SKU 表中重复的主键以第一次出现为准。
func JoinCatalog(lines []model.CampaignLine, catalog []model.CatalogEntry) ([]model.CampaignLine, []model.Warning) {
	var warnings []model.Warning

	byKey := make(map[string]model.CatalogEntry, len(catalog))
	for _, e := range catalog {
		k := lineKey(e.ProductID, e.VariationID)
		if first, ok := byKey[k]; ok {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarnJoinAmbiguity,
				Table:   model.TableCatalog,
				RowNo:   e.RowNo,
				Value:   k,
				Message: fmt.Sprintf("主键与第%d行重复，已忽略", first.RowNo),
			})
			continue
		}
		byKey[k] = e
	}

	out := make([]model.CampaignLine, len(lines))
	for i, l := range lines {
		if e, ok := byKey[lineKey(l.ProductID, l.VariationID)]; ok {
			l.SKU = e.SKU
			l.ParentSKU = e.ParentSKU
		}
		out[i] = l
	}
	return out, warnings
}

// DuplicateLineWarnings 活动表中重复的 (ProductID, VariationID)：保留全部行，
// 人工编辑与导出均以第一次出现的行为准
func DuplicateLineWarnings(lines []model.CampaignLine) []model.Warning {
	var warnings []model.Warning
	seen := make(map[string]int, len(lines))
	for _, l := range lines {
		k := lineKey(l.ProductID, l.VariationID)
		if firstRow, ok := seen[k]; ok {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarnJoinAmbiguity,
				Table:   model.TableCampaign,
				RowNo:   l.RowNo,
				Value:   k,
				Message: fmt.Sprintf("主键与第%d行重复，审核与导出以第%d行为准", firstRow, firstRow),
			})
			continue
		}
		seen[k] = l.RowNo
	}
	return warnings
}

// indexLines 主键 -> 第一次出现的下标
func indexLines(lines []model.CampaignLine) map[string]int {
	idx := make(map[string]int, len(lines))
	for i, l := range lines {
		k := lineKey(l.ProductID, l.VariationID)
		if _, ok := idx[k]; !ok {
			idx[k] = i
		}
	}
	return idx
}
