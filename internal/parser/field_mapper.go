package parser

import (
	"pricecheck/internal/model"
)

// FieldMapper 按规范化列名在表头中定位配置的列
type FieldMapper struct {
	index map[string]int
}

// NewFieldMapper 基于表头创建映射器；重复列名以第一次出现为准
func NewFieldMapper(header []string) *FieldMapper {
	index := make(map[string]int, len(header))
	for i, col := range header {
		norm := NormalizeColumnName(col)
		if norm == "" {
			continue
		}
		if _, ok := index[norm]; !ok {
			index[norm] = i
		}
	}
	return &FieldMapper{index: index}
}

// Map 定位单个列
func (m *FieldMapper) Map(columnName string) FieldMapping {
	idx, ok := m.index[NormalizeColumnName(columnName)]
	if !ok {
		idx = -1
	}
	return FieldMapping{ColumnIndex: idx, ColumnName: columnName}
}

// Missing 返回不存在于表头中的列名（保持传入顺序）
func (m *FieldMapper) Missing(columnNames []string) []string {
	missing := make([]string, 0)
	for _, col := range columnNames {
		if !m.Map(col).Found() {
			missing = append(missing, col)
		}
	}
	return missing
}

// DecodeCatalog 解码 SKU 表
func DecodeCatalog(t *model.Table, f model.Fields) []model.CatalogEntry {
	if t == nil {
		return []model.CatalogEntry{}
	}
	m := NewFieldMapper(t.Header)
	colProduct := m.Map(f.ProductID).ColumnIndex
	colVariation := m.Map(f.VariationID).ColumnIndex
	colSKU := m.Map(f.SKU).ColumnIndex
	colParent := m.Map(f.ParentSKU).ColumnIndex

	out := make([]model.CatalogEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.IsBlank() {
			continue
		}
		out = append(out, model.CatalogEntry{
			RowNo:       row.RowNo,
			ProductID:   NormalizeID(row.Cell(colProduct)),
			VariationID: NormalizeID(row.Cell(colVariation)),
			SKU:         NormalizeSKU(row.Cell(colSKU)),
			ParentSKU:   NormalizeSKU(row.Cell(colParent)),
		})
	}
	return out
}

// DecodeToolPrices 解码工具价格表。无法转换的价格记为 null 并产生 coercion 提示。
func DecodeToolPrices(t *model.Table, f model.Fields) ([]model.ToolPriceEntry, []model.Warning) {
	if t == nil {
		return []model.ToolPriceEntry{}, nil
	}
	m := NewFieldMapper(t.Header)
	colSKU := m.Map(f.ToolSKU).ColumnIndex
	colPrice := m.Map(f.ToolPrice).ColumnIndex

	var warnings []model.Warning
	out := make([]model.ToolPriceEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.IsBlank() {
			continue
		}
		raw := row.Cell(colPrice)
		price, ok := ParsePrice(raw)
		if !ok {
			warnings = append(warnings, coercionWarning(model.TableTool, row.RowNo, f.ToolPrice, raw))
		}
		out = append(out, model.ToolPriceEntry{
			RowNo:       row.RowNo,
			SKUCode:     NormalizeID(row.Cell(colSKU)),
			ActivePrice: price,
		})
	}
	return out, warnings
}

// DecodeCampaign 解码活动价格提交表（SKU/Parent SKU 由后续关联 SKU 表补齐）
func DecodeCampaign(t *model.Table, f model.Fields) ([]model.CampaignLine, []model.Warning) {
	if t == nil {
		return []model.CampaignLine{}, nil
	}
	m := NewFieldMapper(t.Header)
	colProduct := m.Map(f.ProductID).ColumnIndex
	colVariation := m.Map(f.VariationID).ColumnIndex
	colRecommended := m.Map(f.Recommended).ColumnIndex

	var warnings []model.Warning
	out := make([]model.CampaignLine, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.IsBlank() {
			continue
		}
		raw := row.Cell(colRecommended)
		rec, ok := ParsePrice(raw)
		if !ok {
			warnings = append(warnings, coercionWarning(model.TableCampaign, row.RowNo, f.Recommended, raw))
		}
		out = append(out, model.CampaignLine{
			RowNo:            row.RowNo,
			ProductID:        NormalizeID(row.Cell(colProduct)),
			VariationID:      NormalizeID(row.Cell(colVariation)),
			RecommendedPrice: rec,
			RecommendedText:  raw,
		})
	}
	return out, warnings
}

func coercionWarning(table string, rowNo int, column, value string) model.Warning {
	return model.Warning{
		Kind:    model.WarnCoercion,
		Table:   table,
		RowNo:   rowNo,
		Column:  column,
		Value:   value,
		Message: "无法转换为数字，按无效价格处理",
	}
}
