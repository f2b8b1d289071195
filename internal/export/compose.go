package export

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pricecheck/internal/model"
	"pricecheck/internal/parser"
)

// AlignmentError 导出时无法在目标文档中定位写入位置
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return "export alignment: " + e.Reason
}

// Options 导出参数
type Options struct {
	Layout        model.Layout
	AuditColumn   int // 价格标记列（从 1 开始）
	PriceField    string
	KeyFields     []string
	IntegerPrices bool // 价格按整数截断写入
}

// DefaultAuditColumn 默认价格标记列
const DefaultAuditColumn = 16

// CellWrite 单元格写入（行列均从 1 开始）。Value 为 nil 表示清空。
type CellWrite struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value any `json:"value"`
}

// Plan 导出计划：只包含价格列与价格标记列的写入
type Plan struct {
	DataStartRow int             `json:"dataStartRow"`
	PriceColumn  int             `json:"priceColumn"`
	AuditColumn  int             `json:"auditColumn"`
	Writes       []CellWrite     `json:"writes"`
	Matched      int             `json:"matched"`
	Unmatched    int             `json:"unmatched"`
	Warnings     []model.Warning `json:"warnings"`
}

// Compose 将活动行的最终价格与价格标记投影到原始文档行上。
// rows 为文档全部行（rows[0] 为第 1 行）。返回的计划不触碰备注行，也不触碰
// 数据行中价格列与标记列之外的任何单元格。
func Compose(rows [][]string, lines []model.CampaignLine, opts Options) (*Plan, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, &AlignmentError{Reason: err.Error()}
	}
	if opts.AuditColumn < 1 {
		return nil, &AlignmentError{Reason: fmt.Sprintf("audit column must be >= 1, got %d", opts.AuditColumn)}
	}
	if len(opts.KeyFields) == 0 {
		return nil, &AlignmentError{Reason: "no key columns configured"}
	}
	headerRow := opts.Layout.HeaderRow
	if headerRow > len(rows) {
		return nil, &AlignmentError{Reason: fmt.Sprintf("header row %d is beyond the document (%d rows)", headerRow, len(rows))}
	}

	mapper := parser.NewFieldMapper(rows[headerRow-1])
	priceCol := mapper.Map(opts.PriceField)
	if !priceCol.Found() {
		return nil, &AlignmentError{Reason: fmt.Sprintf("列名 '%s' 不在第%d行表头中", opts.PriceField, headerRow)}
	}
	if priceCol.ColumnIndex+1 == opts.AuditColumn {
		return nil, &AlignmentError{Reason: fmt.Sprintf("audit column %d overlaps the price column", opts.AuditColumn)}
	}
	keyCols := make([]int, len(opts.KeyFields))
	for i, k := range opts.KeyFields {
		m := mapper.Map(k)
		if !m.Found() {
			return nil, &AlignmentError{Reason: fmt.Sprintf("key column '%s' not found in header row %d", k, headerRow)}
		}
		keyCols[i] = m.ColumnIndex
	}

	byKey := make(map[string]model.CampaignLine, len(lines))
	for _, l := range lines {
		k := parser.CompositeKey(l.ProductID, l.VariationID)
		if _, ok := byKey[k]; !ok {
			byKey[k] = l
		}
	}

	plan := &Plan{
		DataStartRow: opts.Layout.DataStartRow(),
		PriceColumn:  priceCol.ColumnIndex + 1,
		AuditColumn:  opts.AuditColumn,
		Writes:       []CellWrite{{Row: headerRow, Col: opts.AuditColumn, Value: AuditHeader}},
	}

	for r := plan.DataStartRow; r <= len(rows); r++ {
		if opts.Layout.IsRemark(r) {
			continue
		}
		row := model.TableRow{RowNo: r, Cells: rows[r-1]}
		if row.IsBlank() {
			continue
		}
		parts := make([]string, len(keyCols))
		for i, c := range keyCols {
			parts[i] = row.Cell(c)
		}
		key := parser.CompositeKey(parts...)

		l, ok := byKey[key]
		if !ok {
			plan.Unmatched++
			plan.Warnings = append(plan.Warnings, model.Warning{
				Kind:    model.WarnUnmatchedExport,
				Table:   model.TableCampaign,
				RowNo:   r,
				Value:   key,
				Message: "未匹配到活动行，价格保持原值",
			})
			label := ""
			if original, _ := parser.ParsePrice(row.Cell(priceCol.ColumnIndex)); !original.Valid || original.Decimal.IsZero() {
				label = LabelPriceMissing
			}
			plan.Writes = append(plan.Writes, CellWrite{Row: r, Col: opts.AuditColumn, Value: label})
			continue
		}

		plan.Matched++
		plan.Writes = append(plan.Writes,
			CellWrite{Row: r, Col: plan.PriceColumn, Value: priceValue(l.ResolvedPrice, opts.IntegerPrices)},
			CellWrite{Row: r, Col: opts.AuditColumn, Value: AuditLabel(l)},
		)
	}

	return plan, nil
}

func priceValue(p decimal.NullDecimal, integer bool) any {
	if !p.Valid {
		return nil
	}
	if integer {
		return p.Decimal.Truncate(0).IntPart()
	}
	return p.Decimal.InexactFloat64()
}
