package model

import "fmt"

// Layout 活动提交表的行布局：表头行 + 备注行区间（均从 1 开始，含端点）
// RemarkStart/RemarkEnd 为 0 表示没有备注行。
type Layout struct {
	HeaderRow   int `json:"headerRow"`
	RemarkStart int `json:"remarkStart"`
	RemarkEnd   int `json:"remarkEnd"`
}

// HasRemarks 是否配置了备注行
func (l Layout) HasRemarks() bool {
	return l.RemarkStart > 0 && l.RemarkEnd > 0
}

// Validate 校验表头行与备注行区间是否自洽
func (l Layout) Validate() error {
	if l.HeaderRow < 1 {
		return fmt.Errorf("header row must be >= 1, got %d", l.HeaderRow)
	}
	if l.RemarkStart == 0 && l.RemarkEnd == 0 {
		return nil
	}
	if l.RemarkStart < 1 || l.RemarkEnd < 1 {
		return fmt.Errorf("remark rows must be >= 1, got %d-%d", l.RemarkStart, l.RemarkEnd)
	}
	if l.RemarkEnd < l.RemarkStart {
		return fmt.Errorf("remark end %d is before remark start %d", l.RemarkEnd, l.RemarkStart)
	}
	if l.HeaderRow >= l.RemarkStart && l.HeaderRow <= l.RemarkEnd {
		return fmt.Errorf("header row %d lies inside remark rows %d-%d", l.HeaderRow, l.RemarkStart, l.RemarkEnd)
	}
	if l.RemarkStart > l.HeaderRow+1 {
		return fmt.Errorf("rows %d-%d between header row %d and remark rows are unaccounted for",
			l.HeaderRow+1, l.RemarkStart-1, l.HeaderRow)
	}
	return nil
}

// DataStartRow 第一条数据行的绝对行号。
// 备注在表头之前时数据紧跟表头；备注在表头之后时数据紧跟备注结束行。
func (l Layout) DataStartRow() int {
	start := l.HeaderRow + 1
	if l.HasRemarks() && l.RemarkEnd > l.HeaderRow {
		start += l.RemarkEnd - l.HeaderRow
	}
	return start
}

// IsRemark 某行是否属于备注区
func (l Layout) IsRemark(row int) bool {
	return l.HasRemarks() && row >= l.RemarkStart && row <= l.RemarkEnd
}
