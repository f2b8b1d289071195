package model

// Table 解码后的二维表：表头 + 数据行
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   []TableRow `json:"rows"`
}

// TableRow 数据行，RowNo 为其在原始文件中的行号（从 1 开始）
type TableRow struct {
	RowNo int      `json:"rowNo"`
	Cells []string `json:"cells"`
}

// Cell 按列索引取值，越界返回空串
func (r TableRow) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return r.Cells[idx]
}

// IsBlank 整行为空
func (r TableRow) IsBlank() bool {
	for _, c := range r.Cells {
		if c != "" {
			return false
		}
	}
	return true
}
