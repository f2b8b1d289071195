package parser

// FieldMapping 字段映射结果：配置列名 -> 表头中的列索引
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"` // 表头中的列索引，-1 表示不存在
	ColumnName  string `json:"columnName"`  // 配置的列名
}

// Found 列是否存在
func (m FieldMapping) Found() bool {
	return m.ColumnIndex >= 0
}
