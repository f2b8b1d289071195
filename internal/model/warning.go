package model

import "fmt"

// WarningKind 行级问题分类：不中断处理，只汇总提示
type WarningKind string

const (
	WarnCoercion        WarningKind = "coercion"         // 数值无法转换
	WarnJoinAmbiguity   WarningKind = "join_ambiguity"   // 联合主键重复
	WarnNaNKey          WarningKind = "nan_key"          // 工具价格表出现 "nan"/空 SKU
	WarnUnmatchedEdit   WarningKind = "unmatched_edit"   // 人工编辑找不到对应行
	WarnEditNotAllowed  WarningKind = "edit_not_allowed" // 人工编辑指向无需审核的行
	WarnOutOfBand       WarningKind = "out_of_band"      // 人工价格超出浮动范围
	WarnUnmatchedExport WarningKind = "unmatched_export" // 导出时文档行未匹配到活动行
)

// Warning 行级提示
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Table   string      `json:"table,omitempty"`
	RowNo   int         `json:"rowNo,omitempty"`
	Column  string      `json:"column,omitempty"`
	Value   string      `json:"value,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.RowNo > 0 {
		return fmt.Sprintf("[%s] %s 第%d行: %s", w.Kind, w.Table, w.RowNo, w.Message)
	}
	if w.Table != "" {
		return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Table, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
}

// 表名（用于错误与提示）
const (
	TableCatalog  = "SKU表"
	TableTool     = "工具价格表"
	TableCampaign = "活动价格提交表"
)
