package model

import (
	"fmt"
)

// PriceSource 价格来源，按解析优先级排列
type PriceSource int

const (
	SourceUnresolved                 PriceSource = iota // 尚未被任何一轮匹配处理
	SourceToolPrice                                     // 工具价格（SKU 命中且 > 0）
	SourceParentToolPrice                               // Parent 工具价格（Parent SKU 命中且 > 0）
	SourceInvalidToolPriceZero                          // SKU 命中但工具价格为 0
	SourceInvalidParentToolPriceZero                    // Parent SKU 命中但工具价格为 0
	SourceRecommended                                   // 推荐价格
)

var sourceCodes = map[PriceSource]string{
	SourceUnresolved:                 "unresolved",
	SourceToolPrice:                  "tool_price",
	SourceParentToolPrice:            "parent_tool_price",
	SourceInvalidToolPriceZero:       "invalid_tool_price_zero",
	SourceInvalidParentToolPriceZero: "invalid_parent_tool_price_zero",
	SourceRecommended:                "recommended",
}

// AllSources 全部已解析来源（不含 SourceUnresolved），顺序即优先级
func AllSources() []PriceSource {
	return []PriceSource{
		SourceToolPrice,
		SourceParentToolPrice,
		SourceInvalidToolPriceZero,
		SourceInvalidParentToolPriceZero,
		SourceRecommended,
	}
}

func (s PriceSource) String() string {
	if code, ok := sourceCodes[s]; ok {
		return code
	}
	return fmt.Sprintf("PriceSource(%d)", int(s))
}

// IsInvalidZero 是否为“工具价格为零”的无效匹配
func (s PriceSource) IsInvalidZero() bool {
	return s == SourceInvalidToolPriceZero || s == SourceInvalidParentToolPriceZero
}

// NeedsReview 该来源是否需要人工审核
func (s PriceSource) NeedsReview() bool {
	return s == SourceRecommended || s.IsInvalidZero()
}

func (s PriceSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PriceSource) UnmarshalText(text []byte) error {
	for src, code := range sourceCodes {
		if code == string(text) {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown price source %q", string(text))
}
