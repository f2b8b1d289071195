package util

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatBand 格式化浮动范围，例如 "±50%"
func FormatBand(percent decimal.Decimal) string {
	return fmt.Sprintf("±%s%%", percent.String())
}

// FormatPercentOf 以百分比显示 part/total，total 为 0 时返回 "0%"
func FormatPercentOf(part, total int) string {
	if total == 0 {
		return "0%"
	}
	p := decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(total)))
	return p.Round(1).String() + "%"
}
