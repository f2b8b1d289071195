package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultPricePercent 默认允许浮动范围（%）
const DefaultPricePercent = 50

// IsValid 价格是否落在推荐价格 ±percent% 的区间内（含边界）。
// 任一值缺失时返回 false。
func IsValid(recommended, price decimal.NullDecimal, percent decimal.Decimal) bool {
	if !recommended.Valid || !price.Valid {
		return false
	}
	// rec*(1-p/100) <= price <= rec*(1+p/100)，两边同乘 100 避免除法
	scaled := price.Decimal.Mul(hundred)
	lower := recommended.Decimal.Mul(hundred.Sub(percent))
	upper := recommended.Decimal.Mul(hundred.Add(percent))
	return scaled.GreaterThanOrEqual(lower) && scaled.LessThanOrEqual(upper)
}
