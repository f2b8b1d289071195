package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名：全角转半角，去除所有空白
// "Product ID" / "Ｐｒｏｄｕｃｔ　ＩＤ" / " Product\nID " 均得到 "ProductID"
func NormalizeColumnName(name string) string {
	name = width.Narrow.String(name)
	name = strings.TrimSpace(name)
	return whitespaceRe.ReplaceAllString(name, "")
}

// NormalizeID 规范化编号类字段（Product ID / Variation ID / SKU）：
// 去除首尾空白，并去掉表格把数字读成浮点后产生的结尾 ".0"
func NormalizeID(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimSuffix(value, ".0")
}

// IsBlankKey 空串或字面量 "nan"（未填写的单元格被转成文本后的结果）
func IsBlankKey(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, "nan")
}

// NormalizeSKU 规范化 SKU；空值或 "nan" 返回空串，表示不可用于匹配
func NormalizeSKU(value string) string {
	value = NormalizeID(value)
	if IsBlankKey(value) {
		return ""
	}
	return value
}

// KeySeparator 联合主键拼接符
const KeySeparator = "-"

// CompositeKey 归一化后拼接的联合主键
func CompositeKey(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = NormalizeID(p)
	}
	return strings.Join(normalized, KeySeparator)
}

// ParsePrice 解析价格文本。
// 空值/"nan" 返回 (null, true)；无法解析返回 (null, false)。
func ParsePrice(text string) (decimal.NullDecimal, bool) {
	text = strings.TrimSpace(text)
	if IsBlankKey(text) {
		return decimal.NullDecimal{}, true
	}
	text = strings.ReplaceAll(text, ",", "")
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

// FormatPrice 价格转文本，null 为空串
func FormatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return p.Decimal.String()
}
