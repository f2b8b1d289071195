package model

import "github.com/shopspring/decimal"

// CatalogEntry SKU 表中的一行，按 (ProductID, VariationID) 关联到活动行
type CatalogEntry struct {
	RowNo       int    `json:"rowNo"`
	ProductID   string `json:"productId"`
	VariationID string `json:"variationId"`
	SKU         string `json:"sku"`
	ParentSKU   string `json:"parentSku"`
}

// ToolPriceEntry 工具价格表中的一行
type ToolPriceEntry struct {
	RowNo       int                 `json:"rowNo"`
	SKUCode     string              `json:"skuCode"`
	ActivePrice decimal.NullDecimal `json:"activePrice"`
}
