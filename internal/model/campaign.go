package model

import "github.com/shopspring/decimal"

// CampaignLine 活动提交表中的一行，价格解析与审核的基本单位
type CampaignLine struct {
	RowNo       int    `json:"rowNo"`
	ProductID   string `json:"productId"`
	VariationID string `json:"variationId"`
	SKU         string `json:"sku"`
	ParentSKU   string `json:"parentSku"`

	RecommendedPrice decimal.NullDecimal `json:"recommendedPrice"`
	RecommendedText  string              `json:"-"`

	ResolvedPrice decimal.NullDecimal `json:"resolvedPrice"`
	PriceSource   PriceSource         `json:"priceSource"`

	Modified       bool `json:"modified"`
	PriceValid     bool `json:"priceValid"`
	HumanConfirmed bool `json:"humanConfirmed"`

	// ManualOverride 推荐价格行被人工改价：展示为“推荐价格（已手动更改）”，PriceSource 不变
	ManualOverride bool `json:"manualOverride"`

	// InitialRecommendedPrice 解析时对推荐价格的快照，之后不再改变
	InitialRecommendedPrice decimal.NullDecimal `json:"initialRecommendedPrice"`
	InitialRecommendedText  string              `json:"-"`
}

// PriceMissing 最终价格缺失或为零
func (l CampaignLine) PriceMissing() bool {
	return !l.ResolvedPrice.Valid || l.ResolvedPrice.Decimal.IsZero()
}

// HumanEdit 人工在审核表中的修改。指针字段为 nil 表示本次编辑未携带该字段。
type HumanEdit struct {
	ProductID   string `json:"productId"`
	VariationID string `json:"variationId"`

	ResolvedPrice decimal.NullDecimal `json:"resolvedPrice"`
	PriceText     string              `json:"priceText,omitempty"`

	Modified       *bool `json:"modified,omitempty"`
	PriceValid     *bool `json:"priceValid,omitempty"`
	HumanConfirmed *bool `json:"humanConfirmed,omitempty"`
}
