package model

// Fields 三张输入表的列名绑定
type Fields struct {
	ProductID   string `json:"productId"`
	VariationID string `json:"variationId"`
	SKU         string `json:"sku"`
	ParentSKU   string `json:"parentSku"`
	ToolSKU     string `json:"toolSku"`
	ToolPrice   string `json:"toolPrice"`
	Price       string `json:"price"`
	Recommended string `json:"recommended"`
}

// DefaultFields 默认列名
func DefaultFields() Fields {
	return Fields{
		ProductID:   "Product ID",
		VariationID: "Variation ID",
		SKU:         "SKU",
		ParentSKU:   "Parent SKU",
		ToolSKU:     "sku编码",
		ToolPrice:   "活动价格",
		Price:       "Campaign Price",
		Recommended: "Recommended Campaign Price",
	}
}

// KeyFields 活动表与 SKU 表的联合主键列
func (f Fields) KeyFields() []string {
	return []string{f.ProductID, f.VariationID}
}

// CatalogRequired SKU 表必需列
func (f Fields) CatalogRequired() []string {
	return []string{f.ProductID, f.VariationID, f.SKU, f.ParentSKU}
}

// ToolRequired 工具价格表必需列
func (f Fields) ToolRequired() []string {
	return []string{f.ToolSKU, f.ToolPrice}
}

// CampaignRequired 活动价格提交表必需列
func (f Fields) CampaignRequired() []string {
	return []string{f.ProductID, f.VariationID, f.Recommended}
}

// WithDefaults 用默认列名补齐空字段
func (f Fields) WithDefaults() Fields {
	d := DefaultFields()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&f.ProductID, d.ProductID)
	fill(&f.VariationID, d.VariationID)
	fill(&f.SKU, d.SKU)
	fill(&f.ParentSKU, d.ParentSKU)
	fill(&f.ToolSKU, d.ToolSKU)
	fill(&f.ToolPrice, d.ToolPrice)
	fill(&f.Price, d.Price)
	fill(&f.Recommended, d.Recommended)
	return f
}
