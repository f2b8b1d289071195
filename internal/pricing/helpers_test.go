package pricing

import (
	"github.com/shopspring/decimal"

	"pricecheck/internal/model"
)

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func line(pid, vid, sku, parent, rec string) model.CampaignLine {
	l := model.CampaignLine{
		ProductID:       pid,
		VariationID:     vid,
		SKU:             sku,
		ParentSKU:       parent,
		RecommendedText: rec,
	}
	if rec != "" {
		l.RecommendedPrice = price(rec)
	}
	return l
}

func tool(sku, p string) model.ToolPriceEntry {
	e := model.ToolPriceEntry{SKUCode: sku}
	if p != "" {
		e.ActivePrice = price(p)
	}
	return e
}

func boolPtr(b bool) *bool { return &b }
