package pricing

import (
	"pricecheck/internal/model"
)

// NeedsReview 该行是否需要人工确认：来源为推荐价格/无效工具价格，或价格缺失
func NeedsReview(l model.CampaignLine) bool {
	return l.PriceSource.NeedsReview() || !l.ResolvedPrice.Valid
}

// ReviewSubset 需要人工处理的行。缺失价格以推荐价格预填。
func ReviewSubset(lines []model.CampaignLine) []model.CampaignLine {
	out := make([]model.CampaignLine, 0)
	for _, l := range lines {
		if !NeedsReview(l) {
			continue
		}
		if !l.ResolvedPrice.Valid {
			l.ResolvedPrice = l.RecommendedPrice
		}
		out = append(out, l)
	}
	return out
}
