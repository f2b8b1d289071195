package pricing

import (
	"sort"

	"pricecheck/internal/model"
)

const topParentLimit = 5

// ParentMatch 通过某个 Parent SKU 成功匹配的行数
type ParentMatch struct {
	ParentSKU string `json:"parentSku"`
	Lines     int    `json:"lines"`
}

// Stats 一次解析的统计
type Stats struct {
	Total        int                       `json:"total"`
	BySource     map[model.PriceSource]int `json:"bySource"`
	NeedsReview  int                       `json:"needsReview"`
	MissingPrice int                       `json:"missingPrice"`
	Modified     int                       `json:"modified"`
	Confirmed    int                       `json:"confirmed"`
	OutOfBand    int                       `json:"outOfBand"`
	TopParents   []ParentMatch             `json:"topParents"`
}

// ComputeStats 统计来源分布、待审核与价格缺失数量。
// 只有人工编辑过的行会被判为超出浮动范围。
func ComputeStats(lines []model.CampaignLine) Stats {
	st := Stats{
		Total:      len(lines),
		BySource:   make(map[model.PriceSource]int),
		TopParents: []ParentMatch{},
	}
	for _, src := range model.AllSources() {
		st.BySource[src] = 0
	}

	parents := make(map[string]int)
	for _, l := range lines {
		st.BySource[l.PriceSource]++
		if NeedsReview(l) {
			st.NeedsReview++
		}
		if l.PriceMissing() {
			st.MissingPrice++
		}
		if l.Modified {
			st.Modified++
		}
		if l.HumanConfirmed {
			st.Confirmed++
		}
		if !l.PriceValid {
			st.OutOfBand++
		}
		if l.PriceSource == model.SourceParentToolPrice {
			parents[l.ParentSKU]++
		}
	}

	for sku, n := range parents {
		st.TopParents = append(st.TopParents, ParentMatch{ParentSKU: sku, Lines: n})
	}
	sort.Slice(st.TopParents, func(i, j int) bool {
		if st.TopParents[i].Lines != st.TopParents[j].Lines {
			return st.TopParents[i].Lines > st.TopParents[j].Lines
		}
		return st.TopParents[i].ParentSKU < st.TopParents[j].ParentSKU
	})
	if len(st.TopParents) > topParentLimit {
		st.TopParents = st.TopParents[:topParentLimit]
	}
	return st
}
