package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pricecheck/internal/export"
	"pricecheck/internal/model"
	"pricecheck/internal/pricing"
	"pricecheck/internal/service/session"
	"pricecheck/internal/store"
)

// LineDTO 带展示字段的活动行
type LineDTO struct {
	model.CampaignLine
	DisplaySource string `json:"displaySource"`
	AuditLabel    string `json:"auditLabel"`
	NeedsReview   bool   `json:"needsReview"`
}

func toLineDTOs(lines []model.CampaignLine) []LineDTO {
	out := make([]LineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineDTO{
			CampaignLine:  l,
			DisplaySource: export.DisplaySource(l),
			AuditLabel:    export.AuditLabel(l),
			NeedsReview:   pricing.NeedsReview(l),
		})
	}
	return out
}

// SessionResponse 会话参数 + 统计 + 提示
type SessionResponse struct {
	Session  *store.Session  `json:"session"`
	Stats    pricing.Stats   `json:"stats"`
	Warnings []model.Warning `json:"warnings"`
}

func toSessionResponse(ev *session.Evaluation) SessionResponse {
	warnings := ev.Result.Warnings
	if warnings == nil {
		warnings = []model.Warning{}
	}
	return SessionResponse{Session: ev.Session, Stats: ev.Result.Stats, Warnings: warnings}
}

// ReviewResponse 审核表
type ReviewResponse struct {
	Review       []LineDTO       `json:"review"`
	InvalidCount int             `json:"invalidCount"`
	Stats        pricing.Stats   `json:"stats"`
	Warnings     []model.Warning `json:"warnings"`
}

func toReviewResponse(ev *session.Evaluation) ReviewResponse {
	resp := ReviewResponse{
		Review:       toLineDTOs(ev.Result.Review),
		InvalidCount: ev.InvalidCount(),
		Stats:        ev.Result.Stats,
		Warnings:     ev.Result.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []model.Warning{}
	}
	return resp
}

// looseText 接受 JSON 字符串或数字
type looseText string

func (t *looseText) UnmarshalJSON(b []byte) error {
	s, err := rawText(b)
	if err != nil {
		return err
	}
	*t = looseText(s)
	return nil
}

// rawText 将 JSON 字符串/数字/null 转为文本，null 为空串
func rawText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, string(b) == "null":
		return "", nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("expected string or number, got %s", strings.TrimSpace(string(b)))
	}
}

// EditRequest 审核表的一行修改。
// resolvedPrice 缺省表示沿用当前价格，null 表示清空；humanConfirmed 缺省表示沿用原确认状态。
type EditRequest struct {
	ProductID      looseText       `json:"productId"`
	VariationID    looseText       `json:"variationId"`
	ResolvedPrice  json.RawMessage `json:"resolvedPrice"`
	HumanConfirmed *bool           `json:"humanConfirmed"`
}

func (r EditRequest) toInput() (session.EditInput, error) {
	in := session.EditInput{
		ProductID:      string(r.ProductID),
		VariationID:    string(r.VariationID),
		HumanConfirmed: r.HumanConfirmed,
	}
	if r.ResolvedPrice != nil {
		text, err := rawText(r.ResolvedPrice)
		if err != nil {
			return in, err
		}
		in.PriceText = &text
	}
	return in, nil
}

func (r SessionParamsRequest) toParams() session.Params {
	return session.Params{
		CatalogHeaderRow:  r.CatalogHeaderRow,
		ToolHeaderRow:     r.ToolHeaderRow,
		CampaignHeaderRow: r.CampaignHeaderRow,
		RemarkStart:       r.RemarkStart,
		RemarkEnd:         r.RemarkEnd,
		PricePercent:      r.PricePercent,
		AuditColumn:       r.AuditColumn,
		IntegerPrices:     r.IntegerPrices,
	}
}

// SessionParamsRequest 会话参数修改
type SessionParamsRequest struct {
	CatalogHeaderRow  *int             `json:"catalogHeaderRow"`
	ToolHeaderRow     *int             `json:"toolHeaderRow"`
	CampaignHeaderRow *int             `json:"campaignHeaderRow"`
	RemarkStart       *int             `json:"remarkStart"`
	RemarkEnd         *int             `json:"remarkEnd"`
	PricePercent      *decimal.Decimal `json:"pricePercent"`
	AuditColumn       *int             `json:"auditColumn"`
	IntegerPrices     *bool            `json:"integerPrices"`
}
