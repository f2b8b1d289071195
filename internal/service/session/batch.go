package session

import (
	"pricecheck/internal/export"
	"pricecheck/internal/model"
	"pricecheck/internal/pricing"
	"pricecheck/internal/store"
)

// BatchResult 一次性对账的结果
type BatchResult struct {
	Result   *pricing.Result
	Workbook []byte
	Plan     *export.Plan
}

// RunBatch 不保存任何状态的一次性对账：解码三张表，回写人工编辑，生成导出工作簿
func RunBatch(req CreateRequest, d Defaults, edits []model.HumanEdit) (*BatchResult, error) {
	if err := validateUploads(req); err != nil {
		return nil, err
	}
	d.Fields = d.Fields.WithDefaults()
	if d.AuditColumn < 1 {
		d.AuditColumn = export.DefaultAuditColumn
	}

	sess := &store.Session{}
	if err := applyParams(sess, req.Params, d); err != nil {
		return nil, err
	}

	in, err := decodeInputs(sess, req.Catalog, req.Tool, req.Campaign)
	if err != nil {
		return nil, err
	}
	res, err := pricing.Run(in, edits, pricing.Options{Fields: d.Fields, Percent: sess.PricePercent})
	if err != nil {
		return nil, err
	}

	out, plan, err := composeWorkbook(sess, d.Fields, req.Campaign.Data, res.Lines)
	if err != nil {
		return nil, err
	}
	return &BatchResult{Result: res, Workbook: out, Plan: plan}, nil
}
