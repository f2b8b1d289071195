package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pricecheck/internal/export"
	"pricecheck/internal/model"
	"pricecheck/internal/pricing"
	"pricecheck/internal/store"
)

func xlsx(t *testing.T, rows [][]any) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func catalogUpload(t *testing.T) Upload {
	return Upload{Filename: "sku.xlsx", Data: xlsx(t, [][]any{
		{"Product ID", "Variation ID", "SKU", "Parent SKU"},
		{"1001", "1", "A1", "P0"},
		{"1002", "1", "A2", "P0"},
		{"1003", "1", "X9", "P1"},
		{"1004", "1", "nan", "nan"},
	})}
}

func toolUpload() Upload {
	return Upload{Filename: "tool.csv", Data: []byte("sku编码,活动价格\nA1,25.50\nA2,0\nP1,40\nnan,99\n")}
}

func campaignUpload(t *testing.T) Upload {
	return Upload{Filename: "活动提交.xlsx", Data: xlsx(t, [][]any{
		{"Product ID", "Variation ID", "Recommended Campaign Price", "Campaign Price"},
		{"备注：请勿修改"},
		{"备注2"},
		{1001, 1, 20, nil},
		{1002, 1, 30, nil},
		{1003, 1, 35, nil},
		{1004, 1, 50, nil},
	})}
}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dataDir := t.TempDir()
	st, err := store.New(filepath.Join(dataDir, "pricecheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m, err := NewManager(dataDir, st, Defaults{
		CatalogHeaderRow: 1,
		ToolHeaderRow:    1,
		Campaign:         model.Layout{HeaderRow: 1, RemarkStart: 2, RemarkEnd: 3},
		Percent:          decimal.NewFromInt(50),
		AuditColumn:      5,
	}, zap.NewNop())
	require.NoError(t, err)
	return m, dataDir
}

func createSession(t *testing.T, m *Manager) *Evaluation {
	t.Helper()
	ev, err := m.Create(context.Background(), CreateRequest{
		Catalog:  catalogUpload(t),
		Tool:     toolUpload(),
		Campaign: campaignUpload(t),
	})
	require.NoError(t, err)
	return ev
}

func lineByID(t *testing.T, lines []model.CampaignLine, productID string) model.CampaignLine {
	t.Helper()
	for _, l := range lines {
		if l.ProductID == productID {
			return l
		}
	}
	t.Fatalf("line %s not found", productID)
	return model.CampaignLine{}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCreate_ResolvesAndPersists(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	ev := createSession(t, m)
	assert.Equal(t, "活动提交", ev.Session.Name)
	require.Len(t, ev.Result.Lines, 4)

	l := lineByID(t, ev.Result.Lines, "1001")
	assert.Equal(t, model.SourceToolPrice, l.PriceSource)
	assert.Equal(t, "25.5", l.ResolvedPrice.Decimal.String())
	assert.Equal(t, 4, l.RowNo)

	l = lineByID(t, ev.Result.Lines, "1002")
	assert.Equal(t, model.SourceInvalidToolPriceZero, l.PriceSource)
	assert.Equal(t, "30", l.ResolvedPrice.Decimal.String())

	l = lineByID(t, ev.Result.Lines, "1003")
	assert.Equal(t, model.SourceParentToolPrice, l.PriceSource)
	assert.Equal(t, "40", l.ResolvedPrice.Decimal.String())

	l = lineByID(t, ev.Result.Lines, "1004")
	assert.Equal(t, model.SourceRecommended, l.PriceSource)

	assert.Len(t, ev.Result.Review, 2)
	assert.Equal(t, ev.Session.ID, m.LastSessionID(ctx))

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	again, err := m.Evaluate(ctx, ev.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Result.Lines, again.Result.Lines)
}

func TestCreate_SchemaErrorLeavesNothing(t *testing.T) {
	m, dataDir := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, CreateRequest{
		Catalog:  catalogUpload(t),
		Tool:     Upload{Filename: "tool.csv", Data: []byte("sku,price\nA1,1\n")},
		Campaign: campaignUpload(t),
	})
	require.Error(t, err)
	schemaErrs := pricing.SchemaErrors(err)
	require.Len(t, schemaErrs, 1)
	assert.Equal(t, model.TableTool, schemaErrs[0].Table)

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	entries, err := os.ReadDir(filepath.Join(dataDir, "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreate_ValidationErrors(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, CreateRequest{
		Catalog:  catalogUpload(t),
		Tool:     toolUpload(),
		Campaign: Upload{Filename: "campaign.csv", Data: []byte("a,b\n")},
	})
	assert.True(t, IsValidationError(err))

	_, err = m.Create(ctx, CreateRequest{
		Catalog:  catalogUpload(t),
		Tool:     Upload{Filename: "tool.csv"},
		Campaign: campaignUpload(t),
	})
	assert.True(t, IsValidationError(err))

	header := 2
	_, err = m.Create(ctx, CreateRequest{
		Catalog:  catalogUpload(t),
		Tool:     toolUpload(),
		Campaign: campaignUpload(t),
		Params:   Params{CampaignHeaderRow: &header},
	})
	assert.True(t, IsValidationError(err), "header row inside remark rows")

	pct := decimal.NewFromInt(120)
	_, err = m.Create(ctx, CreateRequest{
		Catalog:  catalogUpload(t),
		Tool:     toolUpload(),
		Campaign: campaignUpload(t),
		Params:   Params{PricePercent: &pct},
	})
	assert.True(t, IsValidationError(err))
}

func TestSubmitEdits_ModifiedValidityAndConfirmation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	id := createSession(t, m).Session.ID

	ev, err := m.SubmitEdits(ctx, id, []EditInput{
		{ProductID: "1004", VariationID: "1", PriceText: strPtr("60")},
		{ProductID: "1002.0", VariationID: "1", PriceText: strPtr("100"), HumanConfirmed: boolPtr(true)},
	})
	require.NoError(t, err)

	l := lineByID(t, ev.Result.Lines, "1004")
	assert.Equal(t, "60", l.ResolvedPrice.Decimal.String())
	assert.True(t, l.Modified)
	assert.True(t, l.PriceValid)
	assert.True(t, l.ManualOverride)
	assert.Equal(t, model.SourceRecommended, l.PriceSource)

	l = lineByID(t, ev.Result.Lines, "1002")
	assert.True(t, l.Modified)
	assert.False(t, l.PriceValid)
	assert.True(t, l.HumanConfirmed)
	assert.Equal(t, 1, ev.InvalidCount())

	// 只改确认状态：价格沿用 100
	ev, err = m.SubmitEdits(ctx, id, []EditInput{
		{ProductID: "1002", VariationID: "1", HumanConfirmed: boolPtr(false)},
		{ProductID: "1004", VariationID: "1", PriceText: strPtr("50")},
	})
	require.NoError(t, err)
	l = lineByID(t, ev.Result.Lines, "1002")
	assert.Equal(t, "100", l.ResolvedPrice.Decimal.String())
	assert.False(t, l.HumanConfirmed)

	l = lineByID(t, ev.Result.Lines, "1004")
	assert.False(t, l.Modified, "reverting to the recommended price clears modified")
	assert.False(t, l.ManualOverride)

	_, err = m.SubmitEdits(ctx, id, []EditInput{{ProductID: "1004", VariationID: "1", PriceText: strPtr("abc")}})
	assert.True(t, IsValidationError(err))

	n, err := m.ClearEdits(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ev, err = m.Evaluate(ctx, id)
	require.NoError(t, err)
	l = lineByID(t, ev.Result.Lines, "1002")
	assert.Equal(t, "30", l.ResolvedPrice.Decimal.String())
	assert.False(t, l.Modified)
}

func TestSubmitEdits_RejectsLinesOutsideReview(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	id := createSession(t, m).Session.ID

	_, err := m.SubmitEdits(ctx, id, []EditInput{
		{ProductID: "1004", VariationID: "1", PriceText: strPtr("60")},
		{ProductID: "1001", VariationID: "1", PriceText: strPtr("999")},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	edits, err := m.store.ListEdits(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, edits, "a rejected batch stores nothing")

	ev, err := m.Evaluate(ctx, id)
	require.NoError(t, err)
	l := lineByID(t, ev.Result.Lines, "1001")
	assert.Equal(t, model.SourceToolPrice, l.PriceSource)
	assert.Equal(t, "25.5", l.ResolvedPrice.Decimal.String())
	assert.False(t, l.Modified)
}

func TestSubmitEdits_UnknownKeyIsIgnored(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	id := createSession(t, m).Session.ID

	ev, err := m.SubmitEdits(ctx, id, []EditInput{{ProductID: "9999", VariationID: "1", PriceText: strPtr("10")}})
	require.NoError(t, err)

	var found bool
	for _, w := range ev.Result.Warnings {
		if w.Kind == model.WarnUnmatchedEdit {
			found = true
		}
	}
	assert.True(t, found)
	assert.Len(t, ev.Result.Lines, 4)
}

func TestExport_PatchesCampaignWorkbook(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	id := createSession(t, m).Session.ID

	_, err := m.SubmitEdits(ctx, id, []EditInput{
		{ProductID: "1004", VariationID: "1", PriceText: strPtr("45"), HumanConfirmed: boolPtr(true)},
	})
	require.NoError(t, err)

	res, err := m.Export(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, export.FileName, res.FileName)
	assert.Equal(t, 4, res.Plan.Matched)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	get := func(cell string) string {
		v, err := wb.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, export.AuditHeader, get("E1"))
	assert.Equal(t, "备注：请勿修改", get("A2"))
	assert.Equal(t, "", get("D2"))
	assert.Equal(t, "25.5", get("D4"))
	assert.Equal(t, "工具价格", get("E4"))
	assert.Equal(t, "30", get("D5"))
	assert.Equal(t, "无效工具价格(零)", get("E5"))
	assert.Equal(t, "Parent工具价格", get("E6"))
	assert.Equal(t, "45", get("D7"))
	assert.Equal(t, "推荐价格（已手动更改并确认）", get("E7"))
}

func TestUpdateParams_RollsBackOnFailure(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	id := createSession(t, m).Session.ID

	row := 2
	_, err := m.UpdateParams(ctx, id, Params{ToolHeaderRow: &row})
	require.Error(t, err)

	sess, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.ToolHeaderRow)

	pct := decimal.NewFromInt(10)
	ev, err := m.UpdateParams(ctx, id, Params{PricePercent: &pct})
	require.NoError(t, err)
	assert.True(t, ev.Session.PricePercent.Equal(pct))
}

func TestDelete(t *testing.T) {
	m, dataDir := newTestManager(t)
	ctx := context.Background()
	id := createSession(t, m).Session.ID

	require.NoError(t, m.Delete(ctx, id))
	_, err := m.Evaluate(ctx, id)
	assert.True(t, errors.Is(err, store.ErrSessionNotFound))
	_, err = os.Stat(filepath.Join(dataDir, "uploads", id))
	assert.True(t, os.IsNotExist(err))
}
