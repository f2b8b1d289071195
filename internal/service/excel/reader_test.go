package excel_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"pricecheck/internal/model"
	"pricecheck/internal/service/excel"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName failed: %v", err)
		}
		r := row
		if err := wb.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

func TestReadTable_CampaignLayout(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Product ID", "Variation ID", "Recommended Campaign Price", "Campaign Price"},
		{"备注：请勿修改"},
		{"备注2"},
		{1001, 1, 20.5, nil},
		{},
		{1002, 2, 30, nil},
	})

	table, err := excel.ReadTable(model.TableCampaign, "campaign.xlsx", data, excel.ReadOptions{
		Layout: model.Layout{HeaderRow: 1, RemarkStart: 2, RemarkEnd: 3},
	})
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if table.Header[3] != "Campaign Price" {
		t.Fatalf("Header=%v", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Rows=%d, want 2", len(table.Rows))
	}
	if table.Rows[0].RowNo != 4 || table.Rows[1].RowNo != 6 {
		t.Fatalf("RowNo=%d,%d want 4,6", table.Rows[0].RowNo, table.Rows[1].RowNo)
	}
	if got := table.Rows[0].Cell(0); got != "1001" {
		t.Fatalf("Product ID=%q", got)
	}
	if got := table.Rows[0].Cell(2); got != "20.5" {
		t.Fatalf("Recommended=%q", got)
	}
}

func TestReadTable_HeaderRowBelowTitle(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"SKU 导出"},
		{"生成时间 2025-01-01"},
		{"Product ID", "Variation ID", "SKU", "Parent SKU"},
		{"1001", "1", "A1", "P1"},
	})

	table, err := excel.ReadTable(model.TableCatalog, "sku.xlsx", data, excel.ReadOptions{
		Layout: model.Layout{HeaderRow: 3},
	})
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if table.Header[2] != "SKU" || len(table.Rows) != 1 || table.Rows[0].RowNo != 4 {
		t.Fatalf("unexpected table: %+v", table)
	}
}

func TestReadTable_CSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfsku编码,活动价格\nA1,25.50\n,\nA2,\"1,200\"\n")

	table, err := excel.ReadTable(model.TableTool, "tool.csv", data, excel.ReadOptions{
		Layout: model.Layout{HeaderRow: 1},
	})
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if table.Header[0] != "sku编码" {
		t.Fatalf("BOM not stripped: %q", table.Header[0])
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Rows=%d, want 2", len(table.Rows))
	}
	if table.Rows[1].RowNo != 4 || table.Rows[1].Cell(1) != "1,200" {
		t.Fatalf("row=%+v", table.Rows[1])
	}
}

func TestReadTable_CSVGB18030(t *testing.T) {
	encoded, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte("sku编码,活动价格\nA1,9.9\n"))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	table, err := excel.ReadTable(model.TableTool, "tool.csv", encoded, excel.ReadOptions{
		Layout: model.Layout{HeaderRow: 1},
	})
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if table.Header[0] != "sku编码" || table.Header[1] != "活动价格" {
		t.Fatalf("Header=%v", table.Header)
	}
}

func TestReadTable_Errors(t *testing.T) {
	if _, err := excel.ReadTable(model.TableTool, "tool.txt", []byte("x"), excel.ReadOptions{Layout: model.Layout{HeaderRow: 1}}); !errors.Is(err, excel.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := excel.ReadTable(model.TableTool, "tool.csv", []byte("a,b\n"), excel.ReadOptions{Layout: model.Layout{HeaderRow: 5}}); err == nil {
		t.Fatalf("expected error for header row beyond file")
	}
	if _, err := excel.ReadTable(model.TableTool, "tool.xlsx", []byte("not a zip"), excel.ReadOptions{Layout: model.Layout{HeaderRow: 1}}); err == nil {
		t.Fatalf("expected error for corrupt workbook")
	}
}

func TestSheetNamesAndPreview(t *testing.T) {
	data := buildWorkbook(t, [][]any{{"a"}, {"b"}, {"c"}})

	names, err := excel.SheetNames("x.xlsx", data)
	if err != nil || len(names) != 1 || names[0] != "Sheet1" {
		t.Fatalf("SheetNames=%v err=%v", names, err)
	}
	rows, err := excel.PreviewRows("x.xlsx", data, "", 2)
	if err != nil || len(rows) != 2 {
		t.Fatalf("PreviewRows=%v err=%v", rows, err)
	}
	if _, err := excel.PreviewRows("x.xlsx", bytes.Repeat([]byte{0}, 4), "", 2); err == nil {
		t.Fatalf("expected error")
	}
}
