package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pricecheck/internal/model"
	"pricecheck/internal/service/session"
	"pricecheck/internal/store"
)

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := wb.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	st, err := store.New(filepath.Join(dataDir, "pricecheck.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	mgr, err := session.NewManager(dataDir, st, session.Defaults{
		CatalogHeaderRow: 1,
		ToolHeaderRow:    1,
		Campaign:         model.Layout{HeaderRow: 1},
		Percent:          decimal.NewFromInt(50),
		AuditColumn:      5,
	}, nil)
	if err != nil {
		t.Fatalf("init manager: %v", err)
	}

	r := gin.New()
	NewHandler(mgr, nil).RegisterRoutes(r.Group("/api"))
	return r
}

type multipartFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, files []multipartFile, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = w.Write(f.data)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	return body, mw.FormDataContentType()
}

func sessionFiles(t *testing.T, toolCSV string) []multipartFile {
	return []multipartFile{
		{"catalog", "sku.xlsx", buildXLSX(t, [][]any{
			{"Product ID", "Variation ID", "SKU", "Parent SKU"},
			{"1001", "1", "A1", "P0"},
			{"1002", "1", "B2", "P0"},
		})},
		{"tool", "tool.csv", []byte(toolCSV)},
		{"campaign", "campaign.xlsx", buildXLSX(t, [][]any{
			{"Product ID", "Variation ID", "Recommended Campaign Price", "Campaign Price"},
			{1001, 1, 20, nil},
			{1002, 1, 30, nil},
		})},
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	body, ct := multipartBody(t, sessionFiles(t, "sku编码,活动价格\nA1,25.5\n"), map[string]string{"name": "测试"})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Session.ID
}

type reviewResp struct {
	Review []struct {
		ProductID      string  `json:"productId"`
		ResolvedPrice  float64 `json:"resolvedPrice"`
		Modified       bool    `json:"modified"`
		PriceValid     bool    `json:"priceValid"`
		HumanConfirmed bool    `json:"humanConfirmed"`
		DisplaySource  string  `json:"displaySource"`
		AuditLabel     string  `json:"auditLabel"`
	} `json:"review"`
	InvalidCount int `json:"invalidCount"`
}

func TestSessionReviewExportFlow(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/review", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("review: status=%d body=%s", w.Code, w.Body.String())
	}
	var rv reviewResp
	if err := json.Unmarshal(w.Body.Bytes(), &rv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rv.Review) != 1 || rv.Review[0].ProductID != "1002" {
		t.Fatalf("unexpected review: %+v", rv.Review)
	}
	if rv.Review[0].ResolvedPrice != 30 || rv.Review[0].DisplaySource != "推荐价格" {
		t.Fatalf("unexpected review line: %+v", rv.Review[0])
	}

	w = doJSON(t, r, http.MethodPatch, "/api/sessions/"+id+"/review", []map[string]any{
		{"productId": 1002, "variationId": "1", "resolvedPrice": 99, "humanConfirmed": true},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status=%d body=%s", w.Code, w.Body.String())
	}
	rv = reviewResp{}
	if err := json.Unmarshal(w.Body.Bytes(), &rv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	line := rv.Review[0]
	if !line.Modified || line.PriceValid || !line.HumanConfirmed || rv.InvalidCount != 1 {
		t.Fatalf("unexpected edited line: %+v invalid=%d", line, rv.InvalidCount)
	}
	if line.DisplaySource != "推荐价格（已手动更改）" || line.AuditLabel != "推荐价格（已手动更改并确认）" {
		t.Fatalf("unexpected labels: %+v", line)
	}

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: status=%d body=%s", w.Code, w.Body.String())
	}
	var ex struct {
		DownloadURL string `json:"downloadUrl"`
		FileName    string `json:"fileName"`
		Matched     int    `json:"matched"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ex); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ex.Matched != 2 || ex.FileName != "最终活动价格表.xlsx" {
		t.Fatalf("unexpected export: %+v", ex)
	}

	w = doJSON(t, r, http.MethodGet, ex.DownloadURL, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: status=%d body=%s", w.Code, w.Body.String())
	}
	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open downloaded workbook: %v", err)
	}
	defer wb.Close()
	if v, _ := wb.GetCellValue("Sheet1", "D3"); v != "99" {
		t.Fatalf("D3=%q, want 99", v)
	}

	w = doJSON(t, r, http.MethodGet, ex.DownloadURL, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second download should fail, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/sessions/"+id+"/review", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateSession_SchemaError(t *testing.T) {
	r := newTestRouter(t)

	body, ct := multipartBody(t, sessionFiles(t, "sku,price\nA1,1\n"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Schema []struct {
			Table   string   `json:"table"`
			Missing []string `json:"missing"`
		} `json:"schema"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Schema) != 1 || resp.Schema[0].Table != model.TableTool || len(resp.Schema[0].Missing) != 2 {
		t.Fatalf("unexpected schema errors: %+v", resp.Schema)
	}
}

func TestCreateSession_MissingFileAndBadParam(t *testing.T) {
	r := newTestRouter(t)

	files := sessionFiles(t, "sku编码,活动价格\n")
	body, ct := multipartBody(t, files[:2], nil)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing campaign: status=%d", w.Code)
	}

	body, ct = multipartBody(t, files, map[string]string{"auditColumn": "abc"})
	req = httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad param: status=%d", w.Code)
	}
}

func TestGetPreview(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/preview?table=campaign&rows=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("preview: status=%d body=%s", w.Code, w.Body.String())
	}
	var p struct {
		FileName  string     `json:"fileName"`
		Sheets    []string   `json:"sheets"`
		HeaderRow int        `json:"headerRow"`
		Rows      [][]string `json:"rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.FileName != "campaign.xlsx" || len(p.Sheets) != 1 || p.HeaderRow != 1 {
		t.Fatalf("unexpected preview: %+v", p)
	}
	if len(p.Rows) != 2 || p.Rows[0][0] != "Product ID" || p.Rows[1][0] != "1001" {
		t.Fatalf("unexpected rows: %v", p.Rows)
	}

	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/preview?table=tool", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "sku编码") {
		t.Fatalf("tool preview: status=%d body=%s", w.Code, w.Body.String())
	}

	for _, q := range []string{"table=orders", "table=campaign&rows=0", "table=campaign&sheet=Nope"} {
		if w := doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/preview?"+q, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", q, w.Code)
		}
	}
}

func TestSubmitReview_RejectsToolPriceLine(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPatch, "/api/sessions/"+id+"/review", []map[string]any{
		{"productId": "1001", "variationId": "1", "resolvedPrice": 999},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("patch: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestUnknownSession(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/review", "/api/sessions/nope/lines"} {
		if w := doJSON(t, r, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
			t.Fatalf("%s: status=%d", path, w.Code)
		}
	}
	if w := doJSON(t, r, http.MethodGet, "/api/export/download/none", nil); w.Code != http.StatusNotFound {
		t.Fatalf("download: status=%d", w.Code)
	}
}

func TestGetStatus(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/status", nil)
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionCount != 1 || resp.LastSessionID != id || resp.Fields.ToolSKU != "sku编码" {
		t.Fatalf("unexpected status: %+v", resp)
	}
}
