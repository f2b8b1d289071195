package excel

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"pricecheck/internal/model"
)

// ErrUnsupportedFormat 不支持的文件格式
var ErrUnsupportedFormat = eris.New("unsupported file format")

// ReadOptions 读取参数
type ReadOptions struct {
	// Sheet 工作表名；为空时使用活动工作表。CSV 忽略。
	Sheet string
	// Layout 表头行与备注行。SKU 表与工具价格表只需设置 HeaderRow。
	Layout model.Layout
}

// IsSpreadsheet 按扩展名判断是否为 Excel 文件
func IsSpreadsheet(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// IsCSV 按扩展名判断是否为 CSV 文件
func IsCSV(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

// ReadRows 读取文件的全部原始行（rows[0] 为第 1 行）。
// Excel 读取未格式化的原始值，避免数字被显示格式改写。
func ReadRows(filename string, data []byte, sheet string) ([][]string, error) {
	switch {
	case IsSpreadsheet(filename):
		return readWorkbookRows(data, sheet)
	case IsCSV(filename):
		return readCSVRows(data)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "%s", filename)
	}
}

func readWorkbookRows(data []byte, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "failed to open excel")
	}
	defer wb.Close()

	if sheet == "" {
		sheet = wb.GetSheetName(wb.GetActiveSheetIndex())
	}
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read sheet %s", sheet)
	}
	return rows, nil
}

func readCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var r io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		// 国内导出的 CSV 常见 GBK/GB18030 编码
		r = transform.NewReader(r, simplifiedchinese.GB18030.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse csv")
	}
	return rows, nil
}

// SheetNames 返回工作簿中的工作表列表；CSV 返回空
func SheetNames(filename string, data []byte) ([]string, error) {
	if !IsSpreadsheet(filename) {
		return []string{}, nil
	}
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "failed to open excel")
	}
	defer wb.Close()
	return wb.GetSheetList(), nil
}

// TableFromRows 按布局从原始行中切出表头与数据行。
// 备注行与空行被跳过，数据行保留原始行号。
func TableFromRows(name string, rows [][]string, layout model.Layout) (*model.Table, error) {
	if err := layout.Validate(); err != nil {
		return nil, eris.Wrapf(err, "%s", name)
	}
	if layout.HeaderRow > len(rows) {
		return nil, eris.Errorf("%s: 表头行 %d 超出文件行数 %d", name, layout.HeaderRow, len(rows))
	}

	table := &model.Table{
		Name:   name,
		Header: append([]string(nil), rows[layout.HeaderRow-1]...),
		Rows:   make([]model.TableRow, 0, len(rows)),
	}

	for r := layout.DataStartRow(); r <= len(rows); r++ {
		if layout.IsRemark(r) {
			continue
		}
		row := model.TableRow{RowNo: r, Cells: rows[r-1]}
		if row.IsBlank() {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadTable 读取上传文件并解码为表
func ReadTable(name, filename string, data []byte, opts ReadOptions) (*model.Table, error) {
	rows, err := ReadRows(filename, data, opts.Sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "%s", name)
	}
	return TableFromRows(name, rows, opts.Layout)
}

// PreviewRows 返回文件前 limit 行原始内容，供选择表头行
func PreviewRows(filename string, data []byte, sheet string, limit int) ([][]string, error) {
	rows, err := ReadRows(filename, data, sheet)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
