package export

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"pricecheck/internal/model"
)

// FileName 导出文件名
const FileName = "最终活动价格表.xlsx"

// ActiveSheet 当前活动工作表名
func ActiveSheet(wb *excelize.File) string {
	return wb.GetSheetName(wb.GetActiveSheetIndex())
}

// PatchWorkbook 将计划写入工作表，其他单元格保持原样
func PatchWorkbook(wb *excelize.File, sheet string, plan *Plan) error {
	if wb == nil {
		return eris.New("workbook is nil")
	}
	for _, w := range plan.Writes {
		cell, err := excelize.CoordinatesToCellName(w.Col, w.Row)
		if err != nil {
			return eris.Wrapf(err, "invalid cell (%d,%d)", w.Row, w.Col)
		}
		if err := wb.SetCellValue(sheet, cell, w.Value); err != nil {
			return eris.Wrapf(err, "write %s!%s", sheet, cell)
		}
	}
	return nil
}

// ComposeWorkbook 读取原始活动提交表字节，按计划改写价格列与价格标记列后返回新的工作簿字节
func ComposeWorkbook(original []byte, lines []model.CampaignLine, opts Options) ([]byte, *Plan, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(original))
	if err != nil {
		return nil, nil, eris.Wrap(err, "open campaign workbook")
	}
	defer wb.Close()

	sheet := ActiveSheet(wb)
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, eris.Wrapf(err, "read sheet %s", sheet)
	}

	plan, err := Compose(rows, lines, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := PatchWorkbook(wb, sheet, plan); err != nil {
		return nil, nil, err
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, nil, eris.Wrap(err, "write workbook")
	}
	return buf.Bytes(), plan, nil
}
