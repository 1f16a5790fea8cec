package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pneumatic/element"
	"pneumatic/model"
)

const (
	historySheet = "TimeHistory"
	elementSheet = "Elements"
)

// SaveExcel 保存时间历史与元件列表为 Excel 文件。
// 参数m: 可为nil，此时不写元件表。
func SaveExcel(path string, h *History, m *model.Model) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(historySheet)
	if err != nil {
		return err
	}
	header := make([]any, len(h.Header))
	for i, s := range h.Header {
		header[i] = s
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, t := range h.Time {
		row := make([]any, 0, len(h.Names)+1)
		row = append(row, t)
		for _, name := range h.Names {
			row = append(row, h.Series[name][i])
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if m != nil {
		if _, err := f.NewSheet(elementSheet); err != nil {
			return err
		}
		if err := f.SetSheetRow(elementSheet, "A1", &[]any{"ID", "名称", "类型", "直径[m]", "流量系数", "记录", "说明", "参数"}); err != nil {
			return err
		}
		for i, ele := range m.Elements {
			node := ele.Base()
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			row := []any{node.ID, node.Name, ele.Type().String(), node.Diameter, node.FlowCoefficient, node.Visible, node.Description,
				element.ElementList[ele.Type()].CirExport(ele).String()}
			if err := f.SetSheetRow(elementSheet, cell, &row); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存 Excel 文件失败: %w", err)
	}
	return nil
}
