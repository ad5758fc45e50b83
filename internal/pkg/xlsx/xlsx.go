// Package xlsx writes single-sheet spreadsheets for exports.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an xlsx file
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Write renders headers and rows into a workbook with one sheet
func Write(sheet string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	if len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
