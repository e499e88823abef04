// Package report builds spreadsheet rosters of stored diagnoses.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

const SheetName = "診断結果"

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the roster's first row.
var Header = []string{
	"作成日時 (UTC)",
	"医院名",
	"回答者名",
	"メールアドレス",
	"診断日",
	clinicdiag.Finance.Label().JA,
	clinicdiag.Patients.Label().JA,
	clinicdiag.Staff.Label().JA,
	clinicdiag.Satisfaction.Label().JA,
	"合計",
	"総合評価",
}

var columnWidths = []float64{18, 28, 18, 30, 12, 10, 12, 12, 10, 8, 14}

// Roster renders one row per record, in the order given.
func Roster(recs []clinicdiag.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#495FE9"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("setting width of %s: %w", col, err)
		}
	}

	for i, rec := range recs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			rec.CreatedAt.UTC().Format("2006-01-02 15:04"),
			rec.ClinicInfo.ClinicName,
			rec.ClinicInfo.RespondentName,
			rec.ClinicInfo.Email,
			rec.ClinicInfo.Date.String(),
			rec.Results.Categories.Finance,
			rec.Results.Categories.Patients,
			rec.Results.Categories.Staff,
			rec.Results.Categories.Satisfaction,
			rec.Results.TotalYes,
			string(rec.Results.Status),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freezing header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
