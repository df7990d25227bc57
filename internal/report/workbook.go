// Package report: offline exports of a loaded snapshot (xlsx workbook, PNG charts).
package report

import (
	"fmt"

	"market-map/internal/dataset"
	"market-map/internal/format"

	"github.com/xuri/excelize/v2"
)

const (
	SheetRegions     = "Regions"
	SheetPersonas    = "Personas"
	SheetDiagnostics = "Diagnostics"
)

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func header(f *excelize.File, sheet string, width float64, cols ...string) error {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	if err := writeRow(f, sheet, 1, vals...); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(cols))
	return f.SetColWidth(sheet, "A", last, width)
}

// Workbook builds the export in memory. Caller closes the file.
func Workbook(snap *dataset.Snapshot) (*excelize.File, error) {
	if snap == nil {
		return nil, fmt.Errorf("report: no snapshot")
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetRegions); err != nil {
		f.Close()
		return nil, err
	}
	if err := fillRegions(f, snap); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetPersonas); err != nil {
		f.Close()
		return nil, err
	}
	if err := fillPersonas(f, snap); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetDiagnostics); err != nil {
		f.Close()
		return nil, err
	}
	if err := fillDiagnostics(f, snap); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fillRegions(f *excelize.File, snap *dataset.Snapshot) error {
	if err := header(f, SheetRegions, 18, "name", "sido", "quadrant", "visitor", "restaurant", "demand", "lat", "lng", "naver_region"); err != nil {
		return err
	}
	for i, r := range snap.Regions.All() {
		err := writeRow(f, SheetRegions, i+2,
			r.Name, r.Sido, string(r.Quadrant), r.Visitor, r.Restaurant,
			format.Visitors(r.Visitor), r.Lat, r.Lng, r.NaverRegion)
		if err != nil {
			return err
		}
	}
	return nil
}

func fillPersonas(f *excelize.File, snap *dataset.Snapshot) error {
	if err := header(f, SheetPersonas, 16, "province", "age_group", "gender", "avg_spend", "spend_label", "description"); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetPersonas, "F", "F", 40); err != nil {
		return err
	}
	for i, p := range snap.Personas.All() {
		err := writeRow(f, SheetPersonas, i+2,
			p.Province, p.AgeGroup, p.Gender.Label(), p.AvgSpend, p.SpendLabel, p.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

func fillDiagnostics(f *excelize.File, snap *dataset.Snapshot) error {
	if err := header(f, SheetDiagnostics, 16, "source", "line", "reason", "detail"); err != nil {
		return err
	}
	row := 2
	for _, d := range snap.Diagnostics {
		if err := writeRow(f, SheetDiagnostics, row, d.Source, d.Line, d.Reason, d.Detail); err != nil {
			return err
		}
		row++
	}
	for _, s := range snap.PersonaSkips {
		if err := writeRow(f, SheetDiagnostics, row, "persona", s.Line, s.Reason, ""); err != nil {
			return err
		}
		row++
	}
	return nil
}

// WriteWorkbook saves the export to path (.xlsx).
func WriteWorkbook(path string, snap *dataset.Snapshot) error {
	f, err := Workbook(snap)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
