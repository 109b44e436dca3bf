package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetReport   = "Report"
	sheetInsights = "Insights"
)

type xlsxExporter struct{}

func (xlsxExporter) Format() string { return string(FormatXLSX) }
func (xlsxExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (xlsxExporter) Extension() string { return ".xlsx" }

// Write lays out the same header and row as the CSV on one sheet and the
// insights on a second one.
func (xlsxExporter) Write(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetReport); err != nil {
		return err
	}
	header := make([]interface{}, len(Labels))
	for i, l := range Labels {
		header[i] = l
	}
	if err := f.SetSheetRow(sheetReport, "A1", &header); err != nil {
		return err
	}
	o := r.Result.Observation
	row := []interface{}{
		o.SoilPH, o.TemperatureC, o.SoilMoisture, o.RainfallMM, o.CropType,
		o.FertilizerKg, o.PesticideKg, o.CropYieldTon, r.Result.Score,
	}
	if err := f.SetSheetRow(sheetReport, "A2", &row); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(Labels))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheetReport, "A", lastCol, 20); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetInsights); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetInsights, "A1", &[]interface{}{"Level", "Message"}); err != nil {
		return err
	}
	for i, in := range r.Result.Insights {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetInsights, cell, &[]interface{}{string(in.Level), in.Message}); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetInsights, "B", "B", 80); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	return nil
}
