package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

type csvExporter struct{}

func (csvExporter) Format() string      { return string(FormatCSV) }
func (csvExporter) ContentType() string { return "text/csv" }
func (csvExporter) Extension() string   { return ".csv" }

// Write emits the header row and exactly one data row.
func (csvExporter) Write(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	rows := r.Rows()
	values := make([]string, len(rows))
	for i, row := range rows {
		values[i] = row.Value
	}
	if err := cw.Write(Labels); err != nil {
		return err
	}
	if err := cw.Write(values); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads back a document produced by the CSV exporter.
func ParseCSV(rd io.Reader) (model.FarmObservation, float64, error) {
	cr := csv.NewReader(rd)
	recs, err := cr.ReadAll()
	if err != nil {
		return model.FarmObservation{}, 0, err
	}
	if len(recs) != 2 {
		return model.FarmObservation{}, 0, fmt.Errorf("expected header and one row, got %d rows", len(recs))
	}
	header, row := recs[0], recs[1]
	if len(header) != len(Labels) {
		return model.FarmObservation{}, 0, fmt.Errorf("expected %d columns, got %d", len(Labels), len(header))
	}
	for i := range Labels {
		if header[i] != Labels[i] {
			return model.FarmObservation{}, 0, fmt.Errorf("column %d is %q, want %q", i, header[i], Labels[i])
		}
	}

	var errs []error
	num := func(i int) float64 {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", Labels[i], err))
		}
		return v
	}
	obs := model.FarmObservation{
		SoilPH:       num(0),
		TemperatureC: num(1),
		SoilMoisture: num(2),
		RainfallMM:   num(3),
		CropType:     row[4],
		FertilizerKg: num(5),
		PesticideKg:  num(6),
		CropYieldTon: num(7),
	}
	score := num(8)
	if len(errs) > 0 {
		return model.FarmObservation{}, 0, errors.Join(errs...)
	}
	return obs, score, nil
}
