// Package dataset reads the tab-separated farmer advisor training table.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

// Columns required in the header; any other column (e.g. Farm_ID) is ignored.
var Columns = []string{
	"Soil_pH",
	"Soil_Moisture",
	"Temperature_C",
	"Rainfall_mm",
	"Crop_Type",
	"Fertilizer_Usage_kg",
	"Pesticide_Usage_kg",
	"Crop_Yield_ton",
	"Sustainability_Score",
}

// Record is one labelled training row.
type Record struct {
	Observation model.FarmObservation
	Score       float64
}

// Table holds the parsed rows in file order.
type Table struct {
	Records []Record
}

// Crops returns the crop column, one entry per row.
func (t *Table) Crops() []string {
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Observation.CropType
	}
	return out
}

func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses a TSV stream. Rows are rejected with their line number.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset: empty file")
		}
		return nil, fmt.Errorf("dataset: header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	idx := make([]int, len(Columns))
	for i, c := range Columns {
		p, ok := pos[c]
		if !ok {
			return nil, fmt.Errorf("dataset: missing column %s", c)
		}
		idx[i] = p
	}

	t := &Table{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		row, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		t.Records = append(t.Records, row)
	}
	if len(t.Records) == 0 {
		return nil, errors.New("dataset: no rows")
	}
	return t, nil
}

func parseRow(rec []string, idx []int) (Record, error) {
	num := func(col int) (float64, error) {
		s := strings.TrimSpace(rec[idx[col]])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", Columns[col], s)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s: %q is not a finite number", Columns[col], s)
		}
		return v, nil
	}
	vals := make([]float64, len(Columns))
	for i := range Columns {
		if Columns[i] == "Crop_Type" {
			continue
		}
		v, err := num(i)
		if err != nil {
			return Record{}, err
		}
		vals[i] = v
	}
	crop := strings.TrimSpace(rec[idx[4]])
	if crop == "" {
		return Record{}, errors.New("Crop_Type is empty")
	}
	return Record{
		Observation: model.FarmObservation{
			SoilPH:       vals[0],
			SoilMoisture: vals[1],
			TemperatureC: vals[2],
			RainfallMM:   vals[3],
			CropType:     crop,
			FertilizerKg: vals[5],
			PesticideKg:  vals[6],
			CropYieldTon: vals[7],
		},
		Score: vals[8],
	}, nil
}
