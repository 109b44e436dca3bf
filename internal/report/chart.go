package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

const ChartTitle = "Resource Usage Breakdown"

var barColor = color.RGBA{R: 76, G: 175, B: 80, A: 255}

// Chart plots fertilizer against pesticide usage.
func Chart(obs model.FarmObservation) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = ChartTitle
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Usage"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(plotter.Values{obs.FertilizerKg, obs.PesticideKg}, vg.Points(60))
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Add(plotter.NewGrid())
	p.NominalX("Fertilizer (Kg)", "Pesticide (Kg)")
	return p, nil
}

// WriteChartPNG renders the resource chart at the given size.
func WriteChartPNG(w io.Writer, obs model.FarmObservation, width, height vg.Length) error {
	p, err := Chart(obs)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
