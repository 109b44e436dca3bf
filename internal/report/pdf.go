package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"gonum.org/v1/plot/vg"
)

type pdfExporter struct {
	chart      bool
	uncompress bool
}

func (pdfExporter) Format() string      { return string(FormatPDF) }
func (pdfExporter) ContentType() string { return "application/pdf" }
func (pdfExporter) Extension() string   { return ".pdf" }

func (e pdfExporter) Write(w io.Writer, r *Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!e.uncompress)
	pdf.SetTitle(Title, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetTextColor(34, 139, 34)
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, Title, "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 12)

	pdf.Ln(10)
	pdf.CellFormat(0, 10, "Predicted Sustainability Score: "+r.ScoreText(), "", 1, "", false, 0, "")

	pdf.Ln(5)
	pdf.CellFormat(0, 10, "Suggestions:", "", 1, "", false, 0, "")
	for _, s := range r.Suggestions() {
		pdf.MultiCell(0, 10, tr("- "+s), "", "", false)
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Your Inputs:", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	for _, row := range r.Inputs() {
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s: %s", row.Label, row.Value)), "", 1, "", false, 0, "")
	}

	if e.chart {
		var img bytes.Buffer
		if err := WriteChartPNG(&img, r.Result.Observation, 12*vg.Centimeter, 8*vg.Centimeter); err != nil {
			return err
		}
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("resource-chart", opts, &img)
		pdf.Ln(5)
		pdf.ImageOptions("resource-chart", pdf.GetX(), pdf.GetY(), 120, 0, true, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return pdf.Output(w)
}
