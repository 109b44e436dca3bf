package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format names a downloadable report type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported report format")

// Exporter renders a Report in one format.
type Exporter interface {
	Write(w io.Writer, r *Report) error
	Format() string
	ContentType() string
	Extension() string
}

// ParseFormat accepts the format names case-insensitively, plus "excel".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// NewExporter creates the exporter for a format name.
func NewExporter(format string) (Exporter, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatCSV:
		return csvExporter{}, nil
	case FormatPDF:
		return pdfExporter{chart: true}, nil
	case FormatXLSX:
		return xlsxExporter{}, nil
	default:
		return jsonExporter{}, nil
	}
}

// SupportedFormats lists the accepted format names.
func SupportedFormats() []string {
	return []string{string(FormatCSV), string(FormatPDF), string(FormatXLSX), string(FormatJSON)}
}

// FileName is the download name for an exporter.
func FileName(e Exporter) string { return "sustainability_report" + e.Extension() }
