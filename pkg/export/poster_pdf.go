package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PosterPDFExporter renders the poster bitmap and its marks table onto an
// A4 portrait page: poster on the left at its 9:16 design ratio, student
// details and the subject table on the right.
type PosterPDFExporter struct{}

// NewPosterPDFExporter constructs a PDF exporter.
func NewPosterPDFExporter() *PosterPDFExporter {
	return &PosterPDFExporter{}
}

// Render creates the PDF document from the encoded poster PNG and the sheet.
func (e *PosterPDFExporter) Render(posterPNG []byte, sheet MarksSheet) ([]byte, error) {
	if len(posterPNG) == 0 {
		return nil, fmt.Errorf("pdf requires a rendered poster")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(sheet.Title), "", 1, "C", false, 0, "")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("poster", opts, bytes.NewReader(posterPNG))
	pdf.ImageOptions("poster", 12, 30, 81, 144, false, opts, 0, "")

	x := 103.0
	y := 32.0
	writeLine := func(label, value string) {
		pdf.SetXY(x, y)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(28, 7, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(66, 7, value, "", 0, "", false, 0, "")
		y += 7
	}
	writeLine("Student", sheet.StudentName)
	writeLine("Unit", sheet.UnitLabel)
	writeLine("Percentage", sheet.Percentage+"%")
	y += 4

	pdf.SetXY(x, y)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(54, 8, "Subject", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, "Marks", "1", 0, "C", false, 0, "")
	y += 8

	pdf.SetFont("Arial", "", 9)
	for _, entry := range sheet.Entries {
		pdf.SetXY(x, y)
		pdf.CellFormat(54, 7, entry.Subject, "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, entry.Text, "1", 0, "C", false, 0, "")
		y += 7
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
