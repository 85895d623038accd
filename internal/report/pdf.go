package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/mtb_analyzer_go/internal/cursor"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// CursorTable is one rendered metric table: the interval label column plus
// one evaluated column per result signal.
type CursorTable struct {
	Title   string
	Labels  []string
	Columns []cursor.Column
}

// pdfStyler holds reusable styling and flow state for PDF generation.
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - (2 * pdfMargin),
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 8)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 8)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellError"] = func() {
		s.pdf.SetFont("Arial", "B", 8)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.pdf.AddPage()
		s.currentY = s.contentTopY
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	s.checkAddPage(s.lineHeight)
	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// writeTable renders one cursor table: interval labels in the first
// column, evaluated metric texts per signal column. Error sentinels render
// highlighted so failed metrics stand out in review.
func (s *pdfStyler) writeTable(table CursorTable) {
	headers := append([]string{"Cursor time intervals"}, make([]string, len(table.Columns))...)
	for i, col := range table.Columns {
		headers[i+1] = col.Name
	}
	colWidth := pdfContentWidth / float64(len(headers))

	s.checkAddPage(s.lineHeight * float64(len(table.Labels)+1))

	sY := s.currentY
	sX := pdfMargin
	s.applyStyle("tableHeader")
	for _, header := range headers {
		s.pdf.SetXY(sX, sY)
		s.pdf.CellFormat(colWidth, s.lineHeight, header, "1", 0, "C", true, 0, "")
		sX += colWidth
	}
	sY += s.lineHeight
	s.currentY = sY

	for row, label := range table.Labels {
		s.checkAddPage(s.lineHeight)
		sY = s.currentY
		sX = pdfMargin

		s.applyStyle("tableCell")
		s.pdf.SetXY(sX, sY)
		s.pdf.CellFormat(colWidth, s.lineHeight, label, "1", 0, "C", false, 0, "")
		sX += colWidth

		for _, col := range table.Columns {
			text := ""
			if row < len(col.Values) {
				text = col.Values[row]
			}
			if isErrorSentinel(text) {
				s.applyStyle("tableCellError")
			} else {
				s.applyStyle("tableCell")
			}
			s.pdf.SetXY(sX, sY)
			s.pdf.CellFormat(colWidth, s.lineHeight, text, "1", 0, "C", false, 0, "")
			sX += colWidth
		}
		sY += s.lineHeight
		s.currentY = sY
	}
}

func isErrorSentinel(text string) bool {
	const suffix = ": error"
	return len(text) >= len(suffix) && text[len(text)-len(suffix):] == suffix
}

// BuildCursorPDF writes the cursor metric tables for one rank.
func BuildCursorPDF(path string, project string, rank int, caseName string, tables []CursorTable) error {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	styler.writeParagraph(fmt.Sprintf("%s Compliance Metrics - Rank %d", project, rank), "h1", "C")
	if caseName != "" {
		styler.writeParagraph(caseName, "normal", "C")
	}
	styler.addSpacer(5)

	if len(tables) == 0 {
		styler.writeParagraph("No cursor metrics to display.", "normal", "L")
		return pdf.OutputFileAndClose(path)
	}

	for _, table := range tables {
		styler.writeParagraph(table.Title, "h2", "L")
		if len(table.Columns) == 0 {
			styler.writeParagraph("No result contributed metrics for this cursor.", "normal", "L")
		} else {
			styler.writeTable(table)
		}
		styler.addSpacer(5)
	}
	return pdf.OutputFileAndClose(path)
}
