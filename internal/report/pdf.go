package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// Page geometry in millimetres, A4 portrait.
const (
	margin      = 14.0
	titleY      = 22.0
	tableY      = 30.0
	lineHeight  = 5.0
	cellPadding = 1.5
	titleSize   = 18
	bodySize    = 10
	fontFamily  = "Helvetica"
)

var columnWidths = [...]float64{28, 32, 36, 30, 56}

var columnAligns = [...]string{"L", "L", "L", "R", "L"}

var (
	headerFill = [3]int{22, 160, 133}
	stripeFill = [3]int{245, 245, 245}
)

// Renderer turns tables into PDF documents using the built-in PDF fonts, which
// only cover Windows-1252 text.
type Renderer struct {
	now func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// Export builds and renders the report for in.
func (r *Renderer) Export(ctx context.Context, in Input) (Document, error) {
	t := BuildTable(in)
	if !encodable(t.Header[3]) {
		t.Header[3] = fmt.Sprintf(columnLabels[3], in.Currency.Code)
	}
	content, pages, err := r.Render(ctx, t)
	if err != nil {
		return Document{}, &ExportError{Customer: in.Customer.Name, Err: err}
	}
	return Document{Filename: Filename(in.Customer.Name), Content: content, Pages: pages}, nil
}

// Render lays t out on as many pages as needed, repeating the header on each
// page, and returns the PDF bytes and the page count.
func (r *Renderer) Render(ctx context.Context, t Table) ([]byte, int, error) {
	title, err := encode(t.Title)
	if err != nil {
		return nil, 0, fmt.Errorf("title: %w", err)
	}
	header, err := encodeRow(t.Header)
	if err != nil {
		return nil, 0, fmt.Errorf("header: %w", err)
	}
	summary, err := encodeRow(t.Summary)
	if err != nil {
		return nil, 0, fmt.Errorf("summary: %w", err)
	}
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		if rows[i], err = encodeRow(row); err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.Title, true)
	pdf.SetCreator("ledger", false)
	pdf.SetCreationDate(r.now())
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	_, pageHeight := pdf.GetPageSize()
	bottom := pageHeight - margin - 6

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", titleSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(margin, titleY, title)

	y := drawRow(pdf, tableY, header, rowHeader)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		style := rowPlain
		if i%2 == 1 {
			style = rowStriped
		}
		if y+rowHeight(pdf, row, style) > bottom {
			pdf.AddPage()
			y = drawRow(pdf, margin, header, rowHeader)
		}
		y = drawRow(pdf, y, row, style)
	}
	if y+rowHeight(pdf, summary, rowSummary) > bottom {
		pdf.AddPage()
		y = drawRow(pdf, margin, header, rowHeader)
	}
	drawRow(pdf, y, summary, rowSummary)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

type rowStyle int

const (
	rowPlain rowStyle = iota
	rowStriped
	rowHeader
	rowSummary
)

// drawRow draws one table row at y in the given style and returns the y
// below it. Cell text is already Windows-1252 encoded.
func drawRow(pdf *fpdf.Fpdf, y float64, cells []string, style rowStyle) float64 {
	h := rowHeight(pdf, cells, style)
	switch style {
	case rowHeader:
		pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
		pdf.SetTextColor(255, 255, 255)
	case rowStriped:
		pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
		pdf.SetTextColor(0, 0, 0)
	default:
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.SetDrawColor(200, 200, 200)

	x := margin
	for i, cell := range cells {
		w := columnWidths[i]
		rectStyle := "D"
		if style == rowHeader || style == rowStriped {
			rectStyle = "FD"
		}
		pdf.Rect(x, y, w, h, rectStyle)
		for j, line := range wrap(pdf, cell, w-2*cellPadding) {
			pdf.SetXY(x, y+cellPadding+float64(j)*lineHeight)
			pdf.CellFormat(w, lineHeight, line, "", 0, columnAligns[i], false, 0, "")
		}
		x += w
	}
	return y + h
}

// rowHeight sets the font for style and measures the row with it.
func rowHeight(pdf *fpdf.Fpdf, cells []string, style rowStyle) float64 {
	if style == rowHeader || style == rowSummary {
		pdf.SetFont(fontFamily, "B", bodySize)
	} else {
		pdf.SetFont(fontFamily, "", bodySize)
	}
	lines := 1
	for i, cell := range cells {
		lines = max(lines, len(wrap(pdf, cell, columnWidths[i]-2*cellPadding)))
	}
	return float64(lines)*lineHeight + 2*cellPadding
}

// wrap breaks encoded text into lines no wider than width, splitting on spaces
// and breaking words that are too long on their own.
func wrap(pdf *fpdf.Fpdf, text string, width float64) []string {
	if text == "" {
		return []string{""}
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if pdf.GetStringWidth(candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			for pdf.GetStringWidth(word) > width && len(word) > 1 {
				n := len(word) - 1
				for n > 1 && pdf.GetStringWidth(word[:n]) > width {
					n--
				}
				lines = append(lines, word[:n])
				word = word[n:]
			}
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

var cp1252 = charmap.Windows1252

// encode converts UTF-8 text to the byte encoding of the built-in fonts.
func encode(s string) (string, error) {
	out, err := cp1252.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("text %q cannot be printed with the report font: %w", s, err)
	}
	return out, nil
}

func encodeRow(cells []string) ([]string, error) {
	out := make([]string, len(cells))
	for i, c := range cells {
		enc, err := encode(c)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func encodable(s string) bool {
	_, err := encode(s)
	return err == nil
}
