package resolutions

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer renders resolution documents
type PDFRenderer struct {
	options PDFOptions
}

// PDFOptions configures resolution rendering
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // Letter, A4, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	OrgName        string     `json:"org_name"`
	FontFamily     string     `json:"font_family"`
	BodyFontSize   float64    `json:"body_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	LineHeight     float64    `json:"line_height"`
	ParagraphGap   float64    `json:"paragraph_gap"`
	HeaderHeight   float64    `json:"header_height"`
	SignatureSpace float64    `json:"signature_space"` // min vertical room before the signature block
	Margins        PDFMargins `json:"margins"`
	HeaderColor    PDFColor   `json:"header_color"`
	AccentColor    PDFColor   `json:"accent_color"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default resolution rendering options.
// Units are points.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "Letter",
		Orientation:    "portrait",
		OrgName:        "Quorum Ops",
		FontFamily:     "Helvetica",
		BodyFontSize:   11,
		TitleFontSize:  18,
		LineHeight:     16,
		ParagraphGap:   10,
		HeaderHeight:   96,
		SignatureSpace: 120,
		Margins: PDFMargins{
			Left:   54,
			Right:  54,
			Top:    36,
			Bottom: 60,
		},
		HeaderColor: PDFColor{R: 17, G: 24, B: 39},
		AccentColor: PDFColor{R: 79, G: 70, B: 229},
	}
}

// NewPDFRenderer creates a new resolution renderer
func NewPDFRenderer(options PDFOptions) *PDFRenderer {
	return &PDFRenderer{options: options}
}

// Render lays out the resolution document and returns the PDF bytes.
// Bodies of any length paginate; every page carries the header band.
func (r *PDFRenderer) Render(record *LedgerRecord, entity *Entity) ([]byte, error) {
	if record == nil || entity == nil {
		return nil, fmt.Errorf("record and entity are required")
	}

	orientation := "P"
	if r.options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "pt", r.options.PageSize, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-30)
		pdf.SetFont(r.options.FontFamily, "", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pageW, pageH := pdf.GetPageSize()
	contentWidth := pageW - r.options.Margins.Left - r.options.Margins.Right
	usableBottom := pageH - r.options.Margins.Bottom

	startPage := func() {
		pdf.AddPage()
		r.drawHeader(pdf, record, entity, pageW, contentWidth)
		pdf.SetY(r.options.HeaderHeight + r.options.Margins.Top)
	}
	setBodyFont := func() {
		pdf.SetFont(r.options.FontFamily, "", r.options.BodyFontSize)
		pdf.SetTextColor(31, 41, 55)
	}

	startPage()
	setBodyFont()

	paragraphs := strings.Split(record.Body, "\n\n")
	for i, paragraph := range paragraphs {
		if i > 0 {
			pdf.SetY(pdf.GetY() + r.options.ParagraphGap)
		}
		for _, line := range wrapText(pdf, paragraph, contentWidth) {
			if pdf.GetY()+r.options.LineHeight > usableBottom {
				startPage()
				setBodyFont()
			}
			pdf.SetX(r.options.Margins.Left)
			pdf.CellFormat(contentWidth, r.options.LineHeight, line, "", 1, "L", false, 0, "")
		}
	}

	// The signature block never straddles a page boundary.
	if usableBottom-pdf.GetY() < r.options.SignatureSpace {
		startPage()
	}
	r.drawSignatureBlock(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render resolution pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawHeader draws the dark header band with the entity name, the
// "generated via" pill, and the centered document title.
func (r *PDFRenderer) drawHeader(pdf *gofpdf.Fpdf, record *LedgerRecord, entity *Entity, pageW, contentWidth float64) {
	pdf.SetFillColor(r.options.HeaderColor.R, r.options.HeaderColor.G, r.options.HeaderColor.B)
	pdf.Rect(0, 0, pageW, r.options.HeaderHeight, "F")

	// Entity name, top left
	pdf.SetFont(r.options.FontFamily, "B", 10)
	pdf.SetTextColor(209, 213, 219)
	pdf.SetXY(r.options.Margins.Left, 20)
	pdf.CellFormat(contentWidth/2, 12, strings.ToUpper(entity.Name), "", 0, "L", false, 0, "")

	// "Generated via" pill, top right, sized to its own text
	pillLabel := fmt.Sprintf("Generated via %s", r.options.OrgName)
	pdf.SetFont(r.options.FontFamily, "", 8)
	pillWidth := pdf.GetStringWidth(pillLabel) + 16
	pillX := pageW - r.options.Margins.Right - pillWidth
	pdf.SetFillColor(r.options.AccentColor.R, r.options.AccentColor.G, r.options.AccentColor.B)
	pdf.RoundedRect(pillX, 18, pillWidth, 16, 8, "1234", "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(pillX, 20)
	pdf.CellFormat(pillWidth, 12, pillLabel, "", 0, "C", false, 0, "")

	// Centered title, shrunk until it fits on one line
	title := record.Title
	if title == "" {
		title = "Resolution"
	}
	size := r.options.TitleFontSize
	pdf.SetFont(r.options.FontFamily, "B", size)
	for size > 10 && pdf.GetStringWidth(title) > contentWidth {
		size -= 1
		pdf.SetFont(r.options.FontFamily, "B", size)
	}
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(r.options.Margins.Left, r.options.HeaderHeight-40)
	pdf.CellFormat(contentWidth, 24, title, "", 1, "C", false, 0, "")
}

// drawSignatureBlock draws the signatory label, signature line, and
// caption at the current cursor.
func (r *PDFRenderer) drawSignatureBlock(pdf *gofpdf.Fpdf) {
	lineWidth := 216.0

	pdf.SetY(pdf.GetY() + 36)
	pdf.SetX(r.options.Margins.Left)
	pdf.SetFont(r.options.FontFamily, "B", 10)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(lineWidth, 14, "Authorized Signatory", "", 1, "L", false, 0, "")

	lineY := pdf.GetY() + 28
	pdf.SetDrawColor(107, 114, 128)
	pdf.SetLineWidth(0.8)
	pdf.Line(r.options.Margins.Left, lineY, r.options.Margins.Left+lineWidth, lineY)

	pdf.SetY(lineY + 6)
	pdf.SetX(r.options.Margins.Left)
	pdf.SetFont(r.options.FontFamily, "", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(lineWidth, 12, "Name / Title", "", 1, "L", false, 0, "")
}

// wrapText greedily packs words onto lines no wider than maxWidth,
// measured with the current font. A single word wider than maxWidth
// keeps its own line.
func wrapText(pdf *gofpdf.Fpdf, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if pdf.GetStringWidth(candidate) > maxWidth {
			lines = append(lines, line)
			line = word
		} else {
			line = candidate
		}
	}
	return append(lines, line)
}
