package certificates

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const valuePlaceholder = "n/a"

// PDFRenderer renders certificate documents
type PDFRenderer struct {
	options PDFOptions
}

// PDFOptions configures certificate rendering
type PDFOptions struct {
	PageSize        string   `json:"page_size"`
	Orientation     string   `json:"orientation"`
	OrgName         string   `json:"org_name"`
	FontFamily      string   `json:"font_family"`
	LabelFontSize   float64  `json:"label_font_size"`
	ValueFontSize   float64  `json:"value_font_size"`
	ValueLineHeight float64  `json:"value_line_height"`
	FieldGap        float64  `json:"field_gap"`
	PanelInset      float64  `json:"panel_inset"`
	ContentPadding  float64  `json:"content_padding"`
	WatermarkAlpha  float64  `json:"watermark_alpha"`
	BorderColor     PDFColor `json:"border_color"`
	AccentColor     PDFColor `json:"accent_color"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// DefaultPDFOptions returns default certificate rendering options.
// Units are points on an A4 page.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:        "A4",
		Orientation:     "portrait",
		OrgName:         "Quorum Ops",
		FontFamily:      "Helvetica",
		LabelFontSize:   9,
		ValueFontSize:   11,
		ValueLineHeight: 16,
		FieldGap:        10,
		PanelInset:      24,
		ContentPadding:  46,
		WatermarkAlpha:  0.06,
		BorderColor:     PDFColor{R: 55, G: 65, B: 81},
		AccentColor:     PDFColor{R: 79, G: 70, B: 229},
	}
}

// NewPDFRenderer creates a new certificate renderer
func NewPDFRenderer(options PDFOptions) *PDFRenderer {
	return &PDFRenderer{options: options}
}

type labelValue struct {
	label string
	value string
}

// Render lays out the certificate and returns the PDF bytes. Fields
// that outgrow the page continue on a fresh page with the same panel
// and watermark.
func (r *PDFRenderer) Render(cert *VerifiedCertificate) ([]byte, error) {
	if cert == nil {
		return nil, fmt.Errorf("certificate record is required")
	}

	orientation := "P"
	if r.options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "pt", r.options.PageSize, "")
	pdf.SetAutoPageBreak(false, 0)

	pageW, pageH := pdf.GetPageSize()
	contentLeft := r.options.PanelInset + r.options.ContentPadding
	contentWidth := pageW - 2*contentLeft
	bottomLimit := pageH - r.options.PanelInset - r.options.ContentPadding

	labelWidth := 150.0
	valueLeft := contentLeft + labelWidth
	valueWidth := pageW - valueLeft - contentLeft

	var y float64
	startPage := func() {
		pdf.AddPage()
		r.drawPanel(pdf, pageW, pageH)
		r.drawWatermark(pdf, pageW, pageH)
		y = r.options.PanelInset + r.options.ContentPadding + 10
	}

	startPage()
	y = r.drawMasthead(pdf, cert, contentLeft, contentWidth)

	for _, field := range r.buildRows(cert) {
		pdf.SetFont(r.options.FontFamily, "", r.options.ValueFontSize)
		lines := wrapText(pdf, field.value, valueWidth)
		if len(lines) == 0 {
			lines = []string{valuePlaceholder}
		}

		needed := float64(len(lines)) * r.options.ValueLineHeight
		if y+needed > bottomLimit {
			startPage()
		}

		pdf.SetFont(r.options.FontFamily, "B", r.options.LabelFontSize)
		pdf.SetTextColor(107, 114, 128)
		pdf.SetXY(contentLeft, y)
		pdf.CellFormat(labelWidth, r.options.ValueLineHeight, strings.ToUpper(field.label), "", 0, "L", false, 0, "")

		pdf.SetFont(r.options.FontFamily, "", r.options.ValueFontSize)
		pdf.SetTextColor(17, 24, 39)
		for i, line := range lines {
			pdf.SetXY(valueLeft, y+float64(i)*r.options.ValueLineHeight)
			pdf.CellFormat(valueWidth, r.options.ValueLineHeight, line, "", 0, "L", false, 0, "")
		}

		y += needed + r.options.FieldGap
	}

	// Closing note
	note := "This certificate is computed from the verified registry and is valid only against the referenced content hash."
	pdf.SetFont(r.options.FontFamily, "I", 8)
	noteLines := wrapText(pdf, note, contentWidth)
	noteHeight := float64(len(noteLines))*12 + 14
	if y+noteHeight > bottomLimit {
		startPage()
	}
	pdf.SetTextColor(107, 114, 128)
	y += 14
	for i, line := range noteLines {
		pdf.SetXY(contentLeft, y+float64(i)*12)
		pdf.CellFormat(contentWidth, 12, line, "", 0, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawPanel draws the double-ruled certificate border.
func (r *PDFRenderer) drawPanel(pdf *gofpdf.Fpdf, pageW, pageH float64) {
	inset := r.options.PanelInset
	pdf.SetDrawColor(r.options.BorderColor.R, r.options.BorderColor.G, r.options.BorderColor.B)
	pdf.SetLineWidth(1.5)
	pdf.Rect(inset, inset, pageW-2*inset, pageH-2*inset, "D")
	pdf.SetLineWidth(0.5)
	pdf.Rect(inset+6, inset+6, pageW-2*inset-12, pageH-2*inset-12, "D")
}

// drawWatermark draws the rotated low-opacity organization name
// across the page center.
func (r *PDFRenderer) drawWatermark(pdf *gofpdf.Fpdf, pageW, pageH float64) {
	pdf.SetAlpha(r.options.WatermarkAlpha, "Normal")
	pdf.SetFont(r.options.FontFamily, "B", 64)
	pdf.SetTextColor(17, 24, 39)
	pdf.TransformBegin()
	pdf.TransformRotate(40, pageW/2, pageH/2)
	pdf.SetXY(0, pageH/2-32)
	pdf.CellFormat(pageW, 64, strings.ToUpper(r.options.OrgName), "", 0, "C", false, 0, "")
	pdf.TransformEnd()
	pdf.SetAlpha(1, "Normal")
}

// drawMasthead draws the centered header, subheader, and lane badge.
// Returns the cursor position where the field rows begin.
func (r *PDFRenderer) drawMasthead(pdf *gofpdf.Fpdf, cert *VerifiedCertificate, contentLeft, contentWidth float64) float64 {
	y := 104.0

	pdf.SetFont(r.options.FontFamily, "B", 22)
	pdf.SetTextColor(17, 24, 39)
	pdf.SetXY(contentLeft, y)
	pdf.CellFormat(contentWidth, 26, "Certificate of Verification", "", 0, "C", false, 0, "")
	y += 34

	pdf.SetFont(r.options.FontFamily, "", 11)
	pdf.SetTextColor(107, 114, 128)
	pdf.SetXY(contentLeft, y)
	pdf.CellFormat(contentWidth, 14, "Extract of the verified minute book registry", "", 0, "C", false, 0, "")
	y += 26

	badge := fmt.Sprintf("%s LANE  |  VERIFICATION: %s",
		strings.ToUpper(displayValue(cert.Lane)),
		strings.ToUpper(displayValue(cert.VerificationLevel)))
	pdf.SetFont(r.options.FontFamily, "B", 9)
	pdf.SetTextColor(r.options.AccentColor.R, r.options.AccentColor.G, r.options.AccentColor.B)
	pdf.SetXY(contentLeft, y)
	pdf.CellFormat(contentWidth, 12, badge, "", 0, "C", false, 0, "")

	return y + 44
}

// buildRows assembles the label/value sequence in display order.
func (r *PDFRenderer) buildRows(cert *VerifiedCertificate) []labelValue {
	verifiedAt := valuePlaceholder
	if !cert.VerifiedAt.IsZero() {
		verifiedAt = cert.VerifiedAt.UTC().Format("Jan 2, 2006 15:04 UTC")
	}

	return []labelValue{
		{"Entity", displayValue(cert.EntityName)},
		{"Document Title", displayValue(cert.Title)},
		{"Ledger Record", displayValue(joinIDStatus(cert.LedgerID, cert.LedgerStatus))},
		{"Verified Registry ID", displayValue(cert.VerifiedID)},
		{"Verified At", verifiedAt},
		{"Archive Location", displayValue(cert.ArchivePath)},
		{"Evidence Kind", displayValue(cert.EvidenceKind)},
		{"Minute Book", displayValue(cert.MinuteBookPath)},
		{"Content Hash", displayValue(cert.Hash)},
		{"Issued", time.Now().UTC().Format("Jan 2, 2006 15:04 UTC")},
	}
}

func displayValue(s string) string {
	if strings.TrimSpace(s) == "" {
		return valuePlaceholder
	}
	return s
}

func joinIDStatus(id, status string) string {
	switch {
	case id != "" && status != "":
		return fmt.Sprintf("%s (%s)", id, status)
	case id != "":
		return id
	default:
		return status
	}
}

// wrapText greedily packs words onto lines no wider than maxWidth,
// measured with the current font. Unbroken tokens wider than a line
// (hashes, storage paths) are split at the character level.
func wrapText(pdf *gofpdf.Fpdf, text string, maxWidth float64) []string {
	var words []string
	for _, word := range strings.Fields(text) {
		if pdf.GetStringWidth(word) <= maxWidth {
			words = append(words, word)
			continue
		}
		chunk := ""
		for _, r := range word {
			candidate := chunk + string(r)
			if chunk != "" && pdf.GetStringWidth(candidate) > maxWidth {
				words = append(words, chunk)
				chunk = string(r)
			} else {
				chunk = candidate
			}
		}
		if chunk != "" {
			words = append(words, chunk)
		}
	}
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
