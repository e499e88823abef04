package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

const utf8Family = "clinicfont"

// PDFBuilder assembles A4 documents with fpdf. Without a TrueType font
// carrying Japanese glyphs it typesets English with the core fonts.
type PDFBuilder struct {
	font []byte
}

// NewPDFBuilder loads the font at fontPath; an empty path selects the
// English fallback.
func NewPDFBuilder(fontPath string) (*PDFBuilder, error) {
	if fontPath == "" {
		return &PDFBuilder{}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading pdf font: %w", err)
	}
	return &PDFBuilder{font: data}, nil
}

func (b *PDFBuilder) Lang() clinicdiag.Lang {
	if b.font != nil {
		return clinicdiag.LangJA
	}
	return clinicdiag.LangEN
}

type typesetter struct {
	*fpdf.Fpdf
	utf8 bool
	tr   func(string) string
}

func (b *PDFBuilder) newDoc(rep Report) *typesetter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetCatalogSort(true)
	if !rep.CreatedAt.IsZero() {
		pdf.SetCreationDate(rep.CreatedAt)
	}

	ts := &typesetter{Fpdf: pdf, tr: func(s string) string { return s }}
	if b.font != nil {
		pdf.AddUTF8FontFromBytes(utf8Family, "", b.font)
		ts.utf8 = true
	} else {
		ts.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.SetTitle(rep.Title, true)
	pdf.SetCreator("clinicdiag", false)

	footer := rep.Footer
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		ts.font(false, 9)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 5, ts.tr(footer), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return ts
}

func (t *typesetter) font(bold bool, size float64) {
	if t.utf8 {
		t.SetFont(utf8Family, "", size)
		return
	}
	style := ""
	if bold {
		style = "B"
	}
	t.SetFont("Helvetica", style, size)
}

func (t *typesetter) heading(s string) {
	t.Ln(4)
	t.font(true, 14)
	t.SetTextColor(31, 41, 55)
	t.CellFormat(0, 9, t.tr(s), "B", 1, "L", false, 0, "")
	t.Ln(2)
}

func (t *typesetter) line(s string) {
	t.font(false, 11)
	t.SetTextColor(17, 24, 39)
	t.MultiCell(0, 6, t.tr(s), "", "L", false)
}

var statusRGB = map[clinicdiag.Status][3]int{
	clinicdiag.StatusStable:           {5, 150, 105},
	clinicdiag.StatusNeedsImprovement: {217, 119, 6},
	clinicdiag.StatusAtRisk:           {225, 29, 72},
}

func (b *PDFBuilder) Structured(rep Report, supplement []byte) ([]byte, error) {
	t := b.newDoc(rep)
	t.AddPage()

	t.font(true, 20)
	t.SetTextColor(17, 24, 39)
	t.CellFormat(0, 12, t.tr(rep.Title), "", 1, "C", false, 0, "")

	t.heading(rep.ClinicHeading)
	for _, l := range rep.ClinicLines {
		t.line(l)
	}

	t.heading(rep.SummaryHeading)
	rgb := statusRGB[rep.Status]
	t.font(true, 13)
	t.SetTextColor(rgb[0], rgb[1], rgb[2])
	t.CellFormat(0, 8, t.tr(rep.StatusLine), "", 1, "L", false, 0, "")
	t.line(rep.Headline)
	t.line(rep.TotalLine)

	t.heading(rep.ScoresHeading)
	widths := [3]float64{85, 35, 50}
	t.font(true, 11)
	t.SetFillColor(73, 95, 233)
	t.SetTextColor(255, 255, 255)
	t.SetDrawColor(209, 213, 219)
	for i, c := range rep.Columns {
		t.CellFormat(widths[i], 9, t.tr(c), "1", 0, "C", true, 0, "")
	}
	t.Ln(-1)
	t.font(false, 11)
	t.SetTextColor(17, 24, 39)
	for _, r := range rep.Rows {
		t.CellFormat(widths[0], 8, t.tr(r.Label), "1", 0, "L", false, 0, "")
		t.CellFormat(widths[1], 8, r.ScoreText(), "1", 0, "C", false, 0, "")
		t.CellFormat(widths[2], 8, t.tr(r.Evaluation), "1", 1, "C", false, 0, "")
	}

	t.heading(rep.AdviceHeading)
	for _, a := range rep.Advice {
		t.line(a)
		t.Ln(2)
	}

	if len(rep.ProfileLines) > 0 {
		t.heading(rep.ProfileHeading)
		t.font(false, 10)
		t.SetTextColor(75, 85, 99)
		for _, l := range rep.ProfileLines {
			t.CellFormat(0, 5, t.tr(l), "", 1, "L", false, 0, "")
		}
	}

	if supplement != nil {
		t.AddPage()
		if err := t.placeImage("supplement", supplement); err != nil {
			return nil, err
		}
	}
	return t.output()
}

func (b *PDFBuilder) FromImage(rep Report, png []byte) ([]byte, error) {
	t := b.newDoc(rep)
	t.AddPage()
	if err := t.placeImage("capture", png); err != nil {
		return nil, err
	}
	return t.output()
}

// placeImage draws png at full content width, continuing on new pages when
// it is taller than one page.
func (t *typesetter) placeImage(name string, png []byte) error {
	info := t.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	if t.Err() {
		return t.Error()
	}
	if info == nil || info.Width() == 0 {
		return fmt.Errorf("image %s has no size", name)
	}

	pageW, pageH := t.GetPageSize()
	left, top, right, _ := t.GetMargins()
	w := pageW - left - right
	h := w * info.Height() / info.Width()
	usable := pageH - top - 25

	for offset := 0.0; offset < h; offset += usable {
		if offset > 0 {
			t.AddPage()
		}
		t.ClipRect(left, top, w, usable, false)
		t.ImageOptions(name, left, top-offset, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		t.ClipEnd()
	}
	return nil
}

func (t *typesetter) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
