// Package contract lays out the deposit contract: legal text, the price table,
// the photo pages and the signature block.
package contract

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/samber/lo"

	ierr "depotapi/internal/errors"
	"depotapi/internal/imaging"
	"depotapi/internal/model"
	"depotapi/internal/pricing"
)

// Page geometry, in points. The origin of the layout cursor is the top-left corner.
const (
	PageWidth    = 595.28
	PageHeight   = 841.89
	Margin       = 50.0
	TopMargin    = 56.0
	BottomMargin = 56.0
	ContentWidth = PageWidth - 2*Margin

	Leading      = 14.0
	BodyFontSize = 10.0

	MaxPhotoWidth  = 400.0
	MaxPhotoHeight = 320.0
	PhotoPadding   = 36.0

	TableGap       = 20.0
	TableRowHeight = 18.0
	CellLeading    = 12.0
	CellPadding    = 3.0

	SignatureWidth      = 200.0
	SignatureZoneHeight = 100.0
	signatureBlockTop   = PageHeight - BottomMargin - SignatureZoneHeight - 34
)

// Column widths of the price table; they add up to ContentWidth.
var columnWidths = [len(tableHeader)]float64{145, 75, 45, 77, 76, 77.28}

const fontFamily = "Helvetica"

// Photo is a normalized JPEG ready to be placed on a photo page.
type Photo struct {
	Work  int
	Index int
	Title string
	JPEG  []byte
}

// Placement records where a photo was drawn. Coordinates are in points from the top-left corner.
type Placement struct {
	Page  int
	Work  int
	Photo int
	X, Y  float64
	W, H  float64
}

// Result is a rendered contract.
type Result struct {
	PDF        []byte
	Pages      int
	Placements []Placement
	// TablePages lists the pages on which the price table header was drawn.
	TablePages []int
}

// Options configure an Engine.
type Options struct {
	GalleryName string
	City        string
	// GallerySignature is the gallery manager's signature image (JPEG, PNG, GIF or WebP). Optional.
	GallerySignature []byte
}

// Engine renders deposit contracts. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	galleryName string
	city        string
	signature   []byte
	sigW, sigH  int
}

// NewEngine decodes the gallery signature once and returns an Engine.
func NewEngine(opts Options) (*Engine, error) {
	e := &Engine{galleryName: opts.GalleryName, city: opts.City}
	if len(opts.GallerySignature) == 0 {
		return e, nil
	}

	img, err := imaging.Decode(opts.GallerySignature)
	if err != nil {
		return nil, err
	}
	b, bounds, err := imaging.ToJPEG(img, 2*int(SignatureWidth), 2*int(SignatureZoneHeight))
	if err != nil {
		return nil, err
	}
	e.signature, e.sigW, e.sigH = b, bounds.Dx(), bounds.Dy()
	return e, nil
}

// ArtistSignatureZone returns where the artist signs on the last page, in PDF user space
// (origin at the bottom-left corner): the lower-left corner and the width of the signature.
func ArtistSignatureZone() (x, y, width float64) {
	return Margin, BottomMargin, SignatureWidth
}

// Render lays out the contract of sub dated date. Photos are placed in the order given;
// a photo whose bytes are not a decodable JPEG is skipped.
func (e *Engine) Render(sub model.Submission, date string, photos []Photo) (*Result, error) {
	if sub.ArtistName == "" || len(sub.Works) == 0 {
		return nil, ierr.NewError("submission without artist or works").
			WithHint("le dépôt doit comporter un artiste et au moins une œuvre").
			Mark(ierr.ErrValidation)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	l := &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	l.setup(e.galleryName, sub.ArtistName, date)

	l.newPage()
	l.title()
	for _, c := range legalText(e.galleryName, sub) {
		l.clause(c)
	}
	l.priceTable(sub.Works)
	l.photoPages(photos)
	l.signatureBlock(e, date)

	if err := pdf.Error(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("échec de la génération du contrat").
			Mark(ierr.ErrSystem)
	}
	pages := pdf.PageNo()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, ierr.WithError(err).
			WithHint("échec de la génération du contrat").
			Mark(ierr.ErrSystem)
	}
	return &Result{PDF: buf.Bytes(), Pages: pages, Placements: l.placements, TablePages: l.tablePages}, nil
}

// layout is the cursor state of a single Render call.
type layout struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	y          float64
	placements []Placement
	tablePages []int
}

func (l *layout) setup(gallery, artist, date string) {
	pdf := l.pdf
	pdf.SetMargins(Margin, TopMargin, Margin)
	pdf.SetAutoPageBreak(false, BottomMargin)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)

	// Documents are reproducible: the timestamps come from the contract date.
	stamp, err := time.Parse(time.DateOnly, date)
	if err != nil {
		stamp = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)

	pdf.SetTitle("Contrat de dépôt - "+artist, true)
	pdf.SetAuthor(gallery, true)
	pdf.SetCreator("depotapi", false)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.SetXY(Margin, PageHeight-BottomMargin/2)
		pdf.CellFormat(ContentWidth, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
}

func (l *layout) newPage() {
	l.pdf.AddPage()
	l.y = TopMargin
}

func (l *layout) remaining() float64 {
	return PageHeight - BottomMargin - l.y
}

// ensure starts a new page when less than h points are left.
func (l *layout) ensure(h float64) {
	if l.remaining() < h {
		l.newPage()
	}
}

func (l *layout) line(text, style string, size float64, align string) {
	l.ensure(Leading)
	l.pdf.SetFont(fontFamily, style, size)
	l.pdf.SetXY(Margin, l.y)
	l.pdf.CellFormat(ContentWidth, Leading, text, "", 0, align, false, 0, "")
	l.y += Leading
}

func (l *layout) title() {
	l.pdf.SetFont(fontFamily, "B", 16)
	l.pdf.SetXY(Margin, l.y)
	l.pdf.CellFormat(ContentWidth, 24, l.tr(contractTitle), "", 0, "C", false, 0, "")
	l.y += 24 + Leading
}

func (l *layout) clause(c clause) {
	if c.Heading != "" {
		l.y += Leading / 2
		l.line(l.tr(c.Heading), "B", BodyFontSize, "L")
	}
	l.pdf.SetFont(fontFamily, "", BodyFontSize)
	for _, text := range wrapText(l.pdf, l.tr(c.Body), ContentWidth) {
		l.line(text, "", BodyFontSize, "L")
	}
}

func (l *layout) tableHeader() {
	pdf := l.pdf
	pdf.SetFont(fontFamily, "B", BodyFontSize)
	pdf.SetFillColor(230, 230, 230)
	x := Margin
	for i, h := range tableHeader {
		pdf.SetXY(x, l.y)
		pdf.CellFormat(columnWidths[i], TableRowHeight, l.tr(h), "1", 0, "C", true, 0, "")
		x += columnWidths[i]
	}
	l.y += TableRowHeight
	l.tablePages = append(l.tablePages, pdf.PageNo())
}

// priceTable draws one bordered row per work. Cells wrap and the row grows to its tallest cell.
// The header is repeated on every page the table spans.
func (l *layout) priceTable(works []model.Work) {
	l.y += TableGap
	l.ensure(2 * TableRowHeight)
	l.tableHeader()

	l.pdf.SetFont(fontFamily, "", BodyFontSize)
	for _, w := range works {
		cells := l.tableRow([len(tableHeader)]string{
			w.Title, w.Dimensions, w.Year,
			pricing.Format(w.ArtistPrice), pricing.Format(w.Commission), pricing.Format(w.SalePrice),
		})
		h := rowHeight(cells)
		if l.remaining() < h {
			l.newPage()
			l.tableHeader()
			l.pdf.SetFont(fontFamily, "", BodyFontSize)
		}

		x := Margin
		for i, lines := range cells {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			l.pdf.Rect(x, l.y, columnWidths[i], h, "D")
			for k, text := range lines {
				l.pdf.SetXY(x, l.y+CellPadding+float64(k)*CellLeading)
				l.pdf.CellFormat(columnWidths[i], CellLeading, text, "", 0, align, false, 0, "")
			}
			x += columnWidths[i]
		}
		l.y += h
	}
}

// tableRow wraps every cell to its column width in the current font.
func (l *layout) tableRow(cells [len(tableHeader)]string) [len(tableHeader)][]string {
	var out [len(tableHeader)][]string
	for i, text := range cells {
		out[i] = wrapText(l.pdf, l.tr(text), columnWidths[i]-2*CellPadding)
	}
	return out
}

func rowHeight(cells [len(tableHeader)][]string) float64 {
	n := 1
	for _, lines := range cells {
		n = max(n, len(lines))
	}
	return max(TableRowHeight, float64(n)*CellLeading+2*CellPadding)
}

// photoPages places every decodable photo centered under the previous one, starting on a fresh page.
func (l *layout) photoPages(photos []Photo) {
	valid := lo.Filter(photos, func(p Photo, _ int) bool {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(p.JPEG))
		return err == nil && cfg.Width > 0 && cfg.Height > 0
	})
	if len(valid) == 0 {
		return
	}

	l.newPage()
	for _, p := range valid {
		cfg, _ := jpeg.DecodeConfig(bytes.NewReader(p.JPEG))
		w, h := imaging.Fit(float64(cfg.Width), float64(cfg.Height), MaxPhotoWidth, MaxPhotoHeight)

		l.ensure(MaxPhotoHeight)
		name := fmt.Sprintf("work%d-photo%d", p.Work, p.Index)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		l.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(p.JPEG))

		x := (PageWidth - w) / 2
		l.pdf.ImageOptions(name, x, l.y, w, h, false, opts, 0, "")
		l.placements = append(l.placements, Placement{
			Page: l.pdf.PageNo(), Work: p.Work, Photo: p.Index,
			X: x, Y: l.y, W: w, H: h,
		})

		l.pdf.SetFont(fontFamily, "B", BodyFontSize)
		l.pdf.SetXY(Margin, l.y+h+4)
		l.pdf.CellFormat(ContentWidth, Leading, truncate(l.pdf, l.tr(p.Title), ContentWidth), "", 0, "C", false, 0, "")
		l.y += h + PhotoPadding
	}
}

// signatureBlock anchors the place and date, the two labels, the gallery signature and
// the empty artist zone to the bottom of the last page, adding a page if the cursor is past it.
func (l *layout) signatureBlock(e *Engine, date string) {
	if l.y > signatureBlockTop-Leading {
		l.newPage()
	}
	pdf := l.pdf
	top := signatureBlockTop
	right := PageWidth - Margin - SignatureWidth

	pdf.SetFont(fontFamily, "", BodyFontSize)
	pdf.SetXY(Margin, top)
	pdf.CellFormat(ContentWidth, Leading, l.tr(fmt.Sprintf("Fait à %s, le %s", e.city, date)), "", 0, "L", false, 0, "")

	pdf.SetFont(fontFamily, "B", BodyFontSize)
	pdf.SetXY(Margin, top+18)
	pdf.CellFormat(SignatureWidth, Leading, l.tr("L'Artiste"), "", 0, "L", false, 0, "")
	pdf.SetXY(right, top+18)
	pdf.CellFormat(SignatureWidth, Leading, l.tr("La Galerie"), "", 0, "L", false, 0, "")

	if len(e.signature) > 0 {
		w, h := imaging.Fit(float64(e.sigW), float64(e.sigH), SignatureWidth, SignatureZoneHeight)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader("gallery-signature", opts, bytes.NewReader(e.signature))
		pdf.ImageOptions("gallery-signature", right, top+34, w, h, false, opts, 0, "")
	}
	l.y = PageHeight - BottomMargin
}
