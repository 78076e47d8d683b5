// Package signature stamps a hand-drawn signature onto the last page of a contract.
package signature

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	ierr "depotapi/internal/errors"
	"depotapi/internal/imaging"
)

// Position is the lower-left corner of the signature in PDF user space and its printed width.
// The height follows the aspect ratio of the drawn image.
type Position struct {
	X, Y  float64
	Width float64
}

// maxPixels bounds the raster embedded in the document.
const maxPixels = 1200

// Compositor merges signatures into existing documents without modifying them.
type Compositor struct {
	pos  Position
	conf *model.Configuration
}

// New returns a Compositor that places signatures at pos.
func New(pos Position) *Compositor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Compositor{pos: pos, conf: conf}
}

// Image is a decoded signature, flattened onto white and encoded as JPEG.
type Image struct {
	JPEG          []byte
	Width, Height int
}

// Decode reads a base-64 data URL (padding is repaired) into an opaque signature raster.
func Decode(dataURL string) (*Image, error) {
	raw, err := imaging.DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(raw)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("la signature est illisible").
			Mark(ierr.ErrAssetDecode)
	}
	b, bounds, err := imaging.ToJPEG(img, maxPixels, maxPixels)
	if err != nil {
		return nil, err
	}
	return &Image{JPEG: b, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// Apply writes to w a copy of doc with sig stamped on its last page. doc is only read.
func (c *Compositor) Apply(doc io.ReadSeeker, sig *Image, w io.Writer) error {
	pages, err := api.PageCount(doc, c.conf)
	if err != nil {
		return ierr.WithError(err).
			WithHint("le contrat n'est pas un PDF valide").
			Mark(ierr.ErrAssetDecode)
	}
	if _, err := doc.Seek(0, io.SeekStart); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	scale := c.pos.Width / float64(sig.Width)
	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:%.4f abs, rot:0, op:1", c.pos.X, c.pos.Y, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(sig.JPEG), desc, true, false, types.POINTS)
	if err != nil {
		return ierr.WithError(err).
			WithHint("la signature est illisible").
			Mark(ierr.ErrAssetDecode)
	}

	if err := api.AddWatermarks(doc, w, []string{strconv.Itoa(pages)}, wm, c.conf); err != nil {
		return ierr.WithError(err).
			WithHint("impossible d'apposer la signature").
			Mark(ierr.ErrSystem)
	}
	return nil
}
