// Package imaging decodes submitted rasters and normalizes them for PDF embedding.
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"
	"unicode"

	"github.com/h2non/filetype"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	ierr "depotapi/internal/errors"
)

// JPEGQuality is used for every re-encoded raster.
const JPEGQuality = 88

// MaxPixels bounds the declared width*height of an image accepted by Decode.
const MaxPixels = 40_000_000

// FixPadding appends '=' until len(s) is a multiple of 4.
// Browsers sometimes drop the trailing padding of canvas exports.
func FixPadding(s string) string {
	if r := len(s) % 4; r != 0 {
		return s + strings.Repeat("=", 4-r)
	}
	return s
}

// DecodeDataURL returns the payload of a base-64 data URL such as
// "data:image/png;base64,iVBOR...". A bare base-64 string is accepted too.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return nil, ierr.NewError("data url without payload").
				WithHint("la signature est illisible").
				Mark(ierr.ErrAssetDecode)
		}
		if !strings.HasSuffix(s[:i], ";base64") {
			return nil, ierr.NewErrorf("data url is not base64 encoded: %q", s[:i]).
				WithHint("la signature est illisible").
				Mark(ierr.ErrAssetDecode)
		}
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, ierr.NewError("empty data url payload").
			WithHint("la signature est vide").
			Mark(ierr.ErrAssetDecode)
	}

	b, err := base64.StdEncoding.DecodeString(FixPadding(s))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("la signature est illisible").
			Mark(ierr.ErrAssetDecode)
	}
	return b, nil
}

// Decode sniffs b and decodes it as a raster image (JPEG, PNG, GIF or WebP).
// The header is checked first so that images over MaxPixels are never allocated.
func Decode(b []byte) (image.Image, error) {
	if !filetype.IsImage(b) {
		return nil, ierr.NewError("content is not an image").
			WithHint("le fichier n'est pas une image").
			Mark(ierr.ErrAssetDecode)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("l'image est corrompue").
			Mark(ierr.ErrAssetDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, ierr.NewErrorf("image is %dx%d pixels", cfg.Width, cfg.Height).
			WithHint("l'image est trop grande").
			Mark(ierr.ErrAssetDecode)
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("l'image est corrompue").
			Mark(ierr.ErrAssetDecode)
	}
	if r := img.Bounds(); r.Dx() == 0 || r.Dy() == 0 {
		return nil, ierr.NewError("image has no pixels").
			WithHint("l'image est vide").
			Mark(ierr.ErrAssetDecode)
	}
	return img, nil
}

// Flatten composites img over an opaque white background using its alpha channel as the mask.
// Every pixel of the result has alpha 0xff.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Fit scales (w, h) to fit inside (maxW, maxH) keeping the aspect ratio.
// The larger side is bound first; the other side is re-checked and rescaled if still over.
func Fit(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	var nw, nh float64
	if w >= h {
		nw, nh = maxW, h*maxW/w
		if nh > maxH {
			nw, nh = w*maxH/h, maxH
		}
	} else {
		nw, nh = w*maxH/h, maxH
		if nw > maxW {
			nw, nh = maxW, h*maxW/w
		}
	}
	return nw, nh
}

// Downsample shrinks img to fit inside maxW x maxH pixels. Smaller images are returned as is.
func Downsample(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	w, h := Fit(float64(b.Dx()), float64(b.Dy()), float64(maxW), float64(maxH))
	dst := image.NewRGBA(image.Rect(0, 0, max(1, int(w)), max(1, int(h))))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// ToJPEG shrinks img to maxW x maxH pixels, flattens it and encodes it as baseline JPEG.
func ToJPEG(img image.Image, maxW, maxH int) ([]byte, image.Rectangle, error) {
	out := Flatten(Downsample(img, maxW, maxH))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, image.Rectangle{}, ierr.WithError(err).
			WithHint("échec de l'encodage de l'image").
			Mark(ierr.ErrSystem)
	}
	return buf.Bytes(), out.Bounds(), nil
}
