package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "depotapi/internal/errors"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURL(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

// pngHeader returns a grayscale PNG signature and IHDR chunk declaring w x h pixels, without image data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 0, 17)
	ihdr = append(ihdr, "IHDR"...)
	ihdr = binary.BigEndian.AppendUint32(ihdr, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 0, 0, 0, 0)

	b := []byte("\x89PNG\r\n\x1a\n")
	b = binary.BigEndian.AppendUint32(b, 13)
	b = append(b, ihdr...)
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(ihdr))
}

func transparentStroke(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.SetNRGBA(x, h/2, color.NRGBA{A: 0xff})
	}
	img.SetNRGBA(0, 0, color.NRGBA{A: 0x80})
	return img
}

func TestFixPadding(t *testing.T) {
	assert.Equal(t, "QQ==", FixPadding("QQ"))
	assert.Equal(t, "QUI=", FixPadding("QUI"))
	assert.Equal(t, "QUJD", FixPadding("QUJD"))
	assert.Equal(t, "", FixPadding(""))
}

func TestDecodeDataURL_RoundTrip(t *testing.T) {
	raw := pngBytes(t, transparentStroke(20, 10))

	got, err := DecodeDataURL(dataURL(raw))

	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeDataURL_MissingPadding(t *testing.T) {
	raw := []byte("hello")
	payload := strings.TrimRight(base64.StdEncoding.EncodeToString(raw), "=")
	require.Equal(t, "aGVsbG8", payload)

	got, err := DecodeDataURL("data:image/png;base64," + payload)

	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeDataURL(" aGVs\nbG8 ")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeDataURL_Errors(t *testing.T) {
	tests := map[string]string{
		"no comma":      "data:image/png;base64",
		"not base64":    "data:image/png,plain",
		"empty payload": "data:image/png;base64,",
		"garbage":       "data:image/png;base64,@@@@",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataURL(in)
			require.Error(t, err)
			assert.True(t, ierr.IsAssetDecode(err))
		})
	}
}

func TestDecode(t *testing.T) {
	img, err := Decode(pngBytes(t, transparentStroke(8, 4)))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = Decode([]byte("definitely not an image"))
	assert.True(t, ierr.IsAssetDecode(err))

	// a PNG signature followed by garbage sniffs as an image but does not decode
	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 64)...)
	_, err = Decode(corrupt)
	assert.True(t, ierr.IsAssetDecode(err))
}

func TestDecode_RejectsOversizedImages(t *testing.T) {
	_, err := Decode(pngHeader(12000, 12000))

	require.Error(t, err)
	assert.True(t, ierr.IsAssetDecode(err))
	assert.Contains(t, ierr.DisplayMessage(err), "trop grande")
}

func TestDecode_HeaderWithinLimitStillNeedsPixels(t *testing.T) {
	// the header alone passes the size check, decoding then fails on the missing IDAT
	_, err := Decode(pngHeader(100, 100))

	require.Error(t, err)
	assert.True(t, ierr.IsAssetDecode(err))
	assert.NotContains(t, ierr.DisplayMessage(err), "trop grande")
}

func TestFlatten_RemovesTransparency(t *testing.T) {
	flat := Flatten(transparentStroke(10, 10))

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			assert.Equal(t, uint8(0xff), flat.RGBAAt(x, y).A)
		}
	}
	// fully transparent pixels become white, opaque strokes stay black
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, flat.RGBAAt(3, 2))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, flat.RGBAAt(3, 5))
	// half transparent black blends to grey
	half := flat.RGBAAt(0, 0)
	assert.InDelta(t, 0x7f, int(half.R), 2)
	assert.Equal(t, half.R, half.G)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		wantW, wantH float64
	}{
		{name: "landscape bound by width", w: 800, h: 400, wantW: 400, wantH: 200},
		{name: "landscape rebound by height", w: 500, h: 450, wantW: 300 * 500 / 450.0, wantH: 300},
		{name: "portrait bound by height", w: 300, h: 600, wantW: 150, wantH: 300},
		{name: "small image scaled up", w: 40, h: 20, wantW: 400, wantH: 200},
		{name: "square", w: 1000, h: 1000, wantW: 300, wantH: 300},
		{name: "degenerate", w: 0, h: 10, wantW: 0, wantH: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.w, tt.h, 400, 300)
			assert.InDelta(t, tt.wantW, w, 1e-9)
			assert.InDelta(t, tt.wantH, h, 1e-9)
			assert.LessOrEqual(t, w, 400.0+1e-9)
			assert.LessOrEqual(t, h, 300.0+1e-9)
		})
	}
}

func TestToJPEG_DownsamplesLargeImages(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, 1600, 800))

	b, bounds, err := ToJPEG(big, 800, 600)

	require.NoError(t, err)
	assert.Equal(t, 800, bounds.Dx())
	assert.Equal(t, 400, bounds.Dy())
	decoded, err := jpeg.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, bounds.Dx(), decoded.Bounds().Dx())
}

func TestToJPEG_KeepsSmallImages(t *testing.T) {
	_, bounds, err := ToJPEG(transparentStroke(30, 20), 800, 600)

	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), bounds)
}
