package contract

import (
	"context"
	"io"

	"depotapi/internal/imaging"
	"depotapi/internal/model"
)

// maxPhotoBytes bounds a single downloaded photo.
const maxPhotoBytes = 64 << 20

// PhotoSource downloads stored photos by id.
type PhotoSource interface {
	Download(ctx context.Context, id string) (io.ReadCloser, error)
}

// Skipped describes a photo left out of the contract.
type Skipped struct {
	Work  int
	Photo int
	ID    string
	Err   error
}

// FetchPhotos downloads the photos of works in work order then photo order and normalizes them
// to JPEG at twice their largest printed size. A photo that cannot be fetched or decoded is
// reported in skipped and left out; it never fails the whole call.
func FetchPhotos(ctx context.Context, src PhotoSource, works []model.Work) (photos []Photo, skipped []Skipped) {
	for wi, w := range works {
		for pi, ref := range w.Photos {
			b, err := fetch(ctx, src, ref.ID)
			if err == nil {
				b, err = normalize(b)
			}
			if err != nil {
				skipped = append(skipped, Skipped{Work: wi, Photo: pi, ID: ref.ID, Err: err})
				continue
			}
			photos = append(photos, Photo{Work: wi, Index: pi, Title: w.Title, JPEG: b})
		}
	}
	return photos, skipped
}

func fetch(ctx context.Context, src PhotoSource, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := src.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxPhotoBytes))
}

func normalize(b []byte) ([]byte, error) {
	img, err := imaging.Decode(b)
	if err != nil {
		return nil, err
	}
	out, _, err := imaging.ToJPEG(img, 2*int(MaxPhotoWidth), 2*int(MaxPhotoHeight))
	return out, err
}
