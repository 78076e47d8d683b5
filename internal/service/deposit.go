// Package service holds the deposit and signing use cases. Both run synchronously within one
// request and share no mutable state.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"depotapi/internal/contract"
	ierr "depotapi/internal/errors"
	"depotapi/internal/ledger"
	"depotapi/internal/logger"
	"depotapi/internal/model"
	"depotapi/internal/pricing"
	"depotapi/internal/storage"
)

// PhotoUpload is one photo file as received from the form.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// WorkInput is a work as entered on the form. Price is the raw text typed by the artist.
type WorkInput struct {
	Title      string
	Dimensions string
	Year       string
	Price      string
	Photos     []PhotoUpload
}

// DepositInput is a raw submission.
type DepositInput struct {
	ArtistName     string
	Email          string
	RegistrationID string
	Address        string
	Works          []WorkInput
}

// DepositResult references the generated contract.
type DepositResult struct {
	Contract      model.Document     `json:"contract"`
	Submission    model.Submission   `json:"submission"`
	SkippedPhotos []contract.Skipped `json:"-"`
}

// DepositService records a submission and produces its contract.
type DepositService interface {
	// Submit validates in, uploads the photos, appends the ledger rows, renders the contract
	// and uploads it. Nothing is written when validation fails; a storage failure after the
	// first upload aborts without removing what was already stored.
	Submit(ctx context.Context, in DepositInput) (*DepositResult, error)
}

// ContractRenderer lays out a contract document.
type ContractRenderer interface {
	Render(sub model.Submission, date string, photos []contract.Photo) (*contract.Result, error)
}

type depositService struct {
	store    storage.Gateway
	renderer ContractRenderer
	opts     Options
	log      *logger.Logger
}

// NewDepositService constructs a new DepositService.
func NewDepositService(store storage.Gateway, renderer ContractRenderer, opts Options, log *logger.Logger) DepositService {
	return &depositService{store: store, renderer: renderer, opts: opts, log: log}
}

// BuildSubmission parses prices and validates every field of in. It performs no I/O.
func BuildSubmission(in DepositInput) (model.Submission, error) {
	sub := model.Submission{
		ArtistName:     strings.TrimSpace(in.ArtistName),
		Email:          strings.TrimSpace(in.Email),
		RegistrationID: strings.TrimSpace(in.RegistrationID),
		Address:        strings.TrimSpace(in.Address),
		Works:          make([]model.Work, 0, len(in.Works)),
	}
	for i, w := range in.Works {
		if len(w.Photos) > model.MaxPhotosPerWork {
			return model.Submission{}, ierr.NewErrorf("work %d has %d photos", i+1, len(w.Photos)).
				WithHintf("l'œuvre %d comporte plus de %d photos", i+1, model.MaxPhotosPerWork).
				Mark(ierr.ErrValidation)
		}
		p, err := pricing.ParseAndCalculate(w.Price)
		if err != nil {
			return model.Submission{}, ierr.WithError(err).
				WithHintf("vérifiez le prix de l'œuvre %d", i+1).
				Mark(ierr.ErrInvalidPrice)
		}
		sub.Works = append(sub.Works, model.Work{
			Title:       strings.TrimSpace(w.Title),
			Dimensions:  strings.TrimSpace(w.Dimensions),
			Year:        strings.TrimSpace(w.Year),
			ArtistPrice: p.Artist,
			Commission:  p.Commission,
			SalePrice:   p.Sale,
		})
	}
	if err := submissionValidator.Struct(sub); err != nil {
		return model.Submission{}, validationErr(err)
	}
	return sub, nil
}

var submissionValidator = newValidator()

func (s *depositService) Submit(ctx context.Context, in DepositInput) (*DepositResult, error) {
	sub, err := BuildSubmission(in)
	if err != nil {
		return nil, err
	}
	date, now := s.opts.today()
	log := s.log.With("artist", sub.ArtistName, "date", date)

	artistFolder, err := s.store.CreateFolder(ctx, sub.ArtistName, s.opts.PhotosFolderID)
	if err != nil {
		return nil, err
	}
	for i := range sub.Works {
		refs, err := s.uploadPhotos(ctx, artistFolder, sub.Works[i].Title, in.Works[i].Photos)
		if err != nil {
			return nil, err
		}
		sub.Works[i].Photos = refs
	}

	rows := ledger.BuildRows(sub, date)
	if err := s.store.AppendRows(ctx, s.opts.LedgerID, s.opts.LedgerRange, rows); err != nil {
		return nil, err
	}
	log.Infow("ledger rows appended", "rows", len(rows))

	photos, skipped := contract.FetchPhotos(ctx, s.store, sub.Works)
	for _, sk := range skipped {
		log.Warnw("photo left out of contract", "work", sk.Work+1, "photo", sk.Photo+1, "file_id", sk.ID, "error", sk.Err)
	}

	res, err := s.renderer.Render(sub, date, photos)
	if err != nil {
		return nil, err
	}

	name := ContractName(sub.ArtistName, date)
	stored, err := s.store.Upload(ctx, s.opts.ContractsFolderID, name, bytes.NewReader(res.PDF), storage.PutObjectOptions{
		Size:        int64(len(res.PDF)),
		ContentType: storage.ContentTypeFor(name),
	})
	if err != nil {
		return nil, err
	}
	log.Infow("contract stored", "file_id", stored.ID, "pages", res.Pages, "photos", len(res.Placements))

	return &DepositResult{
		Contract: model.Document{
			ID:      stored.ID,
			Name:    name,
			Link:    stored.Link,
			Size:    int64(len(res.PDF)),
			Date:    date,
			Created: now,
		},
		Submission:    sub,
		SkippedPhotos: skipped,
	}, nil
}

// uploadPhotos creates the folder of a work and stores its photos as photo1.ext, photo2.ext, ...
func (s *depositService) uploadPhotos(ctx context.Context, artistFolder, title string, uploads []PhotoUpload) ([]model.PhotoRef, error) {
	folder, err := s.store.CreateFolder(ctx, title, artistFolder)
	if err != nil {
		return nil, err
	}
	refs := make([]model.PhotoRef, 0, len(uploads))
	for j, p := range uploads {
		name := photoName(j, p.Filename)
		stored, err := s.store.Upload(ctx, folder, name, p.Content, storage.PutObjectOptions{
			Size:        p.Size,
			ContentType: storage.ContentTypeFor(name),
			Metadata:    map[string]string{"original-filename": p.Filename},
		})
		if err != nil {
			return nil, err
		}
		refs = append(refs, model.PhotoRef{ID: stored.ID, Link: stored.Link})
	}
	return refs, nil
}

func photoName(index int, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("photo%d%s", index+1, ext)
}
