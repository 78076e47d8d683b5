package service

import (
	"bytes"
	"context"
	"io"
	"strings"

	ierr "depotapi/internal/errors"
	"depotapi/internal/logger"
	"depotapi/internal/model"
	"depotapi/internal/signature"
	"depotapi/internal/storage"
)

// maxContractBytes bounds the contract downloaded for signing.
var maxContractBytes int64 = 64 << 20

// SignInput is a signing request from the signing view.
type SignInput struct {
	ArtistName string `json:"artist_name" form:"artist_name" validate:"required,max=200"`
	DocumentID string `json:"document_id" form:"document_id" validate:"required"`
	// Signature is a base-64 data URL of the drawn signature.
	Signature string `json:"signature" form:"signature" validate:"required"`
}

// SigningService produces signed copies of contracts.
type SigningService interface {
	// Sign stamps the signature on the last page of the stored contract and uploads the result
	// as a new file. The original contract is never modified.
	Sign(ctx context.Context, in SignInput) (*model.Document, error)
}

// SignatureStamper merges a decoded signature into a document.
type SignatureStamper interface {
	Apply(doc io.ReadSeeker, sig *signature.Image, w io.Writer) error
}

type signingService struct {
	store   storage.FileStore
	stamper SignatureStamper
	opts    Options
	log     *logger.Logger
}

// NewSigningService constructs a new SigningService.
func NewSigningService(store storage.FileStore, stamper SignatureStamper, opts Options, log *logger.Logger) SigningService {
	return &signingService{store: store, stamper: stamper, opts: opts, log: log}
}

var signValidator = newValidator()

func (s *signingService) Sign(ctx context.Context, in SignInput) (*model.Document, error) {
	in.ArtistName = strings.TrimSpace(in.ArtistName)
	in.DocumentID = strings.TrimSpace(in.DocumentID)
	if err := signValidator.Struct(in); err != nil {
		return nil, validationErr(err)
	}

	// The signature is decoded before anything is fetched so that a bad drawing costs no I/O.
	sig, err := signature.Decode(in.Signature)
	if err != nil {
		return nil, err
	}

	doc, err := s.download(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := s.stamper.Apply(bytes.NewReader(doc), sig, &out); err != nil {
		return nil, err
	}

	date, now := s.opts.today()
	name := SignedContractName(in.ArtistName, date)
	stored, err := s.store.Upload(ctx, s.opts.SignedContractsFolderID, name, bytes.NewReader(out.Bytes()), storage.PutObjectOptions{
		Size:        int64(out.Len()),
		ContentType: storage.ContentTypeFor(name),
		Metadata:    map[string]string{"source-document": in.DocumentID},
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("signed contract stored", "artist", in.ArtistName, "source_id", in.DocumentID, "file_id", stored.ID)

	return &model.Document{
		ID:      stored.ID,
		Name:    name,
		Link:    stored.Link,
		Size:    int64(out.Len()),
		Date:    date,
		Signed:  true,
		Created: now,
	}, nil
}

func (s *signingService) download(ctx context.Context, id string) ([]byte, error) {
	rc, err := s.store.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxContractBytes+1))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("impossible de récupérer le contrat").
			Mark(ierr.ErrExternalService)
	}
	if int64(len(b)) > maxContractBytes {
		return nil, ierr.NewErrorf("contract %s exceeds %d bytes", id, maxContractBytes).
			WithHintf("le contrat dépasse la taille maximale de %d Mo", maxContractBytes>>20).
			Mark(ierr.ErrAssetDecode)
	}
	return b, nil
}
