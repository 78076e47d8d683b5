package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"depotapi/internal/contract"
	ierr "depotapi/internal/errors"
	"depotapi/internal/logger"
	domain "depotapi/internal/model"
	"depotapi/internal/signature"
	"depotapi/internal/storage"
	storeMocks "depotapi/internal/storage/mocks"
)

func signatureURL(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 400, 120))
	for x := 20; x < 380; x++ {
		img.SetNRGBA(x, 60, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func contractPDF(t *testing.T) []byte {
	t.Helper()
	sub, err := BuildSubmission(validInput(t))
	require.NoError(t, err)
	e, err := contract.NewEngine(contract.Options{GalleryName: "Galerie", City: "Pointe-à-Pitre"})
	require.NoError(t, err)
	res, err := e.Render(sub, "2026-10-17", nil)
	require.NoError(t, err)
	return res.PDF
}

func newSigning(store storage.FileStore, opts Options) SigningService {
	x, y, w := contract.ArtistSignatureZone()
	return NewSigningService(store, signature.New(signature.Position{X: x, Y: y, Width: w}), opts, logger.NewNop())
}

func TestSigningService_Sign(t *testing.T) {
	ctx := context.Background()
	original := contractPDF(t)
	mStore := new(storeMocks.MockGateway)
	mStore.On("Download", ctx, "contract-1").Return(io.NopCloser(bytes.NewReader(original)), nil).Once()

	var uploaded []byte
	mStore.On("Upload", ctx, "signed", "Jeanne Dupont_contract_signed_2026-10-17.pdf", mock.Anything,
		mock.MatchedBy(func(opt storage.PutObjectOptions) bool { return opt.ContentType == "application/pdf" })).
		Return(func(_ context.Context, _, name string, r io.Reader, _ storage.PutObjectOptions) storage.StoredFile {
			uploaded, _ = io.ReadAll(r)
			return storage.StoredFile{ID: "signed-1", Name: name, Link: "https://files/signed-1"}
		}, nil).Once()

	doc, err := newSigning(mStore, testOptions(t)).Sign(ctx, SignInput{
		ArtistName: "Jeanne Dupont",
		DocumentID: "contract-1",
		Signature:  signatureURL(t),
	})
	require.NoError(t, err)

	assert.Equal(t, &domain.Document{
		ID:      "signed-1",
		Name:    "Jeanne Dupont_contract_signed_2026-10-17.pdf",
		Link:    "https://files/signed-1",
		Size:    int64(len(uploaded)),
		Date:    "2026-10-17",
		Signed:  true,
		Created: doc.Created,
	}, doc)
	assert.NotEqual(t, original, uploaded)

	conf := model.NewDefaultConfiguration()
	before, err := api.PageCount(bytes.NewReader(original), conf)
	require.NoError(t, err)
	after, err := api.PageCount(bytes.NewReader(uploaded), conf)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	mStore.AssertExpectations(t)
}

func TestSigningService_Sign_Failures(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		in         SignInput
		setupMocks func(m *storeMocks.MockGateway)
		check      func(error) bool
	}{
		{
			name:  "missing document id",
			in:    SignInput{ArtistName: "Jeanne", Signature: "data:image/png;base64,AAAA"},
			check: ierr.IsValidation,
		},
		{
			name:  "undecodable signature",
			in:    SignInput{ArtistName: "Jeanne", DocumentID: "contract-1", Signature: "data:image/png;base64,AAAA"},
			check: ierr.IsAssetDecode,
		},
		{
			name: "document fetch failure",
			in:   SignInput{ArtistName: "Jeanne", DocumentID: "contract-1"},
			setupMocks: func(m *storeMocks.MockGateway) {
				m.On("Download", ctx, "contract-1").
					Return(nil, ierr.WithError(errors.New("boom")).Mark(ierr.ErrExternalService))
			},
			check: ierr.IsExternalService,
		},
		{
			name: "document is not a pdf",
			in:   SignInput{ArtistName: "Jeanne", DocumentID: "contract-1"},
			setupMocks: func(m *storeMocks.MockGateway) {
				m.On("Download", ctx, "contract-1").Return(io.NopCloser(bytes.NewReader([]byte("plain text"))), nil)
			},
			check: ierr.IsAssetDecode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockGateway)
			if tt.setupMocks != nil {
				tt.setupMocks(mStore)
			}
			if tt.in.Signature == "" {
				tt.in.Signature = signatureURL(t)
			}

			doc, err := newSigning(mStore, testOptions(t)).Sign(ctx, tt.in)

			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			mStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			if tt.setupMocks == nil {
				mStore.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSigningService_Sign_ContractTooLarge(t *testing.T) {
	ctx := context.Background()
	limit := maxContractBytes
	maxContractBytes = 1 << 20
	t.Cleanup(func() { maxContractBytes = limit })

	mStore := new(storeMocks.MockGateway)
	mStore.On("Download", ctx, "contract-1").
		Return(io.NopCloser(bytes.NewReader(bytes.Repeat([]byte{'%'}, 1<<20+1))), nil).Once()

	doc, err := newSigning(mStore, testOptions(t)).Sign(ctx, SignInput{
		ArtistName: "Jeanne",
		DocumentID: "contract-1",
		Signature:  signatureURL(t),
	})

	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, ierr.IsAssetDecode(err))
	assert.Equal(t, "le contrat dépasse la taille maximale de 1 Mo", ierr.DisplayMessage(err))
	mStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mStore.AssertExpectations(t)
}

func TestSigningService_Sign_ContractAtLimit(t *testing.T) {
	ctx := context.Background()
	original := contractPDF(t)
	limit := maxContractBytes
	maxContractBytes = int64(len(original))
	t.Cleanup(func() { maxContractBytes = limit })

	mStore := new(storeMocks.MockGateway)
	mStore.On("Download", ctx, "contract-1").Return(io.NopCloser(bytes.NewReader(original)), nil).Once()
	mStore.On("Upload", ctx, "signed", mock.Anything, mock.Anything, mock.Anything).
		Return(storage.StoredFile{ID: "signed-1"}, nil).Once()

	_, err := newSigning(mStore, testOptions(t)).Sign(ctx, SignInput{
		ArtistName: "Jeanne",
		DocumentID: "contract-1",
		Signature:  signatureURL(t),
	})

	require.NoError(t, err)
	mStore.AssertExpectations(t)
}
