package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"depotapi/internal/contract"
	ierr "depotapi/internal/errors"
	"depotapi/internal/logger"
	"depotapi/internal/model"
	"depotapi/internal/storage"
	storeMocks "depotapi/internal/storage/mocks"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	loc, err := time.LoadLocation("America/Guadeloupe")
	require.NoError(t, err)
	return Options{
		PhotosFolderID:          "photos-root",
		ContractsFolderID:       "contracts",
		SignedContractsFolderID: "signed",
		LedgerID:                "sheet-1",
		LedgerRange:             "Feuille1!A:N",
		Location:                loc,
		// 03:00 UTC is still the previous day in Guadeloupe.
		Now: func() time.Time { return time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC) },
	}
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// memFiles records uploads so the mock gateway can serve them back on Download.
type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memFiles) upload(_ context.Context, parent, name string, r io.Reader, _ storage.PutObjectOptions) storage.StoredFile {
	b, _ := io.ReadAll(r)
	id := parent + "/" + name
	m.mu.Lock()
	m.files[id] = b
	m.mu.Unlock()
	return storage.StoredFile{ID: id, Name: name, Link: "https://files/" + id, Size: int64(len(b))}
}

func (m *memFiles) download(_ context.Context, id string) io.ReadCloser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return io.NopCloser(bytes.NewReader(m.files[id]))
}

// spyRenderer keeps the last result of a real engine.
type spyRenderer struct {
	engine *contract.Engine
	last   *contract.Result
}

func (s *spyRenderer) Render(sub model.Submission, date string, photos []contract.Photo) (*contract.Result, error) {
	res, err := s.engine.Render(sub, date, photos)
	s.last = res
	return res, err
}

func newSpy(t *testing.T) *spyRenderer {
	t.Helper()
	e, err := contract.NewEngine(contract.Options{GalleryName: "Galerie", City: "Pointe-à-Pitre"})
	require.NoError(t, err)
	return &spyRenderer{engine: e}
}

func validInput(t *testing.T) DepositInput {
	return DepositInput{
		ArtistName:     " Jeanne Dupont ",
		Email:          "jeanne@example.com",
		RegistrationID: "123 456 789",
		Address:        "1 rue des Arts",
		Works: []WorkInput{
			{
				Title: "A", Dimensions: "50x70", Year: "2024", Price: "100",
				Photos: []PhotoUpload{
					{Filename: "front.JPG", Content: bytes.NewReader(jpegBytes(t, 64, 48))},
					{Filename: "back.jpeg", Content: bytes.NewReader(jpegBytes(t, 48, 64))},
				},
			},
			{
				Title: "B", Dimensions: "30x30", Year: "2025", Price: "50",
				Photos: []PhotoUpload{
					{Filename: "broken.jpg", Content: strings.NewReader("\xff\xd8\xff\xe0 corrupt")},
				},
			},
		},
	}
}

func TestDepositService_Submit(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockGateway)
	files := &memFiles{files: map[string][]byte{}}
	spy := newSpy(t)

	mStore.On("CreateFolder", ctx, "Jeanne Dupont", "photos-root").Return("artist", nil).Once()
	mStore.On("CreateFolder", ctx, "A", "artist").Return("artist/A", nil).Once()
	mStore.On("CreateFolder", ctx, "B", "artist").Return("artist/B", nil).Once()
	mStore.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(files.upload, nil)
	mStore.On("Download", ctx, mock.Anything).Return(files.download, nil)

	var rows []model.LedgerRow
	mStore.On("AppendRows", ctx, "sheet-1", "Feuille1!A:N", mock.Anything).
		Run(func(args mock.Arguments) { rows = args.Get(3).([]model.LedgerRow) }).
		Return(nil).Once()

	svc := NewDepositService(mStore, spy, testOptions(t), logger.NewNop())
	res, err := svc.Submit(ctx, validInput(t))
	require.NoError(t, err)

	// ledger: one row per work, fixed width, derived prices
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-10-17", rows[0].Date)
	assert.Equal(t, "Jeanne Dupont", rows[0].ArtistName)
	assert.Equal(t, "100.00€", rows[0].ArtistPrice)
	assert.Equal(t, "40.00€", rows[0].Commission)
	assert.Equal(t, "140.00€", rows[0].SalePrice)
	assert.Equal(t, "https://files/artist/A/photo1.jpg", rows[0].Photo1)
	assert.Equal(t, "https://files/artist/A/photo2.jpeg", rows[0].Photo2)
	assert.Empty(t, rows[0].Photo3)
	assert.Equal(t, "70.00€", rows[1].SalePrice)
	assert.Equal(t, "https://files/artist/B/photo1.jpg", rows[1].Photo1)

	// contract: only the two photos of A are placed
	require.NotNil(t, spy.last)
	require.Len(t, spy.last.Placements, 2)
	for _, p := range spy.last.Placements {
		assert.Equal(t, 0, p.Work)
	}
	require.Len(t, res.SkippedPhotos, 1)
	assert.Equal(t, 1, res.SkippedPhotos[0].Work)

	assert.Equal(t, "Jeanne Dupont_contract_2026-10-17.pdf", res.Contract.Name)
	assert.Equal(t, "contracts/Jeanne Dupont_contract_2026-10-17.pdf", res.Contract.ID)
	assert.False(t, res.Contract.Signed)
	assert.Equal(t, spy.last.PDF, files.files[res.Contract.ID])
	mStore.AssertExpectations(t)
}

func TestDepositService_Submit_RejectsBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DepositInput)
		check  func(error) bool
	}{
		{
			name:   "invalid price",
			mutate: func(in *DepositInput) { in.Works[1].Price = "cinquante" },
			check:  ierr.IsInvalidPrice,
		},
		{
			name:   "empty price",
			mutate: func(in *DepositInput) { in.Works[0].Price = "" },
			check:  ierr.IsInvalidPrice,
		},
		{
			name:   "negative price",
			mutate: func(in *DepositInput) { in.Works[0].Price = "-5" },
			check:  ierr.IsInvalidPrice,
		},
		{
			name:   "missing email",
			mutate: func(in *DepositInput) { in.Email = "" },
			check:  ierr.IsValidation,
		},
		{
			name:   "missing title",
			mutate: func(in *DepositInput) { in.Works[0].Title = "  " },
			check:  ierr.IsValidation,
		},
		{
			name:   "no works",
			mutate: func(in *DepositInput) { in.Works = nil },
			check:  ierr.IsValidation,
		},
		{
			name: "too many photos",
			mutate: func(in *DepositInput) {
				in.Works[0].Photos = make([]PhotoUpload, model.MaxPhotosPerWork+1)
			},
			check: ierr.IsValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockGateway)
			in := validInput(t)
			tt.mutate(&in)

			_, err := NewDepositService(mStore, newSpy(t), testOptions(t), logger.NewNop()).Submit(context.Background(), in)

			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Equal(t, 400, ierr.HTTPStatusFromErr(err))
			mStore.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything, mock.Anything)
			mStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			mStore.AssertNotCalled(t, "AppendRows", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDepositService_Submit_StorageFailures(t *testing.T) {
	ctx := context.Background()
	unavailable := ierr.WithError(errors.New("503")).Mark(ierr.ErrExternalService)

	t.Run("folder creation", func(t *testing.T) {
		mStore := new(storeMocks.MockGateway)
		mStore.On("CreateFolder", ctx, "Jeanne Dupont", "photos-root").Return("", unavailable)

		_, err := NewDepositService(mStore, newSpy(t), testOptions(t), logger.NewNop()).Submit(ctx, validInput(t))

		assert.True(t, ierr.IsExternalService(err))
		mStore.AssertNotCalled(t, "AppendRows", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ledger append", func(t *testing.T) {
		mStore := new(storeMocks.MockGateway)
		files := &memFiles{files: map[string][]byte{}}
		mStore.On("CreateFolder", ctx, mock.Anything, mock.Anything).Return("folder", nil)
		mStore.On("Upload", ctx, "folder", mock.Anything, mock.Anything, mock.Anything).Return(files.upload, nil)
		mStore.On("AppendRows", ctx, "sheet-1", "Feuille1!A:N", mock.Anything).Return(unavailable)

		_, err := NewDepositService(mStore, newSpy(t), testOptions(t), logger.NewNop()).Submit(ctx, validInput(t))

		assert.True(t, ierr.IsExternalService(err))
		// photos already uploaded stay where they are; no contract is produced
		mStore.AssertNumberOfCalls(t, "Upload", 3)
		mStore.AssertNotCalled(t, "Upload", ctx, "contracts", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBuildSubmission_Prices(t *testing.T) {
	in := validInput(t)
	in.Works[0].Price = "1 250,50 €"

	sub, err := BuildSubmission(in)

	require.NoError(t, err)
	assert.Equal(t, "1250.5", sub.Works[0].ArtistPrice.String())
	assert.Equal(t, "500.2", sub.Works[0].Commission.String())
	assert.Equal(t, "1750.7", sub.Works[0].SalePrice.String())
	assert.Equal(t, "Jeanne Dupont", sub.ArtistName)
}

func TestValidationErr_ListsFields(t *testing.T) {
	in := validInput(t)
	in.Email = "not-an-email"
	in.Works[1].Title = ""

	_, err := BuildSubmission(in)

	require.Error(t, err)
	msg := ierr.DisplayMessage(err)
	assert.Contains(t, msg, "email")
	assert.Contains(t, msg, "works[1].title")
}

func TestContractNames(t *testing.T) {
	assert.Equal(t, "Jeanne_contract_2026-10-18.pdf", ContractName("Jeanne", "2026-10-18"))
	assert.Equal(t, "Jeanne_contract_signed_2026-10-18.pdf", SignedContractName("Jeanne", "2026-10-18"))
	assert.Equal(t, "AC_DC_contract_2026-10-18.pdf", ContractName("AC/DC", "2026-10-18"))
}

func TestPhotoName(t *testing.T) {
	assert.Equal(t, "photo1.jpg", photoName(0, "IMG_001.JPG"))
	assert.Equal(t, "photo3.png", photoName(2, "scan.png"))
	assert.Equal(t, "photo2.jpg", photoName(1, "blob"))
}
