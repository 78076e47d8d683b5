package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkAndClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "validation",
			err:        NewError("artist name missing").WithHint("artist name is required").Mark(ErrValidation),
			wantCode:   ErrCodeValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid price",
			err:        NewError("bad price").WithHint("price is not a number").Mark(ErrInvalidPrice),
			wantCode:   ErrCodeInvalidPrice,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "external service",
			err:        WithError(stderrors.New("503 from drive")).WithHint("upload failed").Mark(ErrExternalService),
			wantCode:   ErrCodeExternalService,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "asset decode",
			err:        NewError("png: invalid format").Mark(ErrAssetDecode),
			wantCode:   ErrCodeAssetDecode,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unmarked",
			err:        stderrors.New("boom"),
			wantCode:   ErrCodeSystemError,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, Code(tt.err))
			assert.Equal(t, tt.wantStatus, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestIsValidation_IncludesInvalidPrice(t *testing.T) {
	err := NewError("bad price").Mark(ErrInvalidPrice)

	assert.True(t, IsValidation(err))
	assert.True(t, IsInvalidPrice(err))
	assert.False(t, IsExternalService(err))
}

func TestMarkSurvivesWrapping(t *testing.T) {
	base := NewError("drive down").Mark(ErrExternalService)
	wrapped := fmt.Errorf("submit: %w", base)

	assert.True(t, IsExternalService(wrapped))
	assert.Equal(t, http.StatusBadGateway, HTTPStatusFromErr(wrapped))
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.code) }

func TestAs_FindsCauseThroughBuilder(t *testing.T) {
	err := WithError(&statusError{code: http.StatusNotFound}).
		WithMessagef("download %s", "file-1").
		WithHint("fichier introuvable").
		Mark(ErrNotFound)

	var target *statusError
	assert.True(t, As(err, &target))
	assert.Equal(t, http.StatusNotFound, target.code)
	assert.True(t, IsNotFound(err))
	assert.False(t, As(NewError("plain").Mark(ErrSystem), &target))
}

func TestDisplayMessage(t *testing.T) {
	withHint := NewError("internal detail").WithHint("le prix est invalide").Mark(ErrInvalidPrice)
	assert.Equal(t, "le prix est invalide", DisplayMessage(withHint))

	noHint := NewError("internal detail").Mark(ErrAssetDecode)
	assert.Equal(t, "asset could not be decoded", DisplayMessage(noHint))

	assert.Equal(t, "internal server error", DisplayMessage(stderrors.New("x")))
}
