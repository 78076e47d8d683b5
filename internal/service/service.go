package service

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	ierr "depotapi/internal/errors"
)

// Options are the storage locations and clock shared by the deposit and signing services.
type Options struct {
	PhotosFolderID          string
	ContractsFolderID       string
	SignedContractsFolderID string
	LedgerID                string
	LedgerRange             string
	// Location is the gallery time zone used to date contracts and ledger rows.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) today() (string, time.Time) {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	t := now().In(loc)
	return t.Format(time.DateOnly), t
}

// ContractName is the file name of the unsigned contract of artist dated date.
func ContractName(artist, date string) string {
	return fmt.Sprintf("%s_contract_%s.pdf", fileSafe(artist), date)
}

// SignedContractName is the file name of the signed copy.
func SignedContractName(artist, date string) string {
	return fmt.Sprintf("%s_contract_signed_%s.pdf", fileSafe(artist), date)
}

func fileSafe(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(s))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationErr turns validator output into a ValidationError listing the offending fields.
func validationErr(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ierr.WithError(err).
			WithHint("formulaire invalide").
			Mark(ierr.ErrValidation)
	}
	fields := lo.Uniq(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		return field
	}))
	return ierr.WithError(err).
		WithHintf("champs invalides ou manquants : %s", strings.Join(fields, ", ")).
		Mark(ierr.ErrValidation)
}
