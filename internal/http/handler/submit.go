package handler

import (
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"

	ierr "depotapi/internal/errors"
	"depotapi/internal/model"
	"depotapi/internal/service"
)

// MaxWorks bounds numWorks on the deposit form.
const MaxWorks = 20

var strict = bluemonday.StrictPolicy()

// clean strips markup from free text typed on the form.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

type submitResponse struct {
	Contract model.Document `json:"contract"`
	SignURL  string         `json:"sign_url"`
}

// SignURL is the signing view of document id for artist.
func SignURL(id, artist string) string {
	return "/sign?" + url.Values{"document_id": {id}, "artist_name": {artist}}.Encode()
}

// SubmitDeposit handles the deposit form.
//
// Fields: artistName, email, registrationId, address, numWorks, then for i in 1..numWorks
// work{i}.title, work{i}.dimensions, work{i}.year, work{i}.price and up to three files
// work{i}.photo1..work{i}.photo3. Browsers are redirected to the signing view;
// clients accepting only JSON get the contract reference.
//
//	@Summary	Submit an artwork deposit
//	@Tags		deposit
//	@Accept		multipart/form-data
//	@Produce	json
//	@Success	201	{object}	submitResponse
//	@Success	303
//	@Failure	400	{object}	errorPayload
//	@Failure	502	{object}	errorPayload
//	@Router		/submit [post]
func SubmitDeposit(svc service.DepositService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return respondError(c, ierr.WithError(err).
				WithHint("formulaire multipart attendu").
				Mark(ierr.ErrValidation))
		}

		in, closers, err := depositInput(form)
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()
		if err != nil {
			return respondError(c, err)
		}

		res, err := svc.Submit(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}

		next := SignURL(res.Contract.ID, res.Submission.ArtistName)
		if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
			return c.Status(fiber.StatusCreated).JSON(submitResponse{Contract: res.Contract, SignURL: next})
		}
		return c.Redirect(next, fiber.StatusSeeOther)
	}
}

func depositInput(form *multipart.Form) (service.DepositInput, []io.Closer, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return clean(v[0])
		}
		return ""
	}

	n, err := strconv.Atoi(value("numWorks"))
	if err != nil || n < 1 || n > MaxWorks {
		return service.DepositInput{}, nil, ierr.NewErrorf("numWorks %q out of range", value("numWorks")).
			WithHintf("le nombre d'œuvres doit être compris entre 1 et %d", MaxWorks).
			Mark(ierr.ErrValidation)
	}

	in := service.DepositInput{
		ArtistName:     value("artistName"),
		Email:          value("email"),
		RegistrationID: value("registrationId"),
		Address:        value("address"),
		Works:          make([]service.WorkInput, 0, n),
	}
	var closers []io.Closer
	for i := 1; i <= n; i++ {
		w := service.WorkInput{
			Title:      value(fmt.Sprintf("work%d.title", i)),
			Dimensions: value(fmt.Sprintf("work%d.dimensions", i)),
			Year:       value(fmt.Sprintf("work%d.year", i)),
			Price:      value(fmt.Sprintf("work%d.price", i)),
		}
		for j := 1; j <= model.MaxPhotosPerWork; j++ {
			files := form.File[fmt.Sprintf("work%d.photo%d", i, j)]
			// an empty file input still posts a part with no name and no content
			if len(files) == 0 || files[0].Filename == "" || files[0].Size == 0 {
				continue
			}
			f, err := files[0].Open()
			if err != nil {
				return in, closers, ierr.WithError(err).
					WithHintf("photo %d de l'œuvre %d illisible", j, i).
					Mark(ierr.ErrValidation)
			}
			closers = append(closers, f)
			w.Photos = append(w.Photos, service.PhotoUpload{
				Filename: files[0].Filename,
				Size:     files[0].Size,
				Content:  f,
			})
		}
		in.Works = append(in.Works, w)
	}
	return in, closers, nil
}
