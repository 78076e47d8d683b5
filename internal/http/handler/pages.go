package handler

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"depotapi/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type formPage struct {
	Gallery        string
	MaxWorks       int
	PhotosPerWork  []int
	MaxUploadBytes int64
}

type signPage struct {
	Gallery    string
	ArtistName string
	DocumentID string
}

func render(c *fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// DepositForm serves the deposit form.
func DepositForm(gallery string, maxUploadBytes int64) fiber.Handler {
	photos := make([]int, model.MaxPhotosPerWork)
	for i := range photos {
		photos[i] = i + 1
	}
	return func(c *fiber.Ctx) error {
		return render(c, "form.html", formPage{
			Gallery:        gallery,
			MaxWorks:       MaxWorks,
			PhotosPerWork:  photos,
			MaxUploadBytes: maxUploadBytes,
		})
	}
}

// SignView serves the signature pad for the contract named by the document_id query parameter.
func SignView(gallery string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Query("document_id")
		if id == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "référence du contrat manquante")
		}
		return render(c, "sign.html", signPage{
			Gallery:    gallery,
			ArtistName: clean(c.Query("artist_name")),
			DocumentID: id,
		})
	}
}
