package handler

import (
	"github.com/gofiber/fiber/v2"

	ierr "depotapi/internal/errors"
	"depotapi/internal/service"
)

// SignContract stamps the artist's signature on a generated contract.
// The body is JSON or a url-encoded form with artist_name, document_id and signature.
//
//	@Summary	Sign a contract
//	@Tags		deposit
//	@Accept		json
//	@Produce	json
//	@Param		request	body		service.SignInput	true	"signature request"
//	@Success	201		{object}	model.Document
//	@Failure	400		{object}	errorPayload
//	@Failure	422		{object}	errorPayload
//	@Failure	502		{object}	errorPayload
//	@Router		/sign [post]
func SignContract(svc service.SigningService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SignInput
		if err := c.BodyParser(&in); err != nil {
			return respondError(c, ierr.WithError(err).
				WithHint("requête de signature illisible").
				Mark(ierr.ErrValidation))
		}
		doc, err := svc.Sign(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}
