package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"depotapi/internal/http/middleware"
	"depotapi/internal/service"
	"depotapi/internal/storage"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Store          storage.FileStore
	Deposit        service.DepositService
	Signing        service.SigningService
	Gallery        string
	MaxUploadBytes int64
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", HealthCheck(d.Store))
	app.Get("/healthz", Liveness())

	app.Get("/", DepositForm(d.Gallery, d.MaxUploadBytes))
	app.Post("/submit", middleware.NoStore(), SubmitDeposit(d.Deposit))

	app.Get("/sign", middleware.NoStore(), SignView(d.Gallery))
	app.Post("/sign", middleware.NoStore(), SignContract(d.Signing))
}
