// Package server wires the HTTP routes and middleware of the API.
package server

import (
	"cbt-question-gen/internal/config"
	"cbt-question-gen/internal/handler"
	"cbt-question-gen/internal/middleware"
	"cbt-question-gen/internal/service"
	"cbt-question-gen/internal/validation"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// New builds the fiber app serving the health check and the question
// generation endpoint.
func New(cfg *config.Config, questionService service.QuestionService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "cbt-question-gen",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORS.AllowOrigins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept," + middleware.RequestIDHeader,
		ExposeHeaders: middleware.RequestIDHeader,
		MaxAge:        300,
	}))
	app.Use(recover.New())

	app.Get("/health", handler.Health)
	app.Get("/swagger/*", swagger.HandlerDefault)

	questionHandler := handler.NewQuestionHandler(questionService, validation.NewFromConfig(cfg.Limits))
	api := app.Group("/api")
	api.Post("/generate-questions", questionHandler.GenerateQuestions)

	return app
}
