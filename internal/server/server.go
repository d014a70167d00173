package server

import (
	"log"

	"ai-fitness-be/internal/bootstrap"
	"ai-fitness-be/internal/config"
	"ai-fitness-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Routes
	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	addr := ":" + s.cfg.App.Port
	if s.cfg.TLSEnabled() {
		log.Printf("Server is running on https://localhost:%s", s.cfg.App.Port)
		return s.app.ListenTLS(addr, s.cfg.App.TLSCertFile, s.cfg.App.TLSKeyFile)
	}
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")

	c.WorkoutController.RegisterRoutes(api, serverutils.JwtMiddleware(cfg.App.JwtSecret))
	c.WorkoutHandler.RegisterRoutes(api)
}
