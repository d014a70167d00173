package controller

import (
	"errors"

	"ai-fitness-be/internal/config"
	"ai-fitness-be/internal/dto"
	"ai-fitness-be/internal/pkg/serverutils"
	"ai-fitness-be/internal/repository"
	"ai-fitness-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ConnectionCounter reports the number of open websocket connections.
type ConnectionCounter interface {
	Count() int
}

type IWorkoutController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	Health(ctx *fiber.Ctx) error
	Settings(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	GetSummary(ctx *fiber.Ctx) error
}

type workoutController struct {
	service     service.IWorkoutService
	connections ConnectionCounter
	cfg         config.WorkoutConfig
}

func NewWorkoutController(service service.IWorkoutService, connections ConnectionCounter, cfg config.WorkoutConfig) IWorkoutController {
	return &workoutController{
		service:     service,
		connections: connections,
		cfg:         cfg,
	}
}

func (c *workoutController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	r.Get("/health", c.Health)
	r.Get("/settings", c.Settings)

	h := r.Group("/workouts")
	h.Use(authMiddleware)
	h.Get("/:id", c.GetSession)
	h.Get("/:id/summary", c.GetSummary)
}

func (c *workoutController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{
		Status:         "ok",
		ActiveSessions: c.service.ActiveSessions(),
	}
	if c.connections != nil {
		res.Connections = c.connections.Count()
	}
	return ctx.JSON(serverutils.SuccessResponse("healthy", res))
}

func (c *workoutController) Settings(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("success get settings", dto.SettingsResponse{
		CalibrationDurationSeconds: int(c.cfg.CalibrationDuration.Seconds()),
		FrameIntervalMs:            int(c.cfg.FrameInterval.Milliseconds()),
		DefaultMinAngle:            c.cfg.DefaultMinAngle,
		DefaultMaxAngle:            c.cfg.DefaultMaxAngle,
	}))
}

func (c *workoutController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSnapshot(ctx.UserContext(), ctx.Params("id"))
	if err == nil && !ownedBy(ctx, res.UserId) {
		err = repository.ErrSessionNotFound
	}
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "session not found"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("success get session", res))
}

func (c *workoutController) GetSummary(ctx *fiber.Ctx) error {
	res, err := c.service.GetSummary(ctx.UserContext(), ctx.Params("id"))
	if err == nil && !ownedBy(ctx, res.UserId) {
		err = repository.ErrSummaryNotFound
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSummaryNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "summary not found"))
		case errors.Is(err, service.ErrSummariesDisabled):
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("success get summary", res))
}

// ownedBy reports whether the authenticated caller may see a resource owned by
// owner. Anonymous servers set no caller and see everything; an authenticated
// caller only sees its own sessions, and foreign ones read as missing.
func ownedBy(ctx *fiber.Ctx, owner string) bool {
	caller, _ := ctx.Locals("user_id").(string)
	return caller == "" || caller == owner
}
