package controller

import (
	"ai-tutoring-sync/internal/dto"
	"ai-tutoring-sync/internal/pkg/serverutils"
	"ai-tutoring-sync/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSnapshot(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Post("/", c.CreateSession)
	h.Get("/:id", serverutils.JwtMiddleware, c.GetSnapshot)
}

func (c *sessionController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), &req)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) GetSnapshot(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	// The middleware token must belong to the session being read.
	if tokenSID, ok := ctx.Locals("session_id").(string); !ok || tokenSID != sessionID {
		return fiber.NewError(fiber.StatusForbidden, "Token not valid for this session")
	}

	res, err := c.service.GetSnapshot(ctx.Context(), sessionID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Session snapshot", res))
}
