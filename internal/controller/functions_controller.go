package controller

import (
	"encoding/json"

	"insightslm-be/internal/dto"
	"insightslm-be/internal/pkg/serverutils"
	"insightslm-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IFunctionsController exposes the edge-function endpoints the web client
// calls directly. Their contract predates the rest of the API: any failure,
// including bad input, answers 500 with {"error": ...}; success answers 200
// with {"success": true, ...}. Kept as-is for client compatibility.
type IFunctionsController interface {
	RegisterRoutes(r fiber.Router)
	CreateNotebook(ctx *fiber.Ctx) error
	SendChatMessage(ctx *fiber.Ctx) error
}

type functionsController struct {
	service service.IFunctionsService
}

func NewFunctionsController(service service.IFunctionsService) IFunctionsController {
	return &functionsController{service: service}
}

func (c *functionsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/functions/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("create-notebook", c.CreateNotebook)
	h.Post("send-chat-message", c.SendChatMessage)
}

func fnError(ctx *fiber.Ctx, msg string) error {
	return ctx.Status(fiber.StatusInternalServerError).JSON(dto.FnErrorResponse{Error: msg})
}

func (c *functionsController) CreateNotebook(ctx *fiber.Ctx) error {
	var req dto.FnCreateNotebookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fnError(ctx, "Invalid request body")
	}
	if req.UserId == "" {
		if uid, ok := ctx.Locals("user_id").(string); ok {
			req.UserId = uid
		}
	}
	if req.Name == "" || req.UserId == "" {
		return fnError(ctx, "name and user_id are required")
	}

	created, err := c.service.CreateNotebook(ctx.Context(), req.Name, req.UserId)
	if err != nil {
		return fnError(ctx, err.Error())
	}

	notebookJson, err := json.Marshal(created.Notebook)
	if err != nil {
		return fnError(ctx, err.Error())
	}

	return ctx.JSON(dto.FnCreateNotebookResponse{
		Success:         true,
		Notebook:        notebookJson,
		BackendResponse: created.BackendResponse,
	})
}

func (c *functionsController) SendChatMessage(ctx *fiber.Ctx) error {
	var req dto.FnSendChatMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fnError(ctx, "Invalid request body")
	}
	if req.NotebookId == "" || req.Message == "" {
		return fnError(ctx, "notebookId and message are required")
	}

	sent, err := c.service.SendMessage(ctx.Context(), req.NotebookId, req.Message)
	if err != nil {
		return fnError(ctx, err.Error())
	}

	return ctx.JSON(dto.FnSendChatMessageResponse{
		Success:  true,
		Message:  sent.Row,
		Response: sent.BackendResponse,
	})
}
