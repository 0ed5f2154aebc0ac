package controller

import (
	"insightslm-be/internal/pkg/serverutils"
	"insightslm-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBookController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	GetGenres(ctx *fiber.Ctx) error
}

type bookController struct {
	service service.IBookService
}

func NewBookController(service service.IBookService) IBookController {
	return &bookController{service: service}
}

func (c *bookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/book/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Get("genres", c.GetGenres)
}

func (c *bookController) GetAll(ctx *fiber.Ctx) error {
	genre := ctx.Query("genre")

	res, err := c.service.GetAll(ctx.Context(), genre)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get books", res))
}

func (c *bookController) GetGenres(ctx *fiber.Ctx) error {
	res, err := c.service.GetGenres(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get genres", res))
}
