package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	booksvc "github.com/indiangoerge/bookworld-digital-shelf/service/book"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /api/books
func (h *Controller) List(c echo.Context) error {
	p := booksvc.ListParams{
		Search:    c.QueryParam("search"),
		Genre:     c.QueryParam("genre"),
		Author:    c.QueryParam("author"),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
	p.Page, _ = strconv.Atoi(c.QueryParam("page"))
	p.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	p.MinPrice, _ = strconv.ParseFloat(c.QueryParam("min_price"), 64)
	p.MaxPrice, _ = strconv.ParseFloat(c.QueryParam("max_price"), 64)

	out, err := h.Svc.List(c.Request().Context(), p)
	if err != nil {
		h.Log.Error("book list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}

// GET /api/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	b, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booksvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("book detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, b)
}
