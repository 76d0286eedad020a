package order

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	ordersvc "github.com/indiangoerge/bookworld-digital-shelf/service/order"
)

type Controller struct {
	Svc ordersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/orders
func (h *Controller) Create(c echo.Context) error {
	var req CreateOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	in := ordersvc.CreateInput{
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Address:       req.Address,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, ordersvc.ItemInput{BookID: it.BookID, Quantity: it.Quantity})
	}

	out, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		switch ordersvc.Code(err) {
		case ordersvc.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case ordersvc.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "one or more books not found"})
		case ordersvc.ErrInsufficientStock:
			return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
		default:
			h.Log.Error("order create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": out})
}

// GET /api/orders/:user_id
func (h *Controller) ListByUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "user ID must be a number"})
	}

	rows, err := h.Svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		h.Log.Error("order list by user", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": rows})
}
