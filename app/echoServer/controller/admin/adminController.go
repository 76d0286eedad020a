package admin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
	orderrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/order"
	importersvc "github.com/indiangoerge/bookworld-digital-shelf/service/importer"
	ordersvc "github.com/indiangoerge/bookworld-digital-shelf/service/order"
)

type Controller struct {
	Orders        ordersvc.Service
	Importer      importersvc.Service
	ImportCSVPath string
	V             *validator.Validate
	Log           *slog.Logger
}

// PATCH /api/admin/orders/:order_id/status
func (h *Controller) UpdateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "order ID must be a number"})
	}

	var req StatusUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	out, err := h.Orders.UpdateStatus(c.Request().Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		switch ordersvc.Code(err) {
		case ordersvc.ErrOrderNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order not found"})
		case ordersvc.ErrInvalidTransition:
			return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
		default:
			h.Log.Error("order status update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "order status updated successfully",
		"data":    out,
	})
}

// GET /api/admin/orders
func (h *Controller) ListOrders(c echo.Context) error {
	f := orderrepo.ListFilter{
		Status: model.OrderStatus(c.QueryParam("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown status filter"})
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "user_id must be a number"})
		}
		f.UserID = id
	}
	if v := c.QueryParam("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "date_from must be RFC3339"})
		}
		f.DateFrom = &t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "date_to must be RFC3339"})
		}
		f.DateTo = &t
	}
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	f.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	rows, err := h.Orders.ListAll(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("admin order list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": rows})
}

// GET /api/admin/stats
func (h *Controller) Stats(c echo.Context) error {
	s, err := h.Orders.GetStats(c.Request().Context())
	if err != nil {
		h.Log.Error("admin stats", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": s})
}

// POST /api/admin/import-books
func (h *Controller) ImportBooks(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		path = h.ImportCSVPath
	}

	summary, err := h.Importer.ImportCSV(c.Request().Context(), path)
	if err != nil {
		h.Log.Error("book import", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "book import completed",
		"data":    summary,
	})
}
