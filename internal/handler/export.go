package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/seagullhotel/restaurant-reservation/internal/repository"
)

// ExportHandler produces the accounting XLSX sheet of reservations in a
// date range.
type ExportHandler struct {
	Repo *repository.ReservationRepo
}

func NewExportHandler(res *repository.ReservationRepo) *ExportHandler {
	return &ExportHandler{Repo: res}
}

const exportSheet = "Reservations"

// Reservations streams an XLSX workbook of every reservation with
// from <= date <= to, one row per booking with the upsell total and
// payment state accounting reconciles against.
func (h *ExportHandler) Reservations(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if !validDate(from) || !validDate(to) || to < from {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to must be YYYY-MM-DD with from <= to"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Repo.ListRange(ctx, from, to)
	if err != nil {
		return writeBookingError(c, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create sheet failed"})
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Time", "Restaurant", "Room", "Guest", "Guests", "Main Courses", "Extras", "Extras Total", "Paid", "Email Status"}
	headerStyle, serr := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, title)
		if serr == nil {
			f.SetCellStyle(exportSheet, cell, cell, headerStyle)
		}
	}

	for row, res := range items {
		paid := "no"
		if res.Paid {
			paid = "yes"
		}
		values := []any{
			res.Date, res.Time, res.RestaurantID, res.Room, res.Name, res.Guests,
			strings.Join(res.MainCourses, ", "), formatUpsells(res.UpsellItems),
			res.UpsellTotalPrice, paid, res.EmailStatus,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	filename := fmt.Sprintf("reservations_%s_%s.xlsx", from, to)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response().Writer)
}

func formatUpsells(items map[string]int) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for name, qty := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", name, qty))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
