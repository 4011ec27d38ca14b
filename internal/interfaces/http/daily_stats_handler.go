package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/application/dto"
	"github.com/jhoicas/epos-daily-stats/internal/domain"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

// dailyStatsService what the handler needs from *dailystats.Service.
type dailyStatsService interface {
	Build(ctx context.Context, date time.Time) (*dailystats.BuildResult, error)
	Snapshot(ctx context.Context, date time.Time, codes []int) (*dailystats.DaySnapshot, error)
	ExportArchive(ctx context.Context, date time.Time) ([]byte, string, error)
	ZReport(ctx context.Context, date time.Time) ([]byte, string, error)
	WeeklyVat(ctx context.Context) ([]entity.WeeklyVat, error)
}

// channelLister active sales channels; implemented by postgres.ChannelRepo.
type channelLister interface {
	ListActive(ctx context.Context) ([]entity.ChannelMapping, error)
}

// DailyStatsHandler back-office endpoints over the daily aggregates (protected).
type DailyStatsHandler struct {
	svc      dailyStatsService
	channels channelLister
	log      *logger.Logger
}

// NewDailyStatsHandler builds the handler.
func NewDailyStatsHandler(svc dailyStatsService, channels channelLister, log *logger.Logger) *DailyStatsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DailyStatsHandler{svc: svc, channels: channels, log: log.Component("http")}
}

// Build aggregates the date and overwrites its rows.
// POST /api/daily-stats/:date/build
func (h *DailyStatsHandler) Build(c *fiber.Ctx) error {
	date, err := dailystats.ParseDate(c.Params("date"))
	if err != nil {
		return h.writeError(c, err)
	}
	res, err := h.svc.Build(c.Context(), date)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.NewBuildResponse(res))
}

// Get persisted revenue and movement of the date; ?codes=3,10 filters the products.
// GET /api/daily-stats/:date
func (h *DailyStatsHandler) Get(c *fiber.Ctx) error {
	date, err := dailystats.ParseDate(c.Params("date"))
	if err != nil {
		return h.writeError(c, err)
	}
	codes, err := dailystats.ParseCodes(c.Query("codes"))
	if err != nil {
		return h.writeError(c, err)
	}
	day, err := h.svc.Snapshot(c.Context(), date, codes)
	if err != nil {
		return h.writeError(c, err)
	}
	var channels []entity.ChannelMapping
	if h.channels != nil {
		if channels, err = h.channels.ListActive(c.Context()); err != nil {
			return h.writeError(c, err)
		}
	}
	return c.JSON(dto.NewDailyStatsResponse(day, channels))
}

// ExportZip builds the date and downloads MP/PD/RV as a zip.
// GET /api/daily-stats/:date/export.zip
func (h *DailyStatsHandler) ExportZip(c *fiber.Ctx) error {
	date, err := dailystats.ParseDate(c.Params("date"))
	if err != nil {
		return h.writeError(c, err)
	}
	data, name, err := h.svc.ExportArchive(c.Context(), date)
	if err != nil {
		return h.writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(data)
}

// ReportPDF downloads the Z-report of a built date.
// GET /api/daily-stats/:date/report.pdf
func (h *DailyStatsHandler) ReportPDF(c *fiber.Ctx) error {
	date, err := dailystats.ParseDate(c.Params("date"))
	if err != nil {
		return h.writeError(c, err)
	}
	data, name, err := h.svc.ZReport(c.Context(), date)
	if err != nil {
		return h.writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+name+`"`)
	return c.Send(data)
}

// WeeklyVat current weekly VAT accumulators.
// GET /api/weekly-vat
func (h *DailyStatsHandler) WeeklyVat(c *fiber.Ctx) error {
	rows, err := h.svc.WeeklyVat(c.Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.NewWeeklyVatRows(rows))
}

// writeError maps domain errors to status codes.
func (h *DailyStatsHandler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrLockNotObtained):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "BUILD_IN_PROGRESS", Message: err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "internal error"})
	}
}
