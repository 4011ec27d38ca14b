package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/epos-daily-stats/pkg/jwt"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

// RouterDeps router dependencies.
type RouterDeps struct {
	Stats     dailyStatsService
	Channels  channelLister
	JWTSecret string
	Logger    *logger.Logger
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	h := NewDailyStatsHandler(deps.Stats, deps.Channels, deps.Logger)

	// Reads: any back-office role.
	read := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleCrew)
	// Writes rebuild aggregates: managers and admins only.
	write := RequireRole(jwt.RoleAdmin, jwt.RoleManager)

	daily := api.Group("/daily-stats")
	daily.Post("/:date/build", write, h.Build)
	daily.Get("/:date/export.zip", write, h.ExportZip)
	daily.Get("/:date/report.pdf", read, h.ReportPDF)
	daily.Get("/:date", read, h.Get)

	api.Get("/weekly-vat", read, h.WeeklyVat)
}
