// internal/handlers/stats.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baraholka/backend/internal/services"
	"github.com/baraholka/backend/internal/utils"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GET /staff/stats/dashboard
func (h *StatsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.statsService.GetDashboard()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /staff/stats/daily?from=2026-08-01&to=2026-08-28
//
// Defaults to the last 30 days.
func (h *StatsHandler) GetDailyStats(c *gin.Context) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			utils.BadRequestResponse(c, "from must be YYYY-MM-DD", nil)
			return
		}
		from = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			utils.BadRequestResponse(c, "to must be YYYY-MM-DD", nil)
			return
		}
		to = parsed
	}
	if to.Before(from) {
		utils.BadRequestResponse(c, "to must not precede from", nil)
		return
	}

	snapshots, err := h.statsService.GetDailyStats(from, to)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, snapshots)
}
