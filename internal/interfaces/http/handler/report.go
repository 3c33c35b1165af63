package handler

import (
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard statistics and activity feed
type ReportHandler struct {
	BaseHandler
	reportService ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// Stats godoc
// @Summary      Revenue statistics
// @Description  Invoice totals bucketed over the selected period. Unknown periods fall back to the current month.
// @Tags         stats
// @Produce      json
// @Param        period query string false "Period" Enums(1m, 3m, 6m, 9m, 1y) default(1m)
// @Success      200 {object} dto.Response{data=report.StatsResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	stats, err := h.reportService.Stats(c.Request.Context(), ownerID, c.Query("period"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// Activity godoc
// @Summary      Recent activity
// @Description  Latest clients and invoices merged into one feed, newest first
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response{data=[]report.ActivityResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /activity [get]
func (h *ReportHandler) Activity(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	activity, err := h.reportService.Activity(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, activity)
}
