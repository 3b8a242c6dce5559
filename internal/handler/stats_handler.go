package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thuongvd0411/theodoihoctoan/internal/dto"
	"github.com/thuongvd0411/theodoihoctoan/internal/service"
	appErrors "github.com/thuongvd0411/theodoihoctoan/pkg/errors"
	"github.com/thuongvd0411/theodoihoctoan/pkg/response"
)

// StatsHandler exposes monthly statistics and payroll endpoints.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Monthly godoc
// @Summary Monthly statistics for a student
// @Tags Stats
// @Produce json
// @Param id path string true "Student ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/stats [get]
func (h *StatsHandler) Monthly(c *gin.Context) {
	var query dto.StatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	stats, err := h.stats.Monthly(c.Request.Context(), c.Param("id"), time.Month(query.Month), query.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Payroll godoc
// @Summary Monthly payroll across active students
// @Tags Stats
// @Produce json
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /payroll [get]
func (h *StatsHandler) Payroll(c *gin.Context) {
	var query dto.StatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	summary, err := h.stats.MonthlyPayroll(c.Request.Context(), time.Month(query.Month), query.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
