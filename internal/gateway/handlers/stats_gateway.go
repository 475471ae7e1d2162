package handlers

import (
	"net/http"
	"strconv"
	"time"

	"resto-system/internal/repository"

	"github.com/gin-gonic/gin"
)

type StatsHTTPHandler struct {
	queries repository.OrderQueries
	now     func() time.Time
}

func NewStatsHTTPHandler(queries repository.OrderQueries) *StatsHTTPHandler {
	return &StatsHTTPHandler{queries: queries, now: time.Now}
}

type RevenueQuery struct {
	Type  string `form:"type,default=daily"`
	Year  string `form:"year"`
	Month string `form:"month"`
}

// Revenue sums paid orders per day of a month, month of a year, or year.
func (h *StatsHTTPHandler) Revenue(c *gin.Context) {
	var q RevenueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query"))
		return
	}

	now := h.now()
	query := repository.RevenueQuery{
		Period: repository.RevenuePeriod(q.Type),
		Year:   now.Year(),
		Month:  int(now.Month()),
	}
	switch query.Period {
	case repository.RevenueDaily, repository.RevenueMonthly, repository.RevenueYearly:
	default:
		c.JSON(http.StatusBadRequest, errorResponse("type must be daily, monthly or yearly"))
		return
	}

	if q.Year != "" {
		year, err := strconv.Atoi(q.Year)
		if err != nil || year < 1 {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid year"))
			return
		}
		query.Year = year
	}
	if q.Month != "" {
		month, err := strconv.Atoi(q.Month)
		if err != nil || month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid month"))
			return
		}
		query.Month = month
	}

	buckets, err := h.queries.Revenue(c.Request.Context(), query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Revenue", buckets, gin.H{
		"type":  query.Period,
		"year":  query.Year,
		"month": query.Month,
	}))
}
