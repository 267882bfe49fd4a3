package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/service"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// parseFilter reads the report filter from the query string. Malformed
// numbers are ignored rather than rejected.
func parseFilter(c *gin.Context, withComparison bool) domain.FilterSpec {
	filter := domain.FilterSpec{
		Warehouses: queryList(c, "warehouse"),
		Categories: queryList(c, "category"),
	}

	parseInt := func(param string) int {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			return 0
		}
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		return 0
	}

	filter.MainYear = parseInt("main_year")
	if withComparison {
		filter.CompYear = parseInt("comp_year")
	}
	filter.StartMonth = parseInt("start_month")
	filter.EndMonth = parseInt("end_month")

	return filter
}

// queryList accepts repeated params; blank values are dropped.
func queryList(c *gin.Context, param string) []string {
	raw := c.QueryArray(param)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// brandParam resolves :brand, answering 404 for unknown codes.
func brandParam(c *gin.Context) (domain.Brand, bool) {
	brand, err := domain.ParseBrand(c.Param("brand"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid Brand"})
		return "", false
	}
	return brand, true
}

func reportError(c *gin.Context, message string, err error) {
	if errors.Is(err, domain.ErrUnknownBrand) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid Brand"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}

func (h *ReportHandler) ListBrands(c *gin.Context) {
	brands := make([]gin.H, 0, len(domain.Brands()))
	for _, b := range domain.Brands() {
		brands = append(brands, gin.H{"code": b.String(), "name": b.DisplayName()})
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

func (h *ReportHandler) GetWarehouseData(c *gin.Context) {
	brand, ok := brandParam(c)
	if !ok {
		return
	}

	report, err := h.service.GetWarehouseReport(c.Request.Context(), brand, parseFilter(c, true))
	if err != nil {
		reportError(c, "failed to build warehouse report", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetItemData(c *gin.Context) {
	brand, ok := brandParam(c)
	if !ok {
		return
	}

	report, err := h.service.GetItemReport(c.Request.Context(), brand, parseFilter(c, false))
	if err != nil {
		reportError(c, "failed to build item report", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetFilters(c *gin.Context) {
	brand, ok := brandParam(c)
	if !ok {
		return
	}

	options, err := h.service.GetFilterOptions(c.Request.Context(), brand)
	if err != nil {
		reportError(c, "failed to list filter options", err)
		return
	}

	c.JSON(http.StatusOK, options)
}

func (h *ReportHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
