// Package api exposes the query surface over HTTP.
package api

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"censusapi/internal/engine"
	"censusapi/internal/models"
	"censusapi/internal/store"
)

const (
	defaultSampleLimit = 100
	maxSampleLimit     = 1000
	maxAggregateLimit  = 500
)

// Handler serves the dataset query surface from the in-memory store.
type Handler struct {
	store         *store.Store
	ageBands      engine.AgeBandDefinition
	sexCategories []string
}

// NewHandler creates a handler over the store with the configured
// ageing parameters.
func NewHandler(st *store.Store, bands engine.AgeBandDefinition, sexCategories []string) *Handler {
	return &Handler{store: st, ageBands: bands, sexCategories: sexCategories}
}

// RegisterRoutes attaches all routes to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/datasets", h.ListDatasets)
	api.GET("/datasets/:code", h.GetDataset)
	api.GET("/datasets/:code/dimensions/:dim", h.GetDimension)
	api.GET("/datasets/:code/observations", h.ListObservations)
	api.GET("/datasets/:code/aggregates", h.Aggregate)
	api.GET("/datasets/:code/insights/ageing", h.AgeingInsights)
}

// Health reports liveness regardless of ingest progress.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListDatasets(c echo.Context) error {
	summaries := make([]models.DatasetSummary, 0)
	for _, ds := range h.store.List() {
		summaries = append(summaries, datasetSummary(ds))
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetDataset(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}
	detail := models.DatasetDetail{
		DatasetSummary: datasetSummary(ds),
		Dimensions:     make([]models.DimensionSummary, len(ds.Dimensions)),
	}
	for i, dim := range ds.Dimensions {
		detail.Dimensions[i] = dimensionSummary(dim)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetDimension(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}
	dim := ds.Dimension(strings.ToUpper(c.Param("dim")))
	if dim == nil {
		return echo.NewHTTPError(http.StatusNotFound, "dimension not found")
	}
	detail := models.DimensionDetail{
		DimensionSummary: dimensionSummary(*dim),
		Categories:       make([]models.CategoryRead, len(dim.Categories)),
	}
	for i, cat := range dim.Categories {
		detail.Categories[i] = models.CategoryRead{Code: cat.Code, Label: cat.Label}
	}
	return c.JSON(http.StatusOK, detail)
}

// ListObservations returns a capped sample of the raw decoded records.
func (h *Handler) ListObservations(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}
	limit := boundedIntParam(c, "limit", defaultSampleLimit, maxSampleLimit)
	if limit > len(ds.Records) {
		limit = len(ds.Records)
	}
	points := make([]models.ObservationPoint, limit)
	for i := 0; i < limit; i++ {
		points[i] = models.ObservationPoint{
			Value:  ds.Records[i].ObsValue,
			Fields: ds.Records[i].Fields,
		}
	}
	return c.JSON(http.StatusOK, points)
}

// Aggregate groups observations along the requested dimension, applying
// every other query parameter as a dimension-code filter.
func (h *Handler) Aggregate(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}
	dimension := strings.ToUpper(c.QueryParam("dimension"))
	if dimension == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "dimension query parameter is required")
	}
	if ds.Dimension(dimension) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "dimension not found")
	}

	filters := make(engine.Filters)
	for key, values := range c.QueryParams() {
		upper := strings.ToUpper(key)
		if upper == "DIMENSION" || upper == "LIMIT" || upper == "ORDER" {
			continue
		}
		if len(values) > 0 {
			filters[upper] = values[len(values)-1]
		}
	}
	withDefaultFilters(ds, filters, dimension)

	results := engine.AggregateByDimension(ds.Records, dimension, filters)
	switch strings.ToLower(c.QueryParam("order")) {
	case "asc":
		sort.SliceStable(results, func(i, j int) bool { return results[i].Value < results[j].Value })
	case "", "desc":
		sort.SliceStable(results, func(i, j int) bool { return results[i].Value > results[j].Value })
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "order must be asc or desc")
	}
	if limit := boundedIntParam(c, "limit", 0, maxAggregateLimit); limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	return c.JSON(http.StatusOK, models.AggregateResponse{
		DatasetCode:   ds.Code,
		DimensionCode: dimension,
		Filters:       filters,
		Results:       results,
	})
}

// AgeingInsights computes the fixed demographic summary for the latest
// time period, overall and split per configured sex category.
func (h *Handler) AgeingInsights(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}
	period := latestPeriod(ds)
	if period == "" {
		return echo.NewHTTPError(http.StatusNotFound, "dataset has no time periods")
	}

	// Dimensions outside the ageing computation (e.g. residency or
	// marital status) are pinned to their total category so their
	// breakdowns are not summed on top of each other.
	filters := engine.Filters{engine.DimTimePeriod: period}
	withDefaultFilters(ds, filters, engine.DimAge, engine.DimSex)
	records := filters.Apply(ds.Records)

	totalSex := ""
	if len(h.sexCategories) > 0 {
		totalSex = h.sexCategories[0]
	}

	return c.JSON(http.StatusOK, models.AgeingInsights{
		DatasetCode:   ds.Code,
		TimePeriod:    period,
		AgeingSummary: engine.ComputeAgeingSummary(records, h.ageBands, totalSex),
		BySex:         engine.ComputeAgeingBySex(records, h.ageBands, h.sexCategories),
	})
}

// --- helpers ---

// dataset resolves the :code path parameter, answering 503 while no data
// has been ingested yet and 404 for an unknown code. The returned error
// is non-nil on both paths so callers must stop.
func (h *Handler) dataset(c echo.Context) (*store.Dataset, error) {
	if h.store.Len() == 0 {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "data is still loading")
	}
	code := c.Param("code")
	if decoded, err := url.PathUnescape(code); err == nil {
		code = decoded
	}
	ds := h.store.Get(code)
	if ds == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "dataset not found")
	}
	return ds, nil
}

func datasetSummary(ds *store.Dataset) models.DatasetSummary {
	return models.DatasetSummary{
		Code:             ds.Code,
		Name:             ds.Name,
		Description:      ds.Description,
		DimensionCount:   len(ds.Dimensions),
		ObservationCount: len(ds.Records),
	}
}

func dimensionSummary(dim store.DimensionInfo) models.DimensionSummary {
	return models.DimensionSummary{
		ID:            dim.ID,
		Label:         dim.Label,
		Position:      dim.Position,
		CategoryCount: len(dim.Categories),
	}
}

func boundedIntParam(c echo.Context, name string, fallback, ceiling int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v <= 0 {
		return fallback
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

func latestPeriod(ds *store.Dataset) string {
	latest := ""
	for _, rec := range ds.Records {
		if period, ok := rec.Field(engine.DimTimePeriod); ok && period > latest {
			latest = period
		}
	}
	return latest
}

// totalCategoryCodes are the conventional "all categories" rollup codes.
var totalCategoryCodes = map[string]bool{"_T": true, "TOTAL": true, "TOT": true}

// withDefaultFilters pins every dimension the caller left unconstrained
// to its total category, or to the latest period for TIME_PERIOD, so an
// aggregation along one dimension never sums another dimension's
// breakdown rows together with their rollup. Dimensions named in skip
// and dimensions without a recognizable total stay unfiltered.
func withDefaultFilters(ds *store.Dataset, filters engine.Filters, skip ...string) {
	skipped := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipped[id] = true
	}
	for _, dim := range ds.Dimensions {
		if skipped[dim.ID] {
			continue
		}
		if _, ok := filters[dim.ID]; ok {
			continue
		}
		if dim.ID == engine.DimTimePeriod {
			if period := latestPeriod(ds); period != "" {
				filters[dim.ID] = period
			}
			continue
		}
		if code, ok := totalCategory(dim); ok {
			filters[dim.ID] = code
		}
	}
}

// totalCategory picks the dimension's rollup category: a conventional
// total code first, then any underscore-prefixed special code.
func totalCategory(dim store.DimensionInfo) (string, bool) {
	for _, cat := range dim.Categories {
		if totalCategoryCodes[cat.Code] {
			return cat.Code, true
		}
	}
	for _, cat := range dim.Categories {
		if strings.HasPrefix(cat.Code, "_") {
			return cat.Code, true
		}
	}
	return "", false
}
