package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/rackplan/internal/errors"
	"github.com/stwalsh4118/rackplan/internal/middleware"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
	"github.com/stwalsh4118/rackplan/internal/seismic"
	"github.com/stwalsh4118/rackplan/internal/services"
)

// StatusOK is the status field of every successful seismic response.
const StatusOK = "ok"

// SeismicHandler handles site and seismic lookups.
type SeismicHandler struct {
	service services.SiteService
}

// NewSeismicHandler creates a new SeismicHandler instance.
func NewSeismicHandler(service services.SiteService) *SeismicHandler {
	return &SeismicHandler{
		service: service,
	}
}

// SeismicRequest represents the query parameters for the seismic endpoint.
type SeismicRequest struct {
	Address      string `form:"address" binding:"required"`
	RiskCategory string `form:"risk_category" binding:"omitempty,oneof=I II III IV"`
	SiteClass    string `form:"site_class" binding:"omitempty,oneof=A B BC C CD D DE E Default"`
	SDC          string `form:"sdc" binding:"omitempty,oneof=A B C D E F"`
}

// MarketRequest represents the query parameters for the market endpoint.
type MarketRequest struct {
	Location string `form:"location" binding:"required"`
}

// RequirementsRequest represents the query parameters for the SDC
// requirements endpoint.
type RequirementsRequest struct {
	SDC  string `form:"sdc" binding:"required,oneof=A B C D E F"`
	Code string `form:"code" binding:"omitempty,oneof=IBC CBC"`
}

// Response is the success envelope for seismic endpoints.
type Response[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// SeismicValues is the flattened seismic summary of a site.
type SeismicValues struct {
	SDC          models.SDC          `json:"sdc"`
	SDS          *float64            `json:"sds"`
	SD1          *float64            `json:"sd1"`
	RiskCategory models.RiskCategory `json:"risk_category"`
	SiteClass    models.SiteClass    `json:"site_class"`
	Source       models.Source       `json:"source"`
	Confidence   models.Confidence   `json:"confidence"`
	Market       string              `json:"market,omitempty"`
	Latitude     *float64            `json:"latitude,omitempty"`
	Longitude    *float64            `json:"longitude,omitempty"`
}

// SeismicData is the payload of a seismic or market lookup.
type SeismicData struct {
	Seismic      SeismicValues                  `json:"seismic"`
	Requirements models.EngineeringRequirements `json:"requirements"`
	Site         models.Site                    `json:"site"`
}

// MarketsData lists the market table.
type MarketsData struct {
	Version string             `json:"version"`
	Markets []reference.Market `json:"markets"`
	Count   int                `json:"count"`
}

// Lookup handles GET /api/seismic.
// It resolves an address to its seismic design category and anchor requirements.
func (h *SeismicHandler) Lookup(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req SeismicRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	if log != nil {
		log.Info("Processing seismic lookup", map[string]interface{}{
			"address":       req.Address,
			"risk_category": req.RiskCategory,
			"site_class":    req.SiteClass,
		})
	}

	ov := models.SiteOverrides{
		RiskCategory: models.RiskCategory(req.RiskCategory),
		SiteClass:    models.SiteClass(req.SiteClass),
		SDC:          models.SDC(req.SDC),
	}
	res, err := h.service.Lookup(c.Request.Context(), req.Address, ov)
	if apierrors.Handle(c, err) {
		return
	}

	c.JSON(http.StatusOK, Response[SeismicData]{Status: StatusOK, Data: toSeismicData(res)})
}

// Markets handles GET /api/seismic/markets.
func (h *SeismicHandler) Markets(c *gin.Context) {
	markets, err := h.service.Markets()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load market table", err)
		return
	}

	c.JSON(http.StatusOK, Response[MarketsData]{
		Status: StatusOK,
		Data: MarketsData{
			Version: reference.MarketsVersion(),
			Markets: markets,
			Count:   len(markets),
		},
	})
}

// Market handles GET /api/seismic/market.
// It resolves a city or market name from the market table without any lookup.
func (h *SeismicHandler) Market(c *gin.Context) {
	var req MarketRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	res, err := h.service.Market(req.Location)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMarketNotFound):
			apierrors.NotFound(c, "No market matches this location")
		case errors.Is(err, services.ErrEmptyLocation):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.Handle(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, Response[SeismicData]{Status: StatusOK, Data: toSeismicData(res)})
}

// Requirements handles GET /api/seismic/sdc-requirements.
func (h *SeismicHandler) Requirements(c *gin.Context) {
	var req RequirementsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	reqs, err := h.service.Requirements(models.SDC(req.SDC), models.BuildingCode(req.Code))
	if apierrors.Handle(c, err) {
		return
	}

	c.JSON(http.StatusOK, Response[models.EngineeringRequirements]{Status: StatusOK, Data: reqs})
}

// toSeismicData flattens a resolution into the response payload.
func toSeismicData(res *seismic.Resolution) SeismicData {
	site := res.Site
	values := SeismicValues{
		SDC:          site.SDC.Value,
		RiskCategory: site.RiskCategory,
		SiteClass:    site.SiteClass,
		Source:       site.SDC.Source,
		Confidence:   site.Confidence,
		Market:       site.Market,
	}
	if site.SDS != nil {
		v := site.SDS.Value
		values.SDS = &v
	}
	if site.SD1 != nil {
		v := site.SD1.Value
		values.SD1 = &v
	}
	if site.Coordinates != nil {
		lat, lon := site.Coordinates.Latitude, site.Coordinates.Longitude
		values.Latitude = &lat
		values.Longitude = &lon
	}

	return SeismicData{
		Seismic:      values,
		Requirements: res.Requirements,
		Site:         site,
	}
}
