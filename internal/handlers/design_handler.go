package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/rackplan/internal/errors"
	"github.com/stwalsh4118/rackplan/internal/middleware"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
	"github.com/stwalsh4118/rackplan/internal/services"
)

// DesignHandler handles the design pipeline and standalone fire assessments.
type DesignHandler struct {
	design services.DesignService
	fire   services.FireService
}

// NewDesignHandler creates a new DesignHandler instance.
func NewDesignHandler(design services.DesignService, fire services.FireService) *DesignHandler {
	return &DesignHandler{
		design: design,
		fire:   fire,
	}
}

// DesignRequest represents the body of a design request.
type DesignRequest struct {
	Address         string                   `json:"address" binding:"required"`
	Building        *models.Building         `json:"building" binding:"required"`
	Requirements    *models.RackRequirements `json:"requirements" binding:"required"`
	ProjectName     string                   `json:"project_name"`
	Client          string                   `json:"client"`
	RiskCategory    string                   `json:"risk_category" binding:"omitempty,oneof=I II III IV"`
	SiteClass       string                   `json:"site_class" binding:"omitempty,oneof=A B BC C CD D DE E Default"`
	SDC             string                   `json:"sdc" binding:"omitempty,oneof=A B C D E F"`
	Commodity       string                   `json:"commodity_class"`
	StorageHeightFt float64                  `json:"storage_height_ft" binding:"gte=0"`
	Unsprinklered   bool                     `json:"unsprinklered"`
	ShimsPerFrame   *int                     `json:"shims_per_frame" binding:"omitempty,gte=0"`
	BayTypes        []models.BayType         `json:"bay_types"`
	ManualItems     []models.ManualItem      `json:"manual_items"`
	Suppliers       reference.Suppliers      `json:"suppliers"`
}

// DesignResponse is the full design plus the project it was run for.
type DesignResponse struct {
	ProjectName string `json:"project_name,omitempty"`
	Client      string `json:"client,omitempty"`
	*services.Design
}

// FireRequest represents the query parameters for the fire assessment endpoint.
type FireRequest struct {
	StorageHeightFt  float64 `form:"storage_height_ft" binding:"gte=0"`
	ClearHeightFt    float64 `form:"clear_height_ft" binding:"gte=0"`
	Commodity        string  `form:"commodity_class"`
	StorageAreaSqft  float64 `form:"storage_area_sqft" binding:"gte=0"`
	BuildingAreaSqft float64 `form:"building_area_sqft" binding:"gte=0"`
	Code             string  `form:"building_code" binding:"omitempty,oneof=IBC CBC"`
	State            string  `form:"state"`
	Unsprinklered    bool    `form:"unsprinklered"`
	SDC              string  `form:"sdc" binding:"omitempty,oneof=A B C D E F"`
	RackStyle        string  `form:"rack_style" binding:"omitempty,oneof=teardrop structural"`
	TotalFrames      int     `form:"total_frames" binding:"gte=0"`
	FrameHeightIn    int     `form:"frame_height_in" binding:"gte=0"`
}

// Design handles POST /api/design.
// It runs the full pipeline from address to BOM. No partial design is ever
// returned.
func (h *DesignHandler) Design(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req DesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	if log != nil {
		log.Info("Processing design request", map[string]interface{}{
			"address":      req.Address,
			"project_name": req.ProjectName,
			"length_ft":    req.Building.LengthFt,
			"width_ft":     req.Building.WidthFt,
			"clear_ft":     req.Building.ClearHeightFt,
		})
	}

	d, err := h.design.Design(c.Request.Context(), services.DesignRequest{
		Address: req.Address,
		Overrides: models.SiteOverrides{
			RiskCategory: models.RiskCategory(req.RiskCategory),
			SiteClass:    models.SiteClass(req.SiteClass),
			SDC:          models.SDC(req.SDC),
		},
		Building:        *req.Building,
		Requirements:    *req.Requirements,
		Commodity:       models.CommodityClass(req.Commodity),
		StorageHeightFt: req.StorageHeightFt,
		Unsprinklered:   req.Unsprinklered,
		BayTypes:        req.BayTypes,
		ManualItems:     req.ManualItems,
		ShimsPerFrame:   req.ShimsPerFrame,
		Suppliers:       req.Suppliers,
	})
	if apierrors.Handle(c, err) {
		return
	}

	c.JSON(http.StatusOK, DesignResponse{
		ProjectName: req.ProjectName,
		Client:      req.Client,
		Design:      d,
	})
}

// FireAssessment handles GET /api/fire-assessment.
func (h *DesignHandler) FireAssessment(c *gin.Context) {
	var req FireRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	out, err := h.fire.Assess(services.FireRequest{
		StorageHeightFt:  req.StorageHeightFt,
		ClearHeightFt:    req.ClearHeightFt,
		Commodity:        models.CommodityClass(req.Commodity),
		StorageAreaSqft:  req.StorageAreaSqft,
		BuildingAreaSqft: req.BuildingAreaSqft,
		Code:             models.BuildingCode(req.Code),
		State:            req.State,
		Unsprinklered:    req.Unsprinklered,
		SDC:              models.SDC(req.SDC),
		RackStyle:        models.RackStyle(req.RackStyle),
		TotalFrames:      req.TotalFrames,
		FrameHeightIn:    req.FrameHeightIn,
	})
	if apierrors.Handle(c, err) {
		return
	}

	c.JSON(http.StatusOK, out)
}
