package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/rackplan/internal/errors"
	"github.com/stwalsh4118/rackplan/internal/export"
	"github.com/stwalsh4118/rackplan/internal/middleware"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/services"
)

// LayoutHandler handles floor plan rendering.
type LayoutHandler struct {
	service services.LayoutService
}

// NewLayoutHandler creates a new LayoutHandler instance.
func NewLayoutHandler(service services.LayoutService) *LayoutHandler {
	return &LayoutHandler{service: service}
}

// LayoutRequest represents the body of a floor plan request.
type LayoutRequest struct {
	Building        *models.Building         `json:"building" binding:"required"`
	Requirements    *models.RackRequirements `json:"requirements" binding:"required"`
	ProjectName     string                   `json:"project_name"`
	Commodity       string                   `json:"commodity_class"`
	StorageHeightFt float64                  `json:"storage_height_ft" binding:"gte=0"`
	Unsprinklered   bool                     `json:"unsprinklered"`
	Code            string                   `json:"building_code" binding:"omitempty,oneof=IBC CBC"`
	State           string                   `json:"state"`
	Scale           float64                  `json:"scale" binding:"gte=0"`
}

// FloorPlan handles POST /api/layout-svg.
// It synthesizes the layout and returns it drawn as SVG.
func (h *LayoutHandler) FloorPlan(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	plan, err := h.service.FloorPlan(services.LayoutRequest{
		Building:        *req.Building,
		Requirements:    *req.Requirements,
		Commodity:       models.CommodityClass(req.Commodity),
		StorageHeightFt: req.StorageHeightFt,
		Unsprinklered:   req.Unsprinklered,
		Code:            models.BuildingCode(req.Code),
		State:           req.State,
		ProjectName:     req.ProjectName,
		Scale:           req.Scale,
	})
	if apierrors.Handle(c, err) {
		return
	}

	if log != nil {
		log.Info("Rendered floor plan", map[string]interface{}{
			"project_name": req.ProjectName,
			"rows":         plan.Layout.TotalRows,
			"bytes":        len(plan.Data),
		})
	}

	c.Data(http.StatusOK, export.FloorPlanContentType, plan.Data)
}
