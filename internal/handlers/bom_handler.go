package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/rackplan/internal/errors"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
	"github.com/stwalsh4118/rackplan/internal/services"
)

// BOMHandler handles standalone BOM computation.
type BOMHandler struct {
	service services.BOMService
}

// NewBOMHandler creates a new BOMHandler instance.
func NewBOMHandler(service services.BOMService) *BOMHandler {
	return &BOMHandler{
		service: service,
	}
}

// BOMRequest represents the body of a BOM request.
type BOMRequest struct {
	BayTypes           []models.BayType    `json:"bay_types" binding:"required,min=1"`
	RowCount           int                 `json:"row_count" binding:"gte=0"`
	SDC                string              `json:"sdc" binding:"omitempty,oneof=A B C D E F"`
	Code               string              `json:"building_code" binding:"omitempty,oneof=IBC CBC"`
	RackStyle          string              `json:"rack_style" binding:"required,oneof=teardrop structural"`
	FrameHeightIn      int                 `json:"frame_height_in" binding:"gte=0"`
	FrameDepthIn       float64             `json:"frame_depth_in" binding:"required,gt=0"`
	DeckWidthIn        int                 `json:"deck_width_in" binding:"gte=0"`
	ShimsPerFrame      *int                `json:"shims_per_frame" binding:"omitempty,gte=0"`
	StructuralHardware *bool               `json:"structural_hardware"`
	ManualItems        []models.ManualItem `json:"manual_items"`
	Suppliers          reference.Suppliers `json:"suppliers"`
}

// BOMResponse wraps a computed BOM.
type BOMResponse struct {
	BOM *models.BOM `json:"bom"`
}

// Compute handles POST /api/bom.
func (h *BOMHandler) Compute(c *gin.Context) {
	var req BOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	out, err := h.service.Compute(toBOMRequest(req))
	if apierrors.Handle(c, err) {
		return
	}

	c.JSON(http.StatusOK, BOMResponse{BOM: out})
}

func toBOMRequest(req BOMRequest) services.BOMRequest {
	return services.BOMRequest{
		BayTypes:           req.BayTypes,
		RowCount:           req.RowCount,
		SDC:                models.SDC(req.SDC),
		Code:               models.BuildingCode(req.Code),
		RackStyle:          models.RackStyle(req.RackStyle),
		FrameHeightIn:      req.FrameHeightIn,
		FrameDepthIn:       req.FrameDepthIn,
		DeckWidthIn:        req.DeckWidthIn,
		ShimsPerFrame:      req.ShimsPerFrame,
		StructuralHardware: req.StructuralHardware,
		ManualItems:        req.ManualItems,
		Suppliers:          req.Suppliers,
	}
}
