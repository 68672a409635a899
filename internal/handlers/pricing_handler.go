package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	apierrors "github.com/stwalsh4118/rackplan/internal/errors"
	"github.com/stwalsh4118/rackplan/internal/export"
	"github.com/stwalsh4118/rackplan/internal/middleware"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/pricing"
	"github.com/stwalsh4118/rackplan/internal/reference"
	"github.com/stwalsh4118/rackplan/internal/services"
)

// PricingHandler handles pricing models and the spreadsheet export.
type PricingHandler struct {
	service services.PricingService
	bom     services.BOMService
}

// NewPricingHandler creates a new PricingHandler instance. bom computes the
// inline bom_request some callers send instead of a computed BOM.
func NewPricingHandler(service services.PricingService, bom services.BOMService) *PricingHandler {
	return &PricingHandler{
		service: service,
		bom:     bom,
	}
}

// PricingRequest represents the body of a pricing or xlsx request. Material
// lines come either from a BOM priced by unit_costs or from bom_request.
type PricingRequest struct {
	ProjectName     string                     `json:"project_name"`
	Client          string                     `json:"client"`
	Margin          *decimal.Decimal           `json:"margin"`
	BOM             *models.BOM                `json:"bom"`
	BOMRequest      *BOMRequest                `json:"bom_request"`
	UnitCosts       map[string]decimal.Decimal `json:"unit_costs"`
	Lines           []pricing.LineInput        `json:"lines"`
	PalletPositions int                        `json:"pallet_positions" binding:"gte=0"`
	Suppliers       reference.Suppliers        `json:"suppliers"`
}

// Price handles POST /api/pricing.
func (h *PricingHandler) Price(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	m, err := h.service.Build(req)
	if apierrors.Handle(c, err) {
		return
	}

	c.JSON(http.StatusOK, m)
}

// GenerateXLSX handles POST /api/generate-xlsx.
// It returns the pricing model as a spreadsheet attachment.
func (h *PricingHandler) GenerateXLSX(c *gin.Context) {
	log := middleware.GetLogger(c)

	req, ok := h.bind(c)
	if !ok {
		return
	}

	wb, err := h.service.Workbook(req)
	if apierrors.Handle(c, err) {
		return
	}

	if log != nil {
		log.Info("Generated pricing workbook", map[string]interface{}{
			"filename": wb.Filename,
			"bytes":    len(wb.Data),
			"lines":    len(wb.Model.Lines),
		})
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, wb.Filename))
	c.Data(http.StatusOK, export.ContentType, wb.Data)
}

// bind decodes the body and resolves an inline BOM request. It writes the
// error response and returns false on failure.
func (h *PricingHandler) bind(c *gin.Context) (services.PricingRequest, bool) {
	var req PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return services.PricingRequest{}, false
	}

	bom := req.BOM
	if bom == nil && req.BOMRequest != nil {
		var err error
		bom, err = h.bom.Compute(toBOMRequest(*req.BOMRequest))
		if apierrors.Handle(c, err) {
			return services.PricingRequest{}, false
		}
	}

	return services.PricingRequest{
		Margin:          req.Margin,
		BOM:             bom,
		UnitCosts:       req.UnitCosts,
		Lines:           req.Lines,
		PalletPositions: req.PalletPositions,
		Suppliers:       req.Suppliers,
		ProjectName:     req.ProjectName,
		Client:          req.Client,
	}, true
}
