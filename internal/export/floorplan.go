package export

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/stwalsh4118/rackplan/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FloorPlanContentType is the MIME type of a rendered floor plan.
const FloorPlanContentType = "image/svg+xml"

// DefaultScale is the floor plan resolution in pixels per foot.
const DefaultScale = 1.8

const (
	planMargin      = 80
	planTitleHeight = 80
	gridStepFt      = 50
	scaleBarFt      = 50
	columnSizeIn    = 24.0
	dockDoorMaxFt   = 12.0
)

// Drawing styles.
const (
	styleBuilding   = "fill:#FAFAFA;stroke:#333333;stroke-width:3"
	styleGrid       = "stroke:#EEEEEE;stroke-width:0.5"
	styleStaging    = "fill:#FFF8E1;stroke:#FFD54F;stroke-width:1;stroke-dasharray:8,4"
	styleStagingTxt = "text-anchor:middle;dominant-baseline:middle;font-size:14px;fill:#888888;font-style:italic"
	styleDockDoor   = "fill:#FF8A65"
	styleRow        = "fill:#4A90D9;stroke:#4A90D9;stroke-width:0.5;fill-opacity:%.2f"
	styleRowLabel   = "text-anchor:middle;font-size:7px;fill:#888888"
	styleTunnel     = "fill:#F5A623;fill-opacity:0.15;stroke:#F5A623;stroke-width:0.5;stroke-dasharray:4,4"
	styleColumn     = "fill:#888888;stroke:#555555;stroke-width:0.5"
	styleDimension  = "stroke:#4A90D9;stroke-width:1"
	styleDimText    = "font-size:12px;fill:#4A90D9;font-weight:bold"
	styleTitleBlock = "fill:#00544E"
	styleScaleBar   = "stroke:#333333;stroke-width:2"
	styleTick       = "stroke:#333333;stroke-width:1"
)

// plan maps layout feet onto drawing pixels. Layout distances along the rows
// are measured from the dock wall, which is drawn at the bottom.
type plan struct {
	canvas   *svg.SVG
	scale    float64
	widthFt  float64
	lengthFt float64
}

func (p plan) px(ft float64) int { return int(math.Round(ft * p.scale)) }

func (p plan) x(ft float64) int { return planMargin + p.px(ft) }

func (p plan) y(fromDockFt float64) int { return planMargin + p.px(p.lengthFt-fromDockFt) }

// FloorPlan draws the building shell, staging area, dock doors, rack rows,
// tunnel cross-aisles and columns of a layout as SVG. A scale of zero uses
// DefaultScale.
func FloorPlan(project string, b models.Building, l *models.Layout, scale float64) ([]byte, error) {
	if l == nil {
		return nil, errors.New("layout is required")
	}
	if b.WidthFt <= 0 || b.LengthFt <= 0 {
		return nil, fmt.Errorf("building dimensions must be positive, got %gx%g", b.LengthFt, b.WidthFt)
	}
	if scale < 0 {
		return nil, fmt.Errorf("scale must not be negative, got %g", scale)
	}
	if scale == 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	p := plan{canvas: svg.New(&buf), scale: scale, widthFt: b.WidthFt, lengthFt: b.LengthFt}
	w := p.px(b.WidthFt) + 2*planMargin
	h := p.px(b.LengthFt) + 2*planMargin + planTitleHeight

	title := strings.TrimSpace(project)
	if title == "" {
		title = "Warehouse Layout"
	}

	c := p.canvas
	c.Start(w, h,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, w, h),
		`style="font-family:Arial,Helvetica,sans-serif"`)
	c.Title(title)
	c.Rect(0, 0, w, h, "fill:white")

	p.shell(b)
	p.staging(l.Staging)
	p.dockDoors(b.DockDoors, b.DockSide)
	p.rows(l)
	p.crossAisles(l.CrossAisles)
	p.columns(l.Columns)
	p.dimensions()
	p.titleBlock(title, l, w, h)

	c.End()
	return buf.Bytes(), nil
}

func (p plan) shell(b models.Building) {
	c := p.canvas
	c.Rect(planMargin, planMargin, p.px(b.WidthFt), p.px(b.LengthFt), styleBuilding)
	for ft := 0.0; ft <= b.WidthFt; ft += gridStepFt {
		c.Line(p.x(ft), planMargin, p.x(ft), p.y(0), styleGrid)
	}
	for ft := 0.0; ft <= b.LengthFt; ft += gridStepFt {
		c.Line(planMargin, p.y(ft), p.x(b.WidthFt), p.y(ft), styleGrid)
	}
}

func (p plan) staging(s models.StagingArea) {
	if s.DepthFt <= 0 {
		return
	}
	c := p.canvas
	c.Rect(planMargin, p.y(s.DepthFt), p.px(p.widthFt), p.px(s.DepthFt), styleStaging)
	c.Text(p.x(p.widthFt/2), p.y(s.DepthFt/2), fmt.Sprintf("STAGING AREA (%.0fft)", s.DepthFt), styleStagingTxt)
}

func (p plan) dockDoors(n int, side models.DockSide) {
	c := p.canvas
	if n > 0 {
		spacing := p.widthFt / float64(n+1)
		doorFt := math.Min(dockDoorMaxFt, spacing)
		for i := 1; i <= n; i++ {
			center := spacing * float64(i)
			c.Roundrect(p.x(center-doorFt/2), p.y(0)-4, p.px(doorFt), 8, 2, 2, styleDockDoor)
		}
	}
	label := "DOCK DOORS"
	if side != "" {
		label += " (" + strings.ToUpper(string(side)) + ")"
	}
	c.Text(p.x(p.widthFt/2), p.y(0)+20, label, "text-anchor:middle;font-size:12px;font-weight:bold;fill:#FF8A65")
}

func (p plan) rows(l *models.Layout) {
	c := p.canvas
	depth := p.px(l.FrameDepthIn / 12)
	for _, r := range l.Rows {
		opacity := 0.85
		if r.Side == models.RowWall {
			opacity = 0.65
		}
		top, bottom := p.y(r.YEndFt), p.y(r.YStartFt)
		c.Roundrect(p.x(r.XFt), top, depth, bottom-top, 1, 1, fmt.Sprintf(styleRow, opacity))
		if r.PairID >= 0 && r.Side == models.RowLeft {
			c.Text(p.x(r.XFt)+depth/2, top-4, fmt.Sprintf("P%d", r.PairID), styleRowLabel)
		}
	}
}

func (p plan) crossAisles(aisles []models.CrossAisle) {
	for _, ca := range aisles {
		p.canvas.Rect(planMargin, p.y(ca.YFt+ca.WidthFt), p.px(p.widthFt), p.px(ca.WidthFt), styleTunnel)
	}
}

func (p plan) columns(cols []models.Column) {
	size := p.px(columnSizeIn / 12)
	for _, col := range cols {
		p.canvas.Rect(p.x(col.XFt)-size/2, p.y(col.YFt)-size/2, size, size, styleColumn)
	}
}

func (p plan) dimensions() {
	c := p.canvas
	top := planMargin - 25
	c.Line(planMargin, top, p.x(p.widthFt), top, styleDimension)
	c.Text(p.x(p.widthFt/2), top-5, fmt.Sprintf("%.0fft", p.widthFt), "text-anchor:middle;"+styleDimText)

	right := p.x(p.widthFt) + 25
	mid := p.y(p.lengthFt / 2)
	c.Line(right, planMargin, right, p.y(0), styleDimension)
	c.Text(right+5, mid, fmt.Sprintf("%.0fft", p.lengthFt), styleDimText,
		fmt.Sprintf(`transform="rotate(90,%d,%d)"`, right+5, mid))

	barW := p.px(scaleBarFt)
	barX := p.x(p.widthFt) - barW
	barY := planMargin - 15
	c.Line(barX, barY, barX+barW, barY, styleScaleBar)
	c.Line(barX, barY-4, barX, barY+4, styleTick)
	c.Line(barX+barW, barY-4, barX+barW, barY+4, styleTick)
	c.Text(barX+barW/2, barY-6, fmt.Sprintf("%dft", scaleBarFt), "text-anchor:middle;font-size:9px;fill:#333333")
}

func (p plan) titleBlock(title string, l *models.Layout, w, h int) {
	c := p.canvas
	top := h - planTitleHeight
	c.Rect(0, top, w, planTitleHeight, styleTitleBlock)
	c.Text(20, top+25, title, "font-size:18px;font-weight:bold;fill:#FFFFFF")

	pr := message.NewPrinter(language.English)
	specs := pr.Sprintf(`%d Pallet Positions  |  %d Bays  |  %d Rows  |  %.0fft Frames  |  %d Levels  |  %d" Beams  |  %.0fft Aisles`,
		l.TotalPalletPositions, l.TotalBays, l.TotalRows, float64(l.FrameHeightIn)/12,
		l.BeamLevels, l.BeamLengthIn, float64(l.AisleWidthIn)/12)
	c.Text(20, top+48, specs, "font-size:11px;fill:#FFFFFF;fill-opacity:0.8")
	c.Text(20, top+65, "SELECTIVE RACK  |  PRELIMINARY DESIGN", "font-size:10px;fill:#FFFFFF;fill-opacity:0.6")
}
