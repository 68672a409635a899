// Package export renders design artifacts: the pricing model as an xlsx
// workbook with live formulas, and the layout as an SVG floor plan.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/pricing"
	"github.com/xuri/excelize/v2"
)

// SheetName is the only sheet in the workbook.
const SheetName = "Pricing"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Number formats.
const (
	fmtMoney   = `_("$"* #,##0.00_);_("$"* \(#,##0.00\);_("$"* "-"??_);_(@_)`
	fmtWhole   = `_("$"* #,##0_);_("$"* \(#,##0\);_("$"* "-"??_);_(@_)`
	fmtNumber  = `_(* #,##0_);_(* \(#,##0\);_(* "-"??_);_(@_)`
	fmtDecimal = `_(* #,##0.0_);_(* \(#,##0.0\);_(* "-"??_);_(@_)`
	fmtPercent = `0.0%`
	fmtDollar  = `"$"#,##0.00`
)

// Fixed sidebar cells.
const (
	summaryFirstRow    = 8
	palletRow          = 21
	comparisonMinStart = 26
)

var columnWidths = map[string]float64{
	"A": 46.83, "B": 20.83, "C": 29.16, "D": 18.5, "E": 21.83,
	"F": 26.16, "G": 13.5, "H": 18.5, "I": 9.0,
	"J": 36.5, "K": 20.16, "L": 18.16, "M": 13.0,
}

// Project is the metadata printed into the workbook properties.
type Project struct {
	Name            string
	Client          string
	PalletPositions int
}

// styles holds the style ids the sheet uses.
type styles struct {
	bold, header, center, boldCenter int
	money, whole, boldWhole, dollar  int
	number, dec, pct                 int
}

type writer struct {
	f   *excelize.File
	st  styles
	err error
}

func (w *writer) set(col string, row int, v interface{}, style int) {
	if w.err != nil {
		return
	}
	cell := fmt.Sprintf("%s%d", col, row)
	if s, ok := v.(string); ok && strings.HasPrefix(s, "=") {
		w.err = w.f.SetCellFormula(SheetName, cell, s)
	} else {
		w.err = w.f.SetCellValue(SheetName, cell, v)
	}
	if w.err == nil && style != 0 {
		w.err = w.f.SetCellStyle(SheetName, cell, cell, style)
	}
}

func (w *writer) style(s *excelize.Style) int {
	if w.err != nil {
		return 0
	}
	id, err := w.f.NewStyle(s)
	if err != nil {
		w.err = err
	}
	return id
}

func custom(format string) *string { return &format }

// PricingWorkbook renders the "Pricing" sheet. Unit costs are written as
// values; prices, totals and the summary are formulas over them.
func PricingWorkbook(project Project, m *models.PricingModel) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	w := &writer{f: f}
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       project.Name + " Pricing Model",
		Subject:     project.Client,
		Creator:     "rackplan",
		Description: fmt.Sprintf("%d pallet positions", project.PalletPositions),
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	bold := &excelize.Font{Bold: true, Family: "Calibri", Size: 11}
	w.st = styles{
		bold:       w.style(&excelize.Style{Font: bold}),
		header:     w.style(&excelize.Style{Font: bold, Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}}}),
		center:     w.style(&excelize.Style{Font: bold, Alignment: &excelize.Alignment{Horizontal: "center"}, Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}}}),
		money:      w.style(&excelize.Style{CustomNumFmt: custom(fmtMoney)}),
		whole:      w.style(&excelize.Style{CustomNumFmt: custom(fmtWhole)}),
		boldWhole:  w.style(&excelize.Style{Font: bold, CustomNumFmt: custom(fmtWhole)}),
		number:     w.style(&excelize.Style{CustomNumFmt: custom(fmtNumber)}),
		dec:        w.style(&excelize.Style{CustomNumFmt: custom(fmtDecimal)}),
		pct:        w.style(&excelize.Style{CustomNumFmt: custom(fmtPercent)}),
		dollar:     w.style(&excelize.Style{CustomNumFmt: custom(fmtDollar)}),
		boldCenter: w.style(&excelize.Style{Font: bold, Alignment: &excelize.Alignment{Horizontal: "center"}}),
	}

	for i, h := range []string{"Item", "QTY", "MFG", "Cost", "Price", "Total Cost", "Total Price", "%"} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		style := w.st.header
		if h == "%" {
			style = w.st.center
		}
		w.set(col, 1, h, style)
	}

	w.set("A", 2, "Materials:", w.st.bold)
	w.set("H", 3, pctFormula(3), w.st.pct)
	w.set("J", 3, "Project Margin", 0)
	w.set("K", 3, m.Margin.InexactFloat64(), w.st.pct) // margin cell read by every price formula

	row := 4
	bySection := map[models.Section][]models.PriceLine{}
	for _, l := range m.Lines {
		bySection[l.Section] = append(bySection[l.Section], l)
	}

	// Materials.
	matRows := w.lines(&row, bySection[models.SectionMaterials], false)
	w.set("H", row, pctFormula(row), w.st.pct)
	row++

	// Install.
	w.set("A", row, "Install:", w.st.bold)
	row++
	installRows := w.lines(&row, bySection[models.SectionInstall], false)
	for i := 0; i < 2; i++ {
		w.set("H", row, pctFormula(row), w.st.pct)
		row++
	}

	// Freight.
	w.set("A", row, "Freight", w.st.bold)
	w.set("H", row, pctFormula(row), w.st.pct)
	row++
	freightRows := w.lines(&row, bySection[models.SectionFreight], true)
	row++

	// Services, listed without a label.
	serviceLines := bySection[models.SectionServices]
	serviceRows := w.lines(&row, serviceLines, false)
	lastLine := row - 1

	total := row
	w.set("A", total, "Grand Total", w.st.bold)
	w.set("F", total, fmt.Sprintf("=SUM(F3:F%d)", lastLine), w.st.boldWhole)
	w.set("G", total, fmt.Sprintf("=SUM(G3:G%d)", lastLine), w.st.boldWhole)
	row++
	w.set("A", row, "Profit | Margin", w.st.bold)
	w.set("F", row, fmt.Sprintf("=G%d-F%d", total, total), w.st.whole)
	w.set("G", row, fmt.Sprintf("=IFERROR(F%d/G%d,0)", row, total), w.st.pct)

	// Pricing summary sidebar.
	var mgmt, eng []int
	for i, l := range serviceLines {
		if l.Description == pricing.ServiceEngineering || l.Description == pricing.ServiceHighPile {
			eng = append(eng, serviceRows[i])
		} else {
			mgmt = append(mgmt, serviceRows[i])
		}
	}
	w.set("J", 6, "Pricing Summary", w.st.boldCenter)
	w.set("K", 7, "Domestic", w.st.bold)
	summary := []struct {
		label   string
		formula string
	}{
		{"Rack Material", sumRows(matRows)},
		{"Installation", sumRows(installRows)},
		{"Freight", sumRows(freightRows)},
		{"Project Management & Permit Services", addRows(mgmt)},
		{"Engineering Calculations & High Pile", addRows(eng)},
	}
	for i, s := range summary {
		r := summaryFirstRow + i
		w.set("J", r, s.label, 0)
		w.set("K", r, s.formula, w.st.whole)
	}
	totalRow := summaryFirstRow + len(summary)
	w.set("J", totalRow, "Project Total", w.st.bold)
	w.set("K", totalRow, fmt.Sprintf("=SUM(K%d:K%d)", summaryFirstRow, totalRow-1), w.st.boldWhole)

	w.set("J", palletRow, "Pallet Positions", w.st.bold)
	w.set("K", palletRow, project.PalletPositions, w.st.number)
	w.set("L", palletRow, fmt.Sprintf("=IFERROR(K%d/K%d,0)", totalRow, palletRow), w.st.dollar)

	// Model vs quote comparison.
	start := total + 4
	if start < comparisonMinStart {
		start = comparisonMinStart
	}
	var materialMfgs, freightMfgs []string
	seen := map[string]bool{}
	for _, l := range bySection[models.SectionMaterials] {
		if l.Manufacturer != "" && !seen[l.Manufacturer] {
			seen[l.Manufacturer] = true
			materialMfgs = append(materialMfgs, l.Manufacturer)
		}
	}
	for _, l := range bySection[models.SectionFreight] {
		freightMfgs = append(freightMfgs, l.Description)
	}
	next := w.comparison(start, "Materials", materialMfgs)
	next = w.comparison(next, "Freight", freightMfgs)
	w.set("J", next, "Labor", w.st.bold)
	w.set("K", next, "Model", w.st.boldCenter)
	w.set("L", next, "Quote", w.st.boldCenter)

	if w.err != nil {
		return nil, fmt.Errorf("write pricing sheet: %w", w.err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// lines writes priced rows starting at *row and returns the row numbers
// used. Freight rows put the supplier in column A and the freight label in
// column C so the comparison table can match on it.
func (w *writer) lines(row *int, lines []models.PriceLine, freight bool) []int {
	var rows []int
	for _, l := range lines {
		r := *row
		item, mfg := l.Description, l.Manufacturer
		if freight {
			item, mfg = l.Manufacturer, l.Description
			if item == "" {
				item = l.Description
			}
		}
		qtyStyle := 0
		if l.Section == models.SectionServices {
			qtyStyle = w.st.dec
		}
		w.set("A", r, item, 0)
		w.set("B", r, l.Quantity.InexactFloat64(), qtyStyle)
		if mfg != "" {
			w.set("C", r, mfg, 0)
		}
		w.set("D", r, l.UnitCost.InexactFloat64(), w.st.money)
		w.set("E", r, priceFormula(r), w.st.money)
		w.set("F", r, fmt.Sprintf("=D%d*B%d", r, r), w.st.whole)
		w.set("G", r, fmt.Sprintf("=B%d*E%d", r, r), w.st.whole)
		w.set("H", r, pctFormula(r), w.st.pct)
		rows = append(rows, r)
		*row++
	}
	return rows
}

// comparison writes a model-vs-quote block and returns the next free row.
func (w *writer) comparison(start int, title string, names []string) int {
	w.set("J", start, title, w.st.bold)
	w.set("K", start, "Model", w.st.boldCenter)
	w.set("L", start, "Quote", w.st.boldCenter)

	r := start + 1
	for _, name := range names {
		w.set("J", r, name, 0)
		w.set("K", r, fmt.Sprintf("=SUMIF($C:$C,J%d,$F:$F)", r), w.st.whole)
		w.set("L", r, 0, w.st.whole)
		w.set("M", r, fmt.Sprintf("=L%d-K%d", r, r), w.st.money)
		r++
	}
	r++
	w.set("J", r, "Total", w.st.bold)
	if len(names) > 0 {
		first, last := start+1, start+len(names)
		w.set("K", r, fmt.Sprintf("=SUM(K%d:K%d)", first, last), w.st.boldWhole)
		w.set("L", r, fmt.Sprintf("=SUM(L%d:L%d)", first, last), w.st.boldWhole)
	} else {
		w.set("K", r, 0, w.st.boldWhole)
		w.set("L", r, 0, w.st.boldWhole)
	}
	w.set("M", r, fmt.Sprintf("=L%d-K%d", r, r), w.st.money)
	return r + 2
}

func priceFormula(row int) string {
	return fmt.Sprintf("=ROUND(D%d/(1-$K$3),2)", row)
}

func pctFormula(row int) string {
	return fmt.Sprintf(`=IFERROR((E%d-D%d)/E%d,"")`, row, row, row)
}

func sumRows(rows []int) string {
	if len(rows) == 0 {
		return "=0"
	}
	return fmt.Sprintf("=SUM(G%d:G%d)", rows[0], rows[len(rows)-1])
}

func addRows(rows []int) string {
	if len(rows) == 0 {
		return "=0"
	}
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("G%d", r)
	}
	return "=" + strings.Join(parts, "+")
}

// Filename builds a safe attachment name from a project name.
func Filename(project string) string {
	var b strings.Builder
	for _, r := range project {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
		if b.Len() >= 40 {
			break
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		name = "BOM"
	}
	return name + "_Pricing_Model.xlsx"
}
