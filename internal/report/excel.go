package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/xuri/excelize/v2"
)

type sheetStyles struct {
	title  int
	header int
	cell   int
	money  int
	total  int
}

func newSheet(name string, widths []float64) (*excelize.File, *sheetStyles, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("set sheet name: %w", err)
	}
	for i, w := range widths {
		c, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(name, c, c, w); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("set col width %s: %w", c, err)
		}
	}
	st, err := buildStyles(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, st, nil
}

func buildStyles(f *excelize.File) (*sheetStyles, error) {
	var st sheetStyles
	var err error
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if st.cell, err = f.NewStyle(&excelize.Style{Border: thinBorders()}); err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}
	numFmt := "#,##0.00"
	if st.money, err = f.NewStyle(&excelize.Style{Border: thinBorders(), CustomNumFmt: &numFmt}); err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	st.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}
	return &st, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeHeader(f *excelize.File, sheet string, st *sheetStyles, row int, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellName(i+1, row), h)
	}
	f.SetCellStyle(sheet, cellName(1, row), cellName(len(headers), row), st.header)
}

func finish(f *excelize.File, what string) ([]byte, error) {
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write %s excel: %w", what, err)
	}
	return buf.Bytes(), nil
}

// InventoryXLSX exports the stock list with numeric quantity, price and value
// columns so the sheet can be summed.
func (r *Renderer) InventoryXLSX(items []models.InventoryItem) ([]byte, error) {
	const sheet = "Inventory"
	f, st, err := newSheet(sheet, []float64{16, 40, 10, 14, 16, 20})
	if err != nil {
		return nil, err
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(r.ShopName+" inventory"))
	f.SetCellStyle(sheet, "A1", "A1", st.title)
	f.SetCellValue(sheet, "A2", "Generated "+r.Now().Format("2006-01-02 15:04"))

	writeHeader(f, sheet, st, 4, []string{"Item code", "Description", "Quantity", "Unit price", "Value", "Last updated"})
	row := 5
	values := make([]float64, 0, len(items))
	for _, it := range items {
		values = append(values, it.Value())
		f.SetCellValue(sheet, cellName(1, row), sanitizeExcelCell(it.ItemCode))
		f.SetCellValue(sheet, cellName(2, row), sanitizeExcelCell(it.Description))
		f.SetCellValue(sheet, cellName(3, row), it.Quantity)
		f.SetCellValue(sheet, cellName(4, row), it.UnitPrice)
		f.SetCellValue(sheet, cellName(5, row), it.Value())
		f.SetCellValue(sheet, cellName(6, row), it.LastUpdated.Format("2006-01-02 15:04"))
		f.SetCellStyle(sheet, cellName(1, row), cellName(3, row), st.cell)
		f.SetCellStyle(sheet, cellName(4, row), cellName(5, row), st.money)
		f.SetCellStyle(sheet, cellName(6, row), cellName(6, row), st.cell)
		row++
	}
	f.SetCellValue(sheet, cellName(4, row), "Total")
	f.SetCellValue(sheet, cellName(5, row), Sum(values...))
	f.SetCellStyle(sheet, cellName(4, row), cellName(5, row), st.total)
	return finish(f, "inventory")
}

// EstimatesXLSX exports the estimates dated within [from, to] with every
// stored amount in its own column.
func (r *Renderer) EstimatesXLSX(from, to time.Time, ests []models.Estimate) ([]byte, error) {
	const sheet = "Estimates"
	f, st, err := newSheet(sheet, []float64{8, 12, 26, 18, 28, 12, 12, 12, 12, 12, 12, 14})
	if err != nil {
		return nil, err
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(r.ShopName+" estimates"))
	f.SetCellStyle(sheet, "A1", "A1", st.title)
	f.SetCellValue(sheet, "A2", from.Format("2006-01-02")+" to "+to.Format("2006-01-02"))

	headers := []string{"ID", "Date", "Customer", "Phone", "Vehicle", "Status",
		"Subtotal", "NHIL", "GETFund", "COVID-19", "VAT", "Total"}
	writeHeader(f, sheet, st, 4, headers)
	row := 5
	sums := make([][]float64, 6)
	for _, e := range ests {
		f.SetCellValue(sheet, cellName(1, row), e.ID)
		f.SetCellValue(sheet, cellName(2, row), e.Date.Format("2006-01-02"))
		f.SetCellValue(sheet, cellName(3, row), sanitizeExcelCell(e.Customer.Name))
		f.SetCellValue(sheet, cellName(4, row), sanitizeExcelCell(e.Customer.Phone))
		f.SetCellValue(sheet, cellName(5, row), sanitizeExcelCell(e.Vehicle.FullName()))
		f.SetCellValue(sheet, cellName(6, row), sanitizeExcelCell(string(e.Status)))
		amounts := []float64{e.Subtotal, e.NHIL, e.GETFund, e.COVIDLevy, e.VAT, e.TotalAmount}
		for i, a := range amounts {
			f.SetCellValue(sheet, cellName(7+i, row), a)
			sums[i] = append(sums[i], a)
		}
		f.SetCellStyle(sheet, cellName(1, row), cellName(6, row), st.cell)
		f.SetCellStyle(sheet, cellName(7, row), cellName(12, row), st.money)
		row++
	}
	f.SetCellValue(sheet, cellName(6, row), "Total")
	for i, s := range sums {
		f.SetCellValue(sheet, cellName(7+i, row), Sum(s...))
	}
	f.SetCellStyle(sheet, cellName(6, row), cellName(12, row), st.total)
	return finish(f, "estimates")
}

// sanitizeExcelCell keeps user text from being read as a formula.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
