package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	grey     = &props.Color{Red: 100, Green: 100, Blue: 100}
	headerBg = &props.Color{Red: 230, Green: 230, Blue: 230}
	altBg    = &props.Color{Red: 248, Green: 248, Blue: 248}

	labelText  = props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: grey}
	valueText  = props.Text{Size: 9, Align: align.Left}
	headLeft   = props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left, Top: 1.5, Left: 1}
	headRight  = props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right, Top: 1.5, Right: 1}
	cellLeft   = props.Text{Size: 8, Align: align.Left, Top: 1.5, Left: 1}
	cellRight  = props.Text{Size: 8, Align: align.Right, Top: 1.5, Right: 1}
	totalLabel = props.Text{Size: 9, Align: align.Right, Right: 1}
	totalValue = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Right: 1}
)

// column is one table cell; size is in grid units out of 12.
type column struct {
	size  int
	value string
	right bool
}

func (r *Renderer) newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   grey,
		}).
		Build()
	return maroto.New(cfg)
}

func generate(m core.Maroto, what string) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate %s pdf: %w", what, err)
	}
	return doc.GetBytes(), nil
}

func (r *Renderer) addTitle(m core.Maroto, title, ref string) {
	m.AddRows(
		row.New(10).Add(
			col.New(7).Add(text.New(r.ShopName, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Left})),
			col.New(5).Add(text.New(title, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(6).Add(
			col.New(7).Add(text.New("Generated "+r.Now().Format("2006-01-02 15:04"), props.Text{Size: 8, Align: align.Left, Color: grey})),
			col.New(5).Add(text.New(ref, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(4),
	)
}

func addSection(m core.Maroto, label string) {
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New(label, labelText))))
}

func addField(m core.Maroto, label, value string) {
	m.AddRows(row.New(5).Add(
		col.New(3).Add(text.New(label, props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left})),
		col.New(9).Add(text.New(value, valueText)),
	))
}

func tableRow(cells []column, style *props.Cell, header bool) core.Row {
	cols := make([]core.Col, 0, len(cells))
	for _, c := range cells {
		ps := cellLeft
		switch {
		case header && c.right:
			ps = headRight
		case header:
			ps = headLeft
		case c.right:
			ps = cellRight
		}
		cl := col.New(c.size).Add(text.New(c.value, ps))
		if style != nil {
			cl = cl.WithStyle(style)
		}
		cols = append(cols, cl)
	}
	return row.New(7).Add(cols...)
}

func addTable(m core.Maroto, header []column, body [][]column) {
	m.AddRows(tableRow(header, &props.Cell{BackgroundColor: headerBg}, true))
	for i, cells := range body {
		var style *props.Cell
		if i%2 == 1 {
			style = &props.Cell{BackgroundColor: altBg}
		}
		m.AddRows(tableRow(cells, style, false))
	}
}

func addTotal(m core.Maroto, label, value string, bold bool) {
	vs := totalLabel
	if bold {
		vs = totalValue
	}
	m.AddRows(row.New(6).Add(
		col.New(8),
		col.New(2).Add(text.New(label, totalLabel)),
		col.New(2).Add(text.New(value, vs)),
	))
}

func (r *Renderer) addCustomerVehicle(m core.Maroto, c models.Customer, v models.Vehicle) {
	addSection(m, "CUSTOMER")
	addField(m, "Name", c.Name)
	addField(m, "Phone", orNA(c.Phone))
	addField(m, "Email", orNA(c.Email))
	m.AddRows(row.New(3))
	addSection(m, "VEHICLE")
	addField(m, "Vehicle", v.FullName())
	addField(m, "VIN", orNA(v.VIN))
	addField(m, "License plate", orNA(v.LicensePlate))
	addField(m, "Mileage", strconv.Itoa(v.Mileage))
	m.AddRows(row.New(3))
}

// EstimatePDF renders a quotation with its lines and the stored price
// breakdown. Amounts are printed as stored and never recomputed.
func (r *Renderer) EstimatePDF(est *models.Estimate) ([]byte, error) {
	if est == nil {
		return nil, fmt.Errorf("estimate pdf: no estimate")
	}
	m := r.newDocument()
	r.addTitle(m, "ESTIMATE", fmt.Sprintf("Estimate #%d", est.ID))
	addField(m, "Date", est.Date.Format("2006-01-02"))
	addField(m, "Status", string(est.Status))
	m.AddRows(row.New(3))
	r.addCustomerVehicle(m, est.Customer, est.Vehicle)

	if len(est.Services) > 0 {
		addSection(m, "SERVICES")
		body := make([][]column, 0, len(est.Services))
		for i, s := range est.Services {
			body = append(body, []column{
				{size: 1, value: strconv.Itoa(i + 1)},
				{size: 5, value: s.Description},
				{size: 2, value: Amount(s.PartsCost), right: true},
				{size: 2, value: Amount(s.LaborCost), right: true},
				{size: 2, value: Amount(s.TotalCost), right: true},
			})
		}
		addTable(m, []column{
			{size: 1, value: "#"},
			{size: 5, value: "Description"},
			{size: 2, value: "Parts", right: true},
			{size: 2, value: "Labor", right: true},
			{size: 2, value: "Total", right: true},
		}, body)
		addTotal(m, "Lines total", r.Money(est.ServicesTotal()), false)
		m.AddRows(row.New(3))
	}

	addTotal(m, "Subtotal", r.Money(est.Subtotal), false)
	addTotal(m, "NHIL (2.5%)", r.Money(est.NHIL), false)
	addTotal(m, "GETFund (2.5%)", r.Money(est.GETFund), false)
	addTotal(m, "COVID-19 (1%)", r.Money(est.COVIDLevy), false)
	addTotal(m, "Levied amount", r.Money(est.LeviedAmount()), false)
	addTotal(m, "VAT (15%)", r.Money(est.VAT), false)
	addTotal(m, "Total", r.Money(est.TotalAmount), true)

	if est.Notes != "" {
		m.AddRows(row.New(4))
		addSection(m, "NOTES")
		m.AddRows(row.New(12).Add(col.New(12).Add(text.New(est.Notes, valueText))))
	}
	return generate(m, "estimate")
}

// JobCardPDF renders a work order together with the estimate it was raised against.
func (r *Renderer) JobCardPDF(jc *models.JobCard, est *models.Estimate) ([]byte, error) {
	if jc == nil || est == nil {
		return nil, fmt.Errorf("job card pdf: job card and estimate are required")
	}
	m := r.newDocument()
	r.addTitle(m, "JOB CARD", fmt.Sprintf("Job card #%d", jc.ID))
	addField(m, "Estimate", fmt.Sprintf("#%d (%s)", est.ID, est.Date.Format("2006-01-02")))
	addField(m, "Status", string(jc.Status))
	addField(m, "Technician", orNA(jc.Technician))
	addField(m, "Started", dateOrDash(jc.StartDate))
	addField(m, "Completed", dateOrDash(jc.CompletionDate))
	addField(m, "Labor hours", strconv.FormatFloat(jc.LaborHours, 'f', 2, 64))
	m.AddRows(row.New(3))
	r.addCustomerVehicle(m, est.Customer, est.Vehicle)

	if len(est.Services) > 0 {
		addSection(m, "WORK TO PERFORM")
		body := make([][]column, 0, len(est.Services))
		for i, s := range est.Services {
			body = append(body, []column{
				{size: 1, value: strconv.Itoa(i + 1)},
				{size: 9, value: s.Description},
				{size: 2, value: "[  ]"},
			})
		}
		addTable(m, []column{{size: 1, value: "#"}, {size: 9, value: "Description"}, {size: 2, value: "Done"}}, body)
		m.AddRows(row.New(3))
	}
	addTotal(m, "Estimate total", r.Money(est.TotalAmount), true)

	if jc.Notes != "" {
		m.AddRows(row.New(4))
		addSection(m, "NOTES")
		m.AddRows(row.New(12).Add(col.New(12).Add(text.New(jc.Notes, valueText))))
	}
	m.AddRows(
		row.New(20),
		row.New(6).Add(
			col.New(5).Add(text.New("Technician signature", labelText)),
			col.New(2),
			col.New(5).Add(text.New("Customer signature", labelText)),
		),
	)
	return generate(m, "job card")
}

// InventoryPDF lists every item with its stock value.
func (r *Renderer) InventoryPDF(items []models.InventoryItem) ([]byte, error) {
	m := r.newDocument()
	r.addTitle(m, "INVENTORY", fmt.Sprintf("%d items", len(items)))
	body := make([][]column, 0, len(items))
	values := make([]float64, 0, len(items))
	for _, it := range items {
		values = append(values, it.Value())
		body = append(body, []column{
			{size: 2, value: it.ItemCode},
			{size: 4, value: it.Description},
			{size: 2, value: strconv.Itoa(it.Quantity), right: true},
			{size: 2, value: Amount(it.UnitPrice), right: true},
			{size: 2, value: Amount(it.Value()), right: true},
		})
	}
	addTable(m, []column{
		{size: 2, value: "Code"},
		{size: 4, value: "Description"},
		{size: 2, value: "Qty", right: true},
		{size: 2, value: "Unit price", right: true},
		{size: 2, value: "Value", right: true},
	}, body)
	m.AddRows(row.New(3))
	addTotal(m, "Stock value", r.Money(Sum(values...)), true)
	return generate(m, "inventory")
}

// EstimatesSummaryPDF lists the estimates dated within [from, to].
func (r *Renderer) EstimatesSummaryPDF(from, to time.Time, ests []models.Estimate) ([]byte, error) {
	m := r.newDocument()
	r.addTitle(m, "ESTIMATES", from.Format("2006-01-02")+" to "+to.Format("2006-01-02"))
	body, totals := estimateRows(ests)
	addTable(m, []column{
		{size: 1, value: "#"},
		{size: 2, value: "Date"},
		{size: 3, value: "Customer"},
		{size: 3, value: "Vehicle"},
		{size: 1, value: "Status"},
		{size: 2, value: "Total", right: true},
	}, body)
	m.AddRows(row.New(3))
	addTotal(m, "Estimates", strconv.Itoa(len(ests)), false)
	addTotal(m, "Grand total", r.Money(Sum(totals...)), true)
	return generate(m, "estimates summary")
}

// ServiceHistoryPDF lists one customer's estimates, newest first.
func (r *Renderer) ServiceHistoryPDF(customer string, ests []models.Estimate) ([]byte, error) {
	m := r.newDocument()
	r.addTitle(m, "SERVICE HISTORY", customer)
	if len(ests) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(text.New("No estimates on record.", valueText))))
		return generate(m, "service history")
	}
	latest := ests[0].Customer
	visits := models.CountVisits(ests)
	addField(m, "Phone", orNA(latest.Phone))
	addField(m, "Email", orNA(latest.Email))
	addField(m, "Visits", fmt.Sprintf("%d (last %s)", visits.Count, visits.Last.Format("2006-01-02")))
	m.AddRows(row.New(3))
	body, totals := estimateRows(ests)
	addTable(m, []column{
		{size: 1, value: "#"},
		{size: 2, value: "Date"},
		{size: 3, value: "Customer"},
		{size: 3, value: "Vehicle"},
		{size: 1, value: "Status"},
		{size: 2, value: "Total", right: true},
	}, body)
	m.AddRows(row.New(3))
	addTotal(m, "Lifetime total", r.Money(Sum(totals...)), true)
	return generate(m, "service history")
}

func estimateRows(ests []models.Estimate) ([][]column, []float64) {
	body := make([][]column, 0, len(ests))
	totals := make([]float64, 0, len(ests))
	for _, e := range ests {
		totals = append(totals, e.TotalAmount)
		body = append(body, []column{
			{size: 1, value: strconv.FormatUint(uint64(e.ID), 10)},
			{size: 2, value: e.Date.Format("2006-01-02")},
			{size: 3, value: e.Customer.Name},
			{size: 3, value: e.Vehicle.FullName()},
			{size: 1, value: string(e.Status)},
			{size: 2, value: Amount(e.TotalAmount), right: true},
		})
	}
	return body, totals
}
