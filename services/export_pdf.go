package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateQuotePDF creates a quote PDF from export data using maroto/v2.
// It returns the raw PDF bytes or an error.
func GenerateQuotePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)

	addSectionHeader(m, "Specification", "Value")
	for i, s := range data.Specs {
		addPairRow(m, s.Label, s.Value, i%2 == 1, false)
	}

	m.AddRows(row.New(6))

	addSectionHeader(m, "Item", "Amount")
	for i, item := range data.Items {
		addPairRow(m, item.Label, FormatMoney(data.CurrencySymbol, item.Amount), i%2 == 1, item.Amount < 0)
	}

	addSummary(m, data)
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the title, quote number, customer and date to the PDF.
func addHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	left := props.Text{Size: 9, Align: align.Left, Color: grey}
	right := props.Text{Size: 9, Align: align.Right, Color: grey}

	customer := data.CustomerName
	if customer == "" {
		customer = "-"
	}
	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("Customer: "+customer, left)),
			col.New(6).Add(text.New("Date: "+data.CreatedDate, right)),
		),
		row.New(6).Add(
			col.New(6).Add(text.New("Quote: "+data.QuoteNumber, left)),
			col.New(6).Add(text.New("Payment: "+data.PaymentMethod, right)),
		),
	)

	m.AddRows(row.New(4))
}

// addSectionHeader adds a dark two-column header row.
func addSectionHeader(m core.Maroto, left, right string) {
	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	headerText := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	rightText := headerText
	rightText.Align = align.Right

	m.AddRows(
		row.New(8).Add(
			col.New(7).Add(text.New(left, headerText)).WithStyle(headerCell),
			col.New(5).Add(text.New(right, rightText)).WithStyle(headerCell),
		),
	)
}

// addPairRow adds one label/value row. Shaded rows alternate; discount rows
// are printed in red.
func addPairRow(m core.Maroto, label, value string, shaded, negative bool) {
	leftText := props.Text{Size: 8, Align: align.Left}
	rightText := props.Text{Size: 8, Align: align.Right}
	if negative {
		red := &props.Color{Red: 185, Green: 28, Blue: 28}
		leftText.Color = red
		rightText.Color = red
	}

	labelCol := col.New(7).Add(text.New(label, leftText))
	valueCol := col.New(5).Add(text.New(value, rightText))
	if shaded {
		cell := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
		labelCol = labelCol.WithStyle(cell)
		valueCol = valueCol.WithStyle(cell)
	}

	m.AddRows(row.New(7).Add(labelCol, valueCol))
}

// addSummary adds subtotal, weight, test fee and total at the bottom of the PDF.
func addSummary(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := labelStyle

	lines := [][2]string{
		{"Subtotal", FormatMoney(data.CurrencySymbol, data.Subtotal)},
		{"Shipping weight", FormatWeight(data.Weight)},
	}
	if data.TestFee > 0 {
		lines = append(lines, [2]string{"E-test fee (not included)", FormatMoney(data.CurrencySymbol, data.TestFee)})
	}
	lines = append(lines, [2]string{"Total", FormatMoney(data.CurrencySymbol, data.Total)})

	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(7).Add(text.New(l[0], labelStyle)).WithStyle(summaryCell),
				col.New(5).Add(text.New(l[1], valueStyle)).WithStyle(summaryCell),
			),
		)
	}
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s. Prices are valid for 7 days.", data.CreatedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
