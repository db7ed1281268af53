package services

import (
	"fmt"
	"strconv"

	"pcbquote/pricing"
)

// SpecRow is one label/value line of the board specification table.
type SpecRow struct {
	Label string
	Value string
}

// ExportData holds all data needed for a quote export.
type ExportData struct {
	Title          string
	QuoteNumber    string
	CustomerName   string
	CreatedDate    string
	CurrencySymbol string
	PaymentMethod  string
	Specs          []SpecRow
	Items          []pricing.LineItem
	TestFee        float64
	Weight         float64
	Subtotal       float64
	Total          float64
}

// BuildExportData flattens a stored quote for the Excel and PDF writers.
func BuildExportData(q StoredQuote, currencySymbol string) ExportData {
	return ExportData{
		Title:          "PCB Quote " + q.Number,
		QuoteNumber:    q.Number,
		CustomerName:   q.CustomerName,
		CreatedDate:    q.Created.Format("02 Jan 2006"),
		CurrencySymbol: currencySymbol,
		PaymentMethod:  PaymentLabel(q.PaymentMethod),
		Specs:          SpecRows(q.Specs),
		Items:          q.Breakdown.Details,
		TestFee:        q.Breakdown.TestFee,
		Weight:         q.Breakdown.Weight,
		Subtotal:       q.Breakdown.Subtotal,
		Total:          q.Breakdown.Total,
	}
}

// PaymentLabel is the display name of a payment method.
func PaymentLabel(m pricing.PaymentMethod) string {
	for _, o := range QuoteFormOptions().PaymentMethods {
		if o.Value == string(m) {
			return o.Label
		}
	}
	return string(m)
}

// SpecRows lists the specification in quote-sheet order. Disabled options
// are omitted.
func SpecRows(s pricing.BoardSpecs) []SpecRow {
	rows := []SpecRow{
		{"Dimensions", fmt.Sprintf("%s x %s mm", trimFloat(s.Dimensions.X), trimFloat(s.Dimensions.Y))},
		{"Layers", strconv.Itoa(s.Layers)},
		{"Quantity", strconv.Itoa(s.Qty)},
		{"Base material", string(s.BaseMaterial)},
		{"Tg", string(s.Tg)},
		{"Thickness", trimFloat(s.Thickness) + " mm"},
		{"Min track/spacing", string(s.MinTrackSpacing)},
		{"Min hole size", string(s.MinHoleSize)},
		{"Solder mask", string(s.Color)},
		{"Silkscreen", string(s.Silkscreen)},
		{"Surface finish", string(s.SurfaceFinish)},
		{"Copper weight", string(s.CopperWeight)},
		{"Via process", string(s.ViaProcess)},
	}

	flags := []struct {
		on    bool
		label string
	}{
		{s.GoldFingers, "Gold fingers"},
		{s.FlyingProbe, "Flying probe test"},
		{s.CastellatedHoles, "Castellated holes"},
		{s.ImpedanceControl, "Impedance control"},
		{s.RemoveOrderNumber, "Remove order number"},
		{s.ConfirmProductionFile, "Confirm production file"},
	}
	for _, f := range flags {
		if f.on {
			rows = append(rows, SpecRow{f.label, "Yes"})
		}
	}

	if s.DetectedHoles > 0 || s.DetectedVias > 0 {
		rows = append(rows, SpecRow{"Detected holes / vias", fmt.Sprintf("%d / %d", s.DetectedHoles, s.DetectedVias)})
	}
	if st := s.Stencil; st != nil {
		rows = append(rows, SpecRow{"Stencil", fmt.Sprintf("%s, %s, %s, %s x%d",
			st.Side, st.Framework, st.Material, st.Size, st.Count)})
	}
	return rows
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
