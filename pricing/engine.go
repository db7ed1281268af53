package pricing

import (
	"math"
	"time"

	"pcbquote/metrics"
)

// PaymentMethod selects the discount applied to the subtotal.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

var PaymentMethods = []PaymentMethod{PaymentCreditCard, PaymentBankTransfer}

const (
	bankTransferDiscount = 0.10

	// Boards at or under smallBoardMM on both sides and smallBoardQty pieces
	// get the plain 2-layer base price.
	smallBoardMM      = 100.0
	smallBoardQty     = 10
	largeBoardPenalty = 1.5

	perLayerAbove4     = 250.0
	engScalePerLayer   = 0.15
	boardCostPerMM2    = 0.002
	rogersMultiplier   = 3.5
	rogersSetupFee     = 500.0
	aluminumMultiplier = 1.8
	highTgAdder        = 0.2
	specialColorFee    = 250.0
	goldFingerFee      = 300.0
	impedanceTestFee   = 200.0
	impedanceEngFee    = 100.0
	pluggedViaFee      = 150.0
	filledViaFee       = 400.0
	track3_5milFee     = 200.0
	track3milFee       = 500.0
	hole020Fee         = 150.0
	hole015Fee         = 400.0
	heavyCopperFactor  = 1.4
	holeCost           = 0.05
	viaCost            = 0.02
	laminateDensity    = 2.0 // g/cm³
	freeShippingKg     = 0.5
	stencilBothSides   = 1.5
	electricalTestFee  = 50.0
)

// LineItem is one display row of a breakdown. A negative amount is a discount.
type LineItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Breakdown is the itemized result of Calculate. Components are unrounded;
// only Total is rounded to two decimals.
type Breakdown struct {
	BasePrice         float64    `json:"basePrice"`
	EngineeringFee    float64    `json:"engineeringFee"`
	BoardFee          float64    `json:"boardFee"`
	FinishFee         float64    `json:"finishFee"`
	ColorFee          float64    `json:"colorFee"`
	TestFee           float64    `json:"testFee"`
	DrillCost         float64    `json:"drillCost"`
	ShippingFee       float64    `json:"shippingFee"`
	StencilFee        float64    `json:"stencilFee"`
	SpecialProcessFee float64    `json:"specialProcessFee"`
	Weight            float64    `json:"weight"`
	Subtotal          float64    `json:"subtotal"`
	Discount          float64    `json:"discount"`
	Total             float64    `json:"total"`
	Details           []LineItem `json:"details"`
}

// Calculate prices specs against one rule table snapshot. It performs no I/O
// and returns the same breakdown for the same inputs. A rule missing from the
// table contributes zero.
func Calculate(specs BoardSpecs, rules RuleTable, method PaymentMethod) Breakdown {
	start := time.Now()
	var b Breakdown

	x, y := specs.Dimensions.X, specs.Dimensions.Y
	qty := float64(specs.Qty)
	layers := float64(specs.Layers)

	b.EngineeringFee = rules.Value(RuleEngineeringFee)
	if specs.Layers <= 2 {
		b.BasePrice = rules.Value(RuleBase2Layer)
		if !(x <= smallBoardMM && y <= smallBoardMM && specs.Qty <= smallBoardQty) {
			b.BasePrice *= largeBoardPenalty
		}
	} else {
		b.BasePrice = rules.Value(RuleBase4Layer) + perLayerAbove4*(layers-4)
		b.EngineeringFee *= 1 + layers*engScalePerLayer
	}

	multiplier := 1.0
	switch specs.BaseMaterial {
	case MaterialRogers:
		multiplier = rogersMultiplier
		b.SpecialProcessFee += rogersSetupFee
	case MaterialAluminum:
		multiplier = aluminumMultiplier
	}
	if specs.Tg == Tg170 {
		multiplier += highTgAdder
	}

	b.BoardFee = x * y * qty * boardCostPerMM2 * (layers / 2) * multiplier

	switch specs.SurfaceFinish {
	case FinishLeadFreeHASL:
		b.FinishFee = rules.Value(RuleFinishLeadFreeHASL)
	case FinishENIG:
		b.FinishFee = rules.Value(RuleFinishENIG)
	case FinishImmersionSilver:
		b.FinishFee = rules.Value(RuleFinishSilver)
	}
	if specs.Color == ColorMatteBlack || specs.Color == ColorPurple {
		b.ColorFee = specialColorFee
	}

	b.SpecialProcessFee += specialProcessFee(specs)
	if specs.ImpedanceControl {
		b.EngineeringFee += impedanceEngFee
	}
	if specs.CopperWeight == Copper2oz {
		b.BoardFee *= heavyCopperFactor
	}

	b.DrillCost = float64(specs.DetectedHoles)*holeCost + float64(specs.DetectedVias)*viaCost

	b.Weight = BoardWeightKg(specs.Dimensions, specs.Thickness) * qty
	b.ShippingFee = rules.Value(RuleShippingBase) + math.Max(0, b.Weight-freeShippingKg)*rules.Value(RuleShippingPerKg)

	if specs.Stencil != nil {
		b.StencilFee = stencilFee(*specs.Stencil, rules)
	}

	if !specs.FlyingProbe {
		b.TestFee = electricalTestFee
	}

	b.Subtotal = b.BasePrice + b.EngineeringFee + b.BoardFee + b.FinishFee + b.ColorFee +
		b.ShippingFee + b.DrillCost + b.StencilFee + b.SpecialProcessFee
	if method == PaymentBankTransfer {
		b.Discount = b.Subtotal * bankTransferDiscount
	}
	b.Total = roundCents(b.Subtotal - b.Discount)

	b.Details = []LineItem{
		{Label: "Base price", Amount: b.BasePrice},
		{Label: "Engineering", Amount: b.EngineeringFee},
		{Label: "Board material", Amount: b.BoardFee},
		{Label: "Finish/Color", Amount: b.FinishFee + b.ColorFee},
		{Label: "Special processes", Amount: b.SpecialProcessFee},
		{Label: "Drills/Vias", Amount: b.DrillCost},
		{Label: "Shipping", Amount: b.ShippingFee},
	}
	if b.StencilFee > 0 {
		b.Details = append(b.Details, LineItem{Label: "Stencil", Amount: b.StencilFee})
	}
	if b.Discount > 0 {
		b.Details = append(b.Details, LineItem{Label: "Bank transfer discount (10%)", Amount: -b.Discount})
	}

	metrics.QuotesPriced.WithLabelValues(string(method)).Inc()
	metrics.QuoteTotal.Observe(b.Total)
	metrics.PricingDuration.Observe(time.Since(start).Seconds())
	return b
}

func specialProcessFee(specs BoardSpecs) float64 {
	var fee float64
	if specs.GoldFingers {
		fee += goldFingerFee
	}
	if specs.ImpedanceControl {
		fee += impedanceTestFee
	}
	switch specs.ViaProcess {
	case ViaPlugged:
		fee += pluggedViaFee
	case ViaFilledCapped:
		fee += filledViaFee
	}
	switch specs.MinTrackSpacing {
	case Track3_5mil:
		fee += track3_5milFee
	case Track3mil:
		fee += track3milFee
	}
	switch specs.MinHoleSize {
	case Hole020:
		fee += hole020Fee
	case Hole015:
		fee += hole015Fee
	}
	return fee
}

func stencilFee(s StencilSpec, rules RuleTable) float64 {
	fee := rules.Value(RuleStencilBase)
	if s.Framework == StencilFramed {
		fee += rules.Value(RuleStencilFrame)
	}
	if s.Side == StencilBoth {
		fee *= stencilBothSides
	}
	switch s.Material {
	case StencilElectropolished:
		fee *= rules.Value(RuleStencilElectro)
	case StencilNickel:
		fee *= rules.Value(RuleStencilNickel)
	case StencilPlastic:
		fee *= rules.Value(RuleStencilPlastic)
	}
	if s.Count > 1 {
		fee *= float64(s.Count)
	}
	return fee
}

// BoardWeightKg estimates the weight of one board from its outline and
// thickness in millimeters.
func BoardWeightKg(d Dimensions, thicknessMM float64) float64 {
	volumeCM3 := (d.X / 10) * (d.Y / 10) * (thicknessMM / 10)
	return volumeCM3 * laminateDensity / 1000
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
