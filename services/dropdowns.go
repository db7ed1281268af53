package services

import "pcbquote/pricing"

// QtyOptions is the list of board quantities offered on the quote form.
var QtyOptions = []int{5, 10, 25, 50, 100, 250, 500, 1000}

// StencilSizeOptions lists the stencil sheet sizes.
var StencilSizeOptions = []string{"370x470mm", "420x520mm", "550x650mm", "736x736mm"}

// Option is one select entry of the quote form.
type Option struct {
	Value string
	Label string
}

// FormOptions holds every select list of the quote form.
type FormOptions struct {
	Layers          []int
	Quantities      []int
	Thicknesses     []float64
	Materials       []pricing.Material
	TgClasses       []pricing.TgClass
	TrackSpacings   []pricing.TrackSpacing
	HoleSizes       []pricing.HoleSize
	MaskColors      []pricing.MaskColor
	Silkscreens     []pricing.SilkscreenColor
	Finishes        []Option
	CopperWeights   []pricing.CopperWeight
	ViaProcesses    []pricing.ViaProcess
	StencilSides    []pricing.StencilSide
	StencilFrames   []pricing.StencilFramework
	StencilSizes    []string
	StencilMaterial []pricing.StencilMaterial
	PaymentMethods  []Option
}

var finishLabels = map[pricing.SurfaceFinish]string{
	pricing.FinishHASL:            "HASL (with lead)",
	pricing.FinishLeadFreeHASL:    "Lead-free HASL",
	pricing.FinishENIG:            "ENIG",
	pricing.FinishOSP:             "OSP",
	pricing.FinishImmersionSilver: "Immersion silver",
	pricing.FinishImmersionTin:    "Immersion tin",
}

// QuoteFormOptions returns the select lists in display order.
func QuoteFormOptions() FormOptions {
	finishes := make([]Option, 0, len(pricing.SurfaceFinishes))
	for _, f := range pricing.SurfaceFinishes {
		finishes = append(finishes, Option{Value: string(f), Label: finishLabels[f]})
	}

	return FormOptions{
		Layers:          pricing.LayerOptions,
		Quantities:      QtyOptions,
		Thicknesses:     pricing.ThicknessOptions,
		Materials:       pricing.Materials,
		TgClasses:       pricing.TgClasses,
		TrackSpacings:   pricing.TrackSpacings,
		HoleSizes:       pricing.HoleSizes,
		MaskColors:      pricing.MaskColors,
		Silkscreens:     pricing.SilkscreenColors,
		Finishes:        finishes,
		CopperWeights:   pricing.CopperWeights,
		ViaProcesses:    pricing.ViaProcesses,
		StencilSides:    pricing.StencilSides,
		StencilFrames:   pricing.StencilFrameworks,
		StencilSizes:    StencilSizeOptions,
		StencilMaterial: pricing.StencilMaterials,
		PaymentMethods: []Option{
			{Value: string(pricing.PaymentCreditCard), Label: "Credit card"},
			{Value: string(pricing.PaymentBankTransfer), Label: "Bank transfer (10% off)"},
		},
	}
}
