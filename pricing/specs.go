// Package pricing holds the board specification and the deterministic
// pricing engine that turns a specification and a rule table snapshot into an
// itemized price.
package pricing

import (
	"bytes"
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pcbquote/cam"
)

// LayerOptions is the closed set of copper layer counts.
var LayerOptions = []int{1, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20}

// ThicknessOptions is the closed set of board thicknesses in millimeters.
var ThicknessOptions = []float64{0.4, 0.6, 0.8, 1.0, 1.2, 1.6, 2.0, 2.4, 3.0}

type Material string

const (
	MaterialFR4        Material = "FR-4"
	MaterialRogers     Material = "Rogers"
	MaterialAluminum   Material = "Aluminum"
	MaterialCopperCore Material = "Copper Core"
)

var Materials = []Material{MaterialFR4, MaterialRogers, MaterialAluminum, MaterialCopperCore}

// TgClass is the glass-transition class of an FR-4 laminate.
type TgClass string

const (
	Tg130 TgClass = "Tg130-140"
	Tg150 TgClass = "Tg150-160"
	Tg170 TgClass = "Tg170-180"
)

var TgClasses = []TgClass{Tg130, Tg150, Tg170}

// TrackSpacing is the minimum track/spacing class.
type TrackSpacing string

const (
	Track5mil   TrackSpacing = "0.127mm(5mil)"
	Track4mil   TrackSpacing = "0.1mm(4mil)"
	Track3_5mil TrackSpacing = "0.09mm(3.5mil)"
	Track3mil   TrackSpacing = "0.075mm(3mil)"
)

var TrackSpacings = []TrackSpacing{Track5mil, Track4mil, Track3_5mil, Track3mil}

// HoleSize is the minimum drilled hole class.
type HoleSize string

const (
	Hole030 HoleSize = "0.3mm"
	Hole025 HoleSize = "0.25mm"
	Hole020 HoleSize = "0.2mm"
	Hole015 HoleSize = "0.15mm"
)

var HoleSizes = []HoleSize{Hole030, Hole025, Hole020, Hole015}

// MaskColor is the solder mask color.
type MaskColor string

const (
	ColorGreen      MaskColor = "Green"
	ColorRed        MaskColor = "Red"
	ColorYellow     MaskColor = "Yellow"
	ColorBlue       MaskColor = "Blue"
	ColorWhite      MaskColor = "White"
	ColorMatteBlack MaskColor = "Matte Black"
	ColorPurple     MaskColor = "Purple"
)

var MaskColors = []MaskColor{ColorGreen, ColorRed, ColorYellow, ColorBlue, ColorWhite, ColorMatteBlack, ColorPurple}

// SilkscreenColor is the legend ink color.
type SilkscreenColor string

const (
	SilkWhite SilkscreenColor = "White"
	SilkBlack SilkscreenColor = "Black"
	SilkNone  SilkscreenColor = "None"
)

var SilkscreenColors = []SilkscreenColor{SilkWhite, SilkBlack, SilkNone}

type SurfaceFinish string

const (
	FinishHASL            SurfaceFinish = "HASL"
	FinishLeadFreeHASL    SurfaceFinish = "LeadFreeHASL"
	FinishENIG            SurfaceFinish = "ENIG"
	FinishOSP             SurfaceFinish = "OSP"
	FinishImmersionSilver SurfaceFinish = "ImmersionSilver"
	FinishImmersionTin    SurfaceFinish = "ImmersionTin"
)

var SurfaceFinishes = []SurfaceFinish{
	FinishHASL, FinishLeadFreeHASL, FinishENIG, FinishOSP, FinishImmersionSilver, FinishImmersionTin,
}

type CopperWeight string

const (
	Copper1oz CopperWeight = "1oz"
	Copper2oz CopperWeight = "2oz"
)

var CopperWeights = []CopperWeight{Copper1oz, Copper2oz}

// ViaProcess is how vias are covered.
type ViaProcess string

const (
	ViaTented       ViaProcess = "Tenting Vias"
	ViaPlugged      ViaProcess = "Plugged Vias"
	ViaFilledCapped ViaProcess = "Filled & Capped"
)

var ViaProcesses = []ViaProcess{ViaTented, ViaPlugged, ViaFilledCapped}

type StencilSide string

const (
	StencilTop    StencilSide = "Top"
	StencilBottom StencilSide = "Bottom"
	StencilBoth   StencilSide = "Both"
)

var StencilSides = []StencilSide{StencilTop, StencilBottom, StencilBoth}

type StencilFramework string

const (
	StencilFramed    StencilFramework = "Framed"
	StencilFrameless StencilFramework = "Frameless"
)

var StencilFrameworks = []StencilFramework{StencilFramed, StencilFrameless}

type StencilMaterial string

const (
	StencilStainless       StencilMaterial = "Stainless Steel"
	StencilElectropolished StencilMaterial = "Electropolished Steel"
	StencilNickel          StencilMaterial = "Nickel"
	StencilPlastic         StencilMaterial = "Plastic"
)

var StencilMaterials = []StencilMaterial{StencilStainless, StencilElectropolished, StencilNickel, StencilPlastic}

// Dimensions is the board outline in millimeters.
type Dimensions struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (d Dimensions) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.X, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&d.Y, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// Area is the outline area in square millimeters.
func (d Dimensions) Area() float64 { return d.X * d.Y }

// StencilSpec describes an ordered solder paste stencil.
type StencilSpec struct {
	Side      StencilSide      `json:"side"`
	Framework StencilFramework `json:"framework"`
	Size      string           `json:"size"`
	Count     int              `json:"counts"`
	Material  StencilMaterial  `json:"material"`
}

func (s StencilSpec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Side, validation.Required, validation.In(anySlice(StencilSides)...)),
		validation.Field(&s.Framework, validation.Required, validation.In(anySlice(StencilFrameworks)...)),
		validation.Field(&s.Size, validation.Required),
		validation.Field(&s.Count, validation.Required, validation.Min(1)),
		validation.Field(&s.Material, validation.Required, validation.In(anySlice(StencilMaterials)...)),
	)
}

// BoardSpecs is the user-editable board specification. A nil Stencil means
// no stencil is ordered.
type BoardSpecs struct {
	Dimensions      Dimensions      `json:"dimensions"`
	Layers          int             `json:"layers"`
	Qty             int             `json:"qty"`
	BaseMaterial    Material        `json:"baseMaterial"`
	Tg              TgClass         `json:"fr4Tg"`
	Thickness       float64         `json:"thickness"`
	MinTrackSpacing TrackSpacing    `json:"minTrackSpacing"`
	MinHoleSize     HoleSize        `json:"minHoleSize"`
	Color           MaskColor       `json:"color"`
	Silkscreen      SilkscreenColor `json:"silkscreen"`
	SurfaceFinish   SurfaceFinish   `json:"surfaceFinish"`
	CopperWeight    CopperWeight    `json:"copperWeight"`

	GoldFingers      bool       `json:"goldFingers"`
	FlyingProbe      bool       `json:"flyingProbe"`
	CastellatedHoles bool       `json:"castellatedHoles"`
	ImpedanceControl bool       `json:"impedanceControl"`
	ViaProcess       ViaProcess `json:"viaProcess"`

	RemoveOrderNumber     bool `json:"removeOrderNumber"`
	ConfirmProductionFile bool `json:"confirmProductionFile"`

	Stencil *StencilSpec `json:"stencil"`

	DetectedVias  int `json:"detectedVias"`
	DetectedHoles int `json:"detectedHoles"`
}

// UnmarshalJSON decodes onto the receiver's current values. A stencil object
// carrying "enabled": false, or a null stencil, clears Stencil; any other
// stencil object is decoded over the existing stencil or DefaultStencil.
func (s *BoardSpecs) UnmarshalJSON(data []byte) error {
	type plain BoardSpecs
	aux := struct {
		*plain
		Stencil json.RawMessage `json:"stencil"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Stencil == nil {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(aux.Stencil), []byte("null")) {
		s.Stencil = nil
		return nil
	}

	st := DefaultStencil()
	if s.Stencil != nil {
		st = *s.Stencil
	}
	in := struct {
		Enabled *bool `json:"enabled"`
		*StencilSpec
	}{StencilSpec: &st}
	if err := json.Unmarshal(aux.Stencil, &in); err != nil {
		return err
	}
	if in.Enabled != nil && !*in.Enabled {
		s.Stencil = nil
		return nil
	}
	s.Stencil = &st
	return nil
}

// Validate checks every enumerated field against its closed set and that
// dimensions, quantity and thickness are positive.
func (s BoardSpecs) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Dimensions),
		validation.Field(&s.Layers, validation.Required, validation.In(anySlice(LayerOptions)...)),
		validation.Field(&s.Qty, validation.Required, validation.Min(1)),
		validation.Field(&s.BaseMaterial, validation.Required, validation.In(anySlice(Materials)...)),
		validation.Field(&s.Tg, validation.Required, validation.In(anySlice(TgClasses)...)),
		validation.Field(&s.Thickness, validation.Required, validation.In(anySlice(ThicknessOptions)...)),
		validation.Field(&s.MinTrackSpacing, validation.Required, validation.In(anySlice(TrackSpacings)...)),
		validation.Field(&s.MinHoleSize, validation.Required, validation.In(anySlice(HoleSizes)...)),
		validation.Field(&s.Color, validation.Required, validation.In(anySlice(MaskColors)...)),
		validation.Field(&s.Silkscreen, validation.Required, validation.In(anySlice(SilkscreenColors)...)),
		validation.Field(&s.SurfaceFinish, validation.Required, validation.In(anySlice(SurfaceFinishes)...)),
		validation.Field(&s.CopperWeight, validation.Required, validation.In(anySlice(CopperWeights)...)),
		validation.Field(&s.ViaProcess, validation.Required, validation.In(anySlice(ViaProcesses)...)),
		validation.Field(&s.Stencil),
		validation.Field(&s.DetectedVias, validation.Min(0)),
		validation.Field(&s.DetectedHoles, validation.Min(0)),
	)
}

// DefaultStencil is the stencil preselected when the customer enables one.
func DefaultStencil() StencilSpec {
	return StencilSpec{
		Side:      StencilTop,
		Framework: StencilFrameless,
		Size:      "370x470mm",
		Count:     1,
		Material:  StencilStainless,
	}
}

// DefaultSpecs is the specification the quote form starts from.
func DefaultSpecs() BoardSpecs {
	return BoardSpecs{
		Dimensions:      Dimensions{X: 100, Y: 100},
		Layers:          2,
		Qty:             5,
		BaseMaterial:    MaterialFR4,
		Tg:              Tg130,
		Thickness:       1.6,
		MinTrackSpacing: Track5mil,
		MinHoleSize:     Hole030,
		Color:           ColorGreen,
		Silkscreen:      SilkWhite,
		SurfaceFinish:   FinishHASL,
		CopperWeight:    Copper1oz,
		FlyingProbe:     true,
		ViaProcess:      ViaTented,
	}
}

// MergeEstimate returns specs overwritten by what ingestion recovered: the
// layer count, the dimensions when an outline was found, and the detected
// via and hole counts.
func MergeEstimate(specs BoardSpecs, est cam.Estimate) BoardSpecs {
	if est.Layers > 0 {
		specs.Layers = est.Layers
	}
	if est.Dimensions != nil {
		specs.Dimensions = Dimensions{X: est.Dimensions.X, Y: est.Dimensions.Y}
	}
	specs.DetectedVias = est.DetectedVias
	specs.DetectedHoles = est.DetectedHoles
	if specs.Stencil != nil {
		st := *specs.Stencil
		specs.Stencil = &st
	}
	return specs
}
