package services

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"

	"pcbquote/pricing"
)

// ParseSpecForm overlays submitted quote form values on base. Text and number
// fields missing from the form keep the base value; boolean fields follow
// checkbox semantics and are false unless submitted. The result is validated.
func ParseSpecForm(form url.Values, base pricing.BoardSpecs) (pricing.BoardSpecs, error) {
	specs := base
	errs := validation.Errors{}

	floatField := func(key string, dst *float64) {
		if v := strings.TrimSpace(form.Get(key)); v != "" {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				errs[key] = errors.New("must be a number")
				return
			}
			*dst = f
		}
	}
	intField := func(key string, dst *int) {
		if v := strings.TrimSpace(form.Get(key)); v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				errs[key] = errors.New("must be a whole number")
				return
			}
			*dst = n
		}
	}
	textField := func(key string, set func(string)) {
		if v := strings.TrimSpace(form.Get(key)); v != "" {
			set(v)
		}
	}
	checkbox := func(key string) bool {
		v := strings.ToLower(strings.TrimSpace(form.Get(key)))
		return v == "on" || cast.ToBool(v)
	}

	floatField("dim_x", &specs.Dimensions.X)
	floatField("dim_y", &specs.Dimensions.Y)
	intField("layers", &specs.Layers)
	intField("qty", &specs.Qty)
	floatField("thickness", &specs.Thickness)
	intField("detected_vias", &specs.DetectedVias)
	intField("detected_holes", &specs.DetectedHoles)

	textField("base_material", func(v string) { specs.BaseMaterial = pricing.Material(v) })
	textField("fr4_tg", func(v string) { specs.Tg = pricing.TgClass(v) })
	textField("min_track_spacing", func(v string) { specs.MinTrackSpacing = pricing.TrackSpacing(v) })
	textField("min_hole_size", func(v string) { specs.MinHoleSize = pricing.HoleSize(v) })
	textField("color", func(v string) { specs.Color = pricing.MaskColor(v) })
	textField("silkscreen", func(v string) { specs.Silkscreen = pricing.SilkscreenColor(v) })
	textField("surface_finish", func(v string) { specs.SurfaceFinish = pricing.SurfaceFinish(v) })
	textField("copper_weight", func(v string) { specs.CopperWeight = pricing.CopperWeight(v) })
	textField("via_process", func(v string) { specs.ViaProcess = pricing.ViaProcess(v) })

	specs.GoldFingers = checkbox("gold_fingers")
	specs.FlyingProbe = checkbox("flying_probe")
	specs.CastellatedHoles = checkbox("castellated_holes")
	specs.ImpedanceControl = checkbox("impedance_control")
	specs.RemoveOrderNumber = checkbox("remove_order_number")
	specs.ConfirmProductionFile = checkbox("confirm_production_file")

	if checkbox("stencil_enabled") {
		stencil := pricing.DefaultStencil()
		if base.Stencil != nil {
			stencil = *base.Stencil
		}
		textField("stencil_side", func(v string) { stencil.Side = pricing.StencilSide(v) })
		textField("stencil_framework", func(v string) { stencil.Framework = pricing.StencilFramework(v) })
		textField("stencil_size", func(v string) { stencil.Size = v })
		textField("stencil_material", func(v string) { stencil.Material = pricing.StencilMaterial(v) })
		intField("stencil_counts", &stencil.Count)
		specs.Stencil = &stencil
	} else {
		specs.Stencil = nil
	}

	if len(errs) > 0 {
		return specs, errs
	}
	return specs, specs.Validate()
}

// ParsePaymentMethod maps a submitted payment method, using fallback when
// nothing was submitted.
func ParsePaymentMethod(value string, fallback pricing.PaymentMethod) (pricing.PaymentMethod, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	method := pricing.PaymentMethod(value)
	if !slices.Contains(pricing.PaymentMethods, method) {
		return "", validation.Errors{"payment_method": fmt.Errorf("unknown payment method %q", value)}
	}
	return method, nil
}
