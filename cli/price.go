package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"pcbquote/config"
	"pcbquote/pricing"
	"pcbquote/services"
)

// priceOutput is the --json form of the price command.
type priceOutput struct {
	Specs         pricing.BoardSpecs    `json:"specs"`
	PaymentMethod pricing.PaymentMethod `json:"paymentMethod"`
	Breakdown     pricing.Breakdown     `json:"breakdown"`
}

func newPriceCmd(app *pocketbase.PocketBase, cfg config.Config) *cobra.Command {
	var (
		archive   string
		qty       int
		layers    int
		thickness float64
		payment   string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a board against the stored rule table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := pricing.DefaultSpecs()
			if archive != "" {
				res, _, err := analyzeFile(cmd.Context(), archive, cfg)
				if err != nil {
					return err
				}
				specs = pricing.MergeEstimate(specs, res.Estimate)
			}

			flags := cmd.Flags()
			if flags.Changed("qty") {
				specs.Qty = qty
			}
			if flags.Changed("layers") {
				specs.Layers = layers
			}
			if flags.Changed("thickness") {
				specs.Thickness = thickness
			}
			if err := specs.Validate(); err != nil {
				return fmt.Errorf("invalid specification: %w", err)
			}

			method, err := services.ParsePaymentMethod(payment, pricing.PaymentMethod(cfg.DefaultPayment))
			if err != nil {
				return err
			}

			rules := services.LoadRuleTableOrDefault(app)
			breakdown := pricing.Calculate(specs, rules, method)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(priceOutput{Specs: specs, PaymentMethod: method, Breakdown: breakdown})
			}
			printBreakdown(cmd.OutOrStdout(), breakdown, method, services.CurrencySymbol(app, cfg.CurrencySymbol))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&archive, "archive", "", "start from the estimate of this Gerber archive")
	f.IntVar(&qty, "qty", 0, "board quantity")
	f.IntVar(&layers, "layers", 0, "layer count")
	f.Float64Var(&thickness, "thickness", 0, "board thickness in mm")
	f.StringVar(&payment, "payment", "", "payment method (credit_card or bank_transfer)")
	f.BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

func printBreakdown(w io.Writer, b pricing.Breakdown, method pricing.PaymentMethod, symbol string) {
	t := newTable("Price breakdown", "Item", "Amount")
	t.alignRight[1] = true
	for _, item := range b.Details {
		amount := services.FormatMoney(symbol, item.Amount)
		if item.Amount < 0 {
			amount = errorStyle.Render(amount)
		}
		t.add(item.Label, amount)
	}
	t.add("Subtotal", services.FormatMoney(symbol, b.Subtotal))
	t.add("Shipping weight", services.FormatWeight(b.Weight))
	if b.TestFee > 0 {
		t.add("E-test fee (not included)", services.FormatMoney(symbol, b.TestFee))
	}
	t.add("Payment", services.PaymentLabel(method))
	t.add(titleStyle.Render("Total"), titleStyle.Render(services.FormatMoney(symbol, b.Total)))
	fmt.Fprint(w, t.render())
}
