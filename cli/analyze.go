package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"pcbquote/cam"
	"pcbquote/collections"
	"pcbquote/config"
	"pcbquote/pricing"
	"pcbquote/services"
)

// analyzeOutput is the --json form of the analyze command.
type analyzeOutput struct {
	AnalysisID     string                  `json:"analysisId,omitempty"`
	Filename       string                  `json:"filename"`
	Layers         []services.LayerSummary `json:"layers"`
	EstimatedSpecs cam.Estimate            `json:"estimatedSpecs"`
	Specs          pricing.BoardSpecs      `json:"specs"`
}

func newAnalyzeCmd(app *pocketbase.PocketBase, cfg config.Config) *cobra.Command {
	var asJSON, save bool

	cmd := &cobra.Command{
		Use:   "analyze <archive.zip>",
		Short: "Classify the layers of a Gerber archive and estimate its specification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := analyzeOutput{Filename: filepath.Base(path)}

			var res cam.Result
			if save {
				collections.Setup(app)
				record, r, err := storeFile(cmd.Context(), app, cfg, path, collections.SourceCLI)
				if err != nil {
					return err
				}
				res = r
				out.AnalysisID = record.GetString("token")
			} else {
				r, _, err := analyzeFile(cmd.Context(), path, cfg)
				if err != nil {
					return err
				}
				res = r
			}

			out.Layers = services.SummarizeLayers(res.Layers)
			out.EstimatedSpecs = res.Estimate
			out.Specs = pricing.MergeEstimate(pricing.DefaultSpecs(), res.Estimate)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printAnalysis(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "store the analysis so the quote form can use it")
	return cmd
}

func printAnalysis(w io.Writer, out analyzeOutput) {
	layers := newTable(out.Filename, "File", "Layer", "Size")
	layers.alignRight[2] = true
	for _, l := range out.Layers {
		layers.add(l.Filename, string(l.Kind), services.FormatSize(l.Size))
	}
	fmt.Fprint(w, layers.render())
	fmt.Fprintln(w)

	est := newTable("Estimate", "Field", "Value")
	est.add("Layers", strconv.Itoa(out.EstimatedSpecs.Layers))
	if d := out.EstimatedSpecs.Dimensions; d != nil {
		est.add("Dimensions", fmt.Sprintf("%g x %g mm", d.X, d.Y))
	} else {
		est.add("Dimensions", mutedStyle.Render("not detected"))
	}
	est.add("Vias", strconv.Itoa(out.EstimatedSpecs.DetectedVias))
	est.add("Holes", strconv.Itoa(out.EstimatedSpecs.DetectedHoles))
	if out.AnalysisID != "" {
		est.add("Analysis", out.AnalysisID)
	}
	fmt.Fprint(w, est.render())
}
