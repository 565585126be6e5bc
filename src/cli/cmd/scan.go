package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborline/shipgate/src/output"
	"github.com/harborline/shipgate/src/scan"
)

var scanThreshold string

var scanCmd = &cobra.Command{
	Use:   "scan <image-ref>",
	Short: "Scan an image and evaluate the publishing gate",
	Long: `Run the vulnerability scan against an image that is already present in
the local daemon and report the gate verdict. Exits non-zero on a
failing verdict, so it can stand in for the gate in external pipelines.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imageRef := args[0]
		color := output.UseColor()
		w := os.Stdout

		thresholdName := scanThreshold
		if thresholdName == "" {
			thresholdName = cfg.Scan.Threshold
		}
		threshold, err := scan.ParseSeverity(thresholdName)
		if err != nil {
			return err
		}

		result, err := scan.Image(context.Background(), imageRef, cfg.Scan.OutputDir)
		if err != nil {
			return err
		}

		verdict := result.Gate(threshold)
		status := "success"
		if verdict == scan.VerdictFail {
			status = "failed"
		}

		sec := output.NewSection(w, "Scan", 0, color)
		sec.Row("%-16s%s", "image", imageRef)
		sec.Row("%-16s%s", "findings", result.Summary())
		sec.Row("%-16s%s (threshold: %s) %s", "verdict", verdict, threshold, output.StatusIcon(status, color))
		sec.Close()
		fmt.Fprintf(w, "\n    scan report: %s\n", result.ReportPath)

		if verdict == scan.VerdictFail {
			return fmt.Errorf("scan gate: %s at or above %s", result.Summary(), threshold)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanThreshold, "threshold", "", "gate threshold (high or critical), overrides config")

	rootCmd.AddCommand(scanCmd)
}
