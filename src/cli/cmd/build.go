package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/shipgate/src/build"
	"github.com/harborline/shipgate/src/output"
	"github.com/harborline/shipgate/src/trigger"
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Build the image under the derived tags without publishing",
	Long: `Build the image locally, tagged with the tags derived from the current
trigger. The scan gate and publish stages do not run; use this to inspect
an image before it goes through the full pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		if len(args) > 0 {
			rootDir = args[0]
		}

		ctx := context.Background()
		color := output.UseColor()
		w := os.Stdout

		tctx, err := trigger.Resolve(rootDir, time.Now())
		if err != nil {
			return err
		}

		localTags, err := deriveLocalTags(tctx)
		if err != nil {
			return err
		}
		localRefs := make([]string, 0, len(localTags))
		for _, t := range localTags {
			localRefs = append(localRefs, cfg.Repository+":"+t)
		}

		bx := build.NewBuildx(verbose)
		if !verbose {
			bx.Stdout = io.Discard
		}

		detail, err := runBuildStage(ctx, bx, localRefs, w, color)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "\n    built: %s\n", detail)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
