package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/shipgate/src/build"
	"github.com/harborline/shipgate/src/config"
	"github.com/harborline/shipgate/src/output"
	"github.com/harborline/shipgate/src/pipeline"
	"github.com/harborline/shipgate/src/trigger"
)

var pushCmd = &cobra.Command{
	Use:   "push <image-ref>",
	Short: "Scan a prebuilt local image and publish it through the gate",
	Long: `Take an image already present in the local daemon, run the scan gate,
and publish it under the derived tags on a passing verdict. This is the
run pipeline without the build and secrets stages, for setups where the
image is produced elsewhere in CI.`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	sourceRef := args[0]
	ctx := context.Background()
	color := output.UseColor()
	w := os.Stdout

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	tctx, err := trigger.Resolve(rootDir, time.Now())
	if err != nil {
		return err
	}

	warnings, err := config.Validate(cfg)
	if err != nil {
		return err
	}
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	localTags, err := deriveLocalTags(tctx)
	if err != nil {
		return err
	}

	targets := publishTargets(cfg.Registries, tctx.Ref())
	if len(targets) == 0 {
		fmt.Fprintf(w, "\n    no registries configured for ref %q, nothing to do\n", tctx.Ref())
		return nil
	}

	releaseLock, err := pipeline.LockBranch(ctx, tctx.Ref())
	if err != nil {
		return err
	}
	defer releaseLock()

	bx := build.NewBuildx(verbose)
	if !verbose {
		bx.Stdout = io.Discard
	}

	_, _, verdict, err := runScanStage(ctx, sourceRef, w, color)
	if err != nil {
		return err
	}

	// Tag the prebuilt image under the derived local refs so the publish
	// stage can qualify them per registry endpoint.
	localRefs := make([]string, 0, len(localTags))
	for _, t := range localTags {
		ref := cfg.Repository + ":" + t
		if err := bx.Tag(ctx, sourceRef, ref); err != nil {
			return err
		}
		localRefs = append(localRefs, ref)
	}

	detail, err := runPublishStage(ctx, bx, targets, localRefs, localTags, verdict, w, color)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n    published: %s\n", detail)
	return nil
}
