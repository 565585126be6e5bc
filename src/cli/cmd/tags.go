package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/shipgate/src/trigger"
)

var tagsCmd = &cobra.Command{
	Use:   "tags [dir]",
	Short: "Print the tags that would be published for the current trigger",
	Long: `Derive and print the image tags for the current branch or tag push,
one per line, without building or publishing anything. Useful for
wiring shipgate output into other CI steps.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		if len(args) > 0 {
			rootDir = args[0]
		}

		tctx, err := trigger.Resolve(rootDir, time.Now())
		if err != nil {
			return err
		}

		tags, err := deriveLocalTags(tctx)
		if err != nil {
			return err
		}

		for _, t := range tags {
			fmt.Println(t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
