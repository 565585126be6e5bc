package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/shipgate/src/build"
	"github.com/harborline/shipgate/src/config"
	"github.com/harborline/shipgate/src/output"
	"github.com/harborline/shipgate/src/pipeline"
	"github.com/harborline/shipgate/src/registry"
	"github.com/harborline/shipgate/src/scan"
	"github.com/harborline/shipgate/src/secrets"
	"github.com/harborline/shipgate/src/tag"
	"github.com/harborline/shipgate/src/trigger"
)

var (
	runDryRun      bool
	runSkipSecrets bool
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Build, scan, and publish an image for the current trigger",
	Long: `Run the full publishing pipeline for the current branch or tag push:

  trigger → derive → secrets → build → scan → publish

Tags are derived deterministically from the trigger metadata. Publication
happens only if the vulnerability scan gate passes; any stage failure halts
the run and nothing downstream executes.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show derived tags and targets without executing")
	runCmd.Flags().BoolVar(&runSkipSecrets, "skip-secrets", false, "skip the pre-build secrets gate")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
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
	pipelineStart := time.Now()

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

	output.ContextBlock(w, runContextKV(tctx))

	if !config.MatchPatterns(cfg.Branches, tctx.Ref()) {
		fmt.Fprintf(w, "\n    ref %q not configured for publishing, nothing to do\n", tctx.Ref())
		return nil
	}

	// --- Derive ---
	localTags, err := deriveLocalTags(tctx)
	if err != nil {
		return err
	}

	targets := publishTargets(cfg.Registries, tctx.Ref())

	deriveSec := output.NewSection(w, "Derive", 0, color)
	for _, t := range localTags {
		deriveSec.Row("%-16s%s:%s", "tag", cfg.Repository, t)
	}
	if len(targets) == 0 {
		deriveSec.Row("%-16s%s", "registries", "(none for this ref)")
	} else {
		names := make([]string, 0, len(targets))
		for _, t := range targets {
			names = append(names, t.Name)
		}
		deriveSec.Row("%-16s%s", "registries", strings.Join(names, ", "))
	}
	deriveSec.Close()

	if runDryRun {
		return nil
	}

	localRefs := make([]string, 0, len(localTags))
	for _, t := range localTags {
		localRefs = append(localRefs, cfg.Repository+":"+t)
	}

	// Serialize scan-then-publish per ref so two concurrent runs for one
	// branch cannot interleave their floating-tag updates.
	releaseLock, err := pipeline.LockBranch(ctx, tctx.Ref())
	if err != nil {
		return err
	}
	defer releaseLock()

	bx := build.NewBuildx(verbose)
	if !verbose {
		bx.Stdout = io.Discard
	}

	var scanResult *scan.Result
	verdict := scan.VerdictPass

	stages := []pipeline.Stage{
		{Name: "secrets", Run: func(ctx context.Context) (string, error) {
			return runSecretsStage(ctx, rootDir, w, color)
		}},
		{Name: "build", Run: func(ctx context.Context) (string, error) {
			return runBuildStage(ctx, bx, localRefs, w, color)
		}},
		{Name: "scan", Run: func(ctx context.Context) (string, error) {
			detail, result, v, err := runScanStage(ctx, localRefs[0], w, color)
			scanResult = result
			verdict = v
			return detail, err
		}},
		{Name: "publish", Run: func(ctx context.Context) (string, error) {
			return runPublishStage(ctx, bx, targets, localRefs, localTags, verdict, w, color)
		}},
	}

	results, runErr := pipeline.Sequence(ctx, stages)

	// --- Summary ---
	totalElapsed := time.Since(pipelineStart)
	overallStatus := "success"
	if runErr != nil {
		overallStatus = "failed"
	}

	sumSec := output.NewSection(w, "Summary", 0, color)
	output.SummaryRow(w, "derive", "success", fmt.Sprintf("%d tag(s)", len(localTags)), color)
	for _, r := range results {
		output.SummaryRow(w, r.Name, r.Status, r.Detail, color)
	}
	sumSec.Separator()
	output.SummaryTotal(w, totalElapsed, overallStatus, color)
	sumSec.Close()

	if scanResult != nil && scanResult.ReportPath != "" {
		fmt.Fprintf(w, "\n    scan report: %s\n", scanResult.ReportPath)
	}

	return runErr
}

// deriveLocalTags computes the tag set for this trigger: the unique and
// floating pair for branch pushes, the version cascade for release tags.
func deriveLocalTags(tctx *trigger.Context) ([]string, error) {
	if tctx.IsRelease() {
		return tag.ReleaseTags(tctx.GitTag)
	}
	if tctx.GitTag != "" {
		return nil, fmt.Errorf("tag %q is not a semver release tag, nothing to publish", tctx.GitTag)
	}

	tags, err := tag.Derive(tctx.Branch, tctx.CommitSHA, tctx.Timestamp)
	if err != nil {
		return nil, err
	}
	return []string{tags.Unique, tags.Floating}, nil
}

// publishTargets filters registries by their branch patterns for this ref.
func publishTargets(registries []config.RegistryConfig, ref string) []config.RegistryConfig {
	var out []config.RegistryConfig
	for _, r := range registries {
		if config.MatchPatterns(r.Branches, ref) {
			out = append(out, r)
		}
	}
	return out
}

func runSecretsStage(ctx context.Context, rootDir string, w io.Writer, color bool) (string, error) {
	if runSkipSecrets || !cfg.Secrets.Enabled {
		return "skipped", nil
	}

	output.SectionStart(w, "sg_secrets", "Secrets")
	start := time.Now()

	gate, err := secrets.NewGate(cfg.Secrets.MaxFileSize)
	if err != nil {
		output.SectionEnd(w, "sg_secrets")
		return "", fmt.Errorf("secrets gate: %w", err)
	}

	findings, err := gate.ScanDir(ctx, rootDir)
	elapsed := time.Since(start)
	if err != nil {
		output.SectionEnd(w, "sg_secrets")
		return "", fmt.Errorf("secrets gate: %w", err)
	}

	sec := output.NewSection(w, "Secrets", elapsed, color)
	if len(findings) == 0 {
		sec.Row("%-16s%s %s", "status", "clean", output.StatusIcon("success", color))
	} else {
		for _, f := range findings {
			sec.Row("%-8d%-20s %s", f.Line, f.File, f.RuleID)
		}
		sec.Row("%-16s%s %s", "status", fmt.Sprintf("%d finding(s)", len(findings)), output.StatusIcon("failed", color))
	}
	sec.Close()
	output.SectionEnd(w, "sg_secrets")

	if len(findings) > 0 {
		return "", fmt.Errorf("secrets gate: %s", secrets.Summarize(findings))
	}
	return "clean", nil
}

func runBuildStage(ctx context.Context, bx *build.Buildx, localRefs []string, w io.Writer, color bool) (string, error) {
	output.SectionStart(w, "sg_build", "Build")
	start := time.Now()

	step := build.Step{
		Context:    cfg.Build.Context,
		Dockerfile: cfg.Build.Dockerfile,
		Target:     cfg.Build.Target,
		Platforms:  cfg.Build.Platforms,
		BuildArgs:  cfg.Build.BuildArgs,
		Tags:       localRefs,
	}

	result, err := bx.Build(ctx, step)
	elapsed := time.Since(start)

	sec := output.NewSection(w, "Build", elapsed, color)
	if err != nil {
		sec.Row("%-16s%s %s", "status", "build failed", output.StatusIcon("failed", color))
		sec.Close()
		output.SectionEnd(w, "sg_build")
		return "", err
	}
	for _, img := range result.Images {
		sec.Row("result  %s", img)
	}
	sec.Close()
	output.SectionEnd(w, "sg_build")

	return fmt.Sprintf("%d image tag(s)", len(result.Images)), nil
}

func runScanStage(ctx context.Context, imageRef string, w io.Writer, color bool) (string, *scan.Result, scan.Verdict, error) {
	if !cfg.Scan.Enabled {
		return "disabled", nil, scan.VerdictPass, nil
	}

	threshold, err := scan.ParseSeverity(cfg.Scan.Threshold)
	if err != nil {
		return "", nil, scan.VerdictFail, err
	}

	output.SectionStart(w, "sg_scan", "Scan")
	start := time.Now()

	result, err := scan.Image(ctx, imageRef, cfg.Scan.OutputDir)
	elapsed := time.Since(start)
	if err != nil {
		output.SectionEnd(w, "sg_scan")
		return "", nil, scan.VerdictFail, err
	}

	verdict := result.Gate(threshold)

	status := "success"
	if verdict == scan.VerdictFail {
		status = "failed"
	}

	sec := output.NewSection(w, "Scan", elapsed, color)
	sec.Row("%-16s%s", "image", imageRef)
	sec.Row("%-16s%s", "findings", result.Summary())
	sec.Row("%-16s%s (threshold: %s) %s", "verdict", verdict, threshold, output.StatusIcon(status, color))
	sec.Close()
	output.SectionEnd(w, "sg_scan")

	if verdict == scan.VerdictFail {
		return "", result, verdict, fmt.Errorf("scan gate: %s at or above %s", result.Summary(), threshold)
	}
	return result.Summary(), result, verdict, nil
}

func runPublishStage(ctx context.Context, bx *build.Buildx, targets []config.RegistryConfig, localRefs, localTags []string, verdict scan.Verdict, w io.Writer, color bool) (string, error) {
	if len(targets) == 0 {
		return "no registries for this ref", nil
	}

	output.SectionStart(w, "sg_publish", "Publish")
	sec := output.NewSection(w, "Publish", 0, color)

	var pushed int
	for _, target := range targets {
		provider, err := registry.NewProvider(target)
		if err != nil {
			sec.Close()
			output.SectionEnd(w, "sg_publish")
			return "", err
		}

		creds, err := provider.Credentials(ctx)
		if err != nil {
			sec.Close()
			output.SectionEnd(w, "sg_publish")
			return "", err
		}

		if creds.Username != "" {
			if err := bx.Login(ctx, creds.Endpoint, creds.Username, creds.Password); err != nil {
				sec.Close()
				output.SectionEnd(w, "sg_publish")
				return "", err
			}
		}

		// Qualify the locally built tags against this registry's endpoint.
		remoteRefs := make([]string, 0, len(localTags))
		for _, t := range localTags {
			remoteRefs = append(remoteRefs, creds.Endpoint+"/"+cfg.Repository+":"+t)
		}
		for _, ref := range remoteRefs {
			if err := bx.Tag(ctx, localRefs[0], ref); err != nil {
				sec.Close()
				output.SectionEnd(w, "sg_publish")
				return "", err
			}
		}

		outcome, err := pipeline.PublishAll(ctx, bx, remoteRefs, verdict)
		if err != nil {
			sec.Close()
			output.SectionEnd(w, "sg_publish")
			return "", err
		}
		if outcome == pipeline.OutcomeAborted {
			sec.Row("%-40saborted %s", provider.Name(), output.StatusIcon("failed", color))
			continue
		}

		for _, ref := range remoteRefs {
			sec.Row("%-56s %s", ref, output.StatusIcon("success", color))
			pushed++
		}
	}

	sec.Close()
	output.SectionEnd(w, "sg_publish")

	return fmt.Sprintf("%d tag(s) to %d registry(ies)", pushed, len(targets)), nil
}

// runContextKV returns key-value pairs for the run context block.
func runContextKV(tctx *trigger.Context) []output.KV {
	var kv []output.KV

	if tctx.GitTag != "" {
		kv = append(kv, output.KV{Key: "Tag", Value: tctx.GitTag})
	} else {
		kv = append(kv, output.KV{Key: "Branch", Value: tctx.Branch})
	}
	kv = append(kv, output.KV{Key: "Commit", Value: tag.ShortSHA(tctx.CommitSHA)})
	kv = append(kv, output.KV{Key: "Timestamp", Value: tctx.Timestamp})

	if n := len(cfg.Registries); n > 0 {
		names := make([]string, 0, n)
		for _, r := range cfg.Registries {
			if r.Name != "" {
				names = append(names, r.Name)
			}
		}
		kv = append(kv, output.KV{Key: "Registries", Value: fmt.Sprintf("%d (%s)", n, strings.Join(names, ", "))})
	}

	return kv
}
