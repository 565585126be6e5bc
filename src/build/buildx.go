// Package build shells out to docker buildx to produce locally addressable
// image artifacts, and to docker push/login for registry publication.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Step describes a single image build invocation.
type Step struct {
	Context    string
	Dockerfile string
	Target     string
	Platforms  []string
	BuildArgs  map[string]string
	Tags       []string // fully qualified refs the image is tagged with
}

// Result captures the outcome of one build step.
type Result struct {
	Status   string // "success" or "failed"
	Images   []string
	Duration time.Duration
	Error    error
}

// Buildx wraps docker buildx commands.
type Buildx struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewBuildx creates a Buildx runner with default output writers.
func NewBuildx(verbose bool) *Buildx {
	return &Buildx{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Build executes a build step via docker buildx, loading the result into
// the local daemon so it can be scanned before any push happens.
func (bx *Buildx) Build(ctx context.Context, step Step) (*Result, error) {
	start := time.Now()
	result := &Result{}

	args := buildArgs(step)
	log.Debug().Strs("args", args).Msg("exec: docker")
	if bx.Verbose {
		fmt.Fprintf(bx.Stderr, "exec: docker %s\n", strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = bx.Stdout
	cmd.Stderr = bx.Stderr

	if err := cmd.Run(); err != nil {
		result.Status = "failed"
		result.Duration = time.Since(start)
		result.Error = fmt.Errorf("docker buildx build failed: %w", err)
		return result, result.Error
	}

	result.Status = "success"
	result.Duration = time.Since(start)
	result.Images = step.Tags
	return result, nil
}

// buildArgs constructs the docker buildx build argument list.
func buildArgs(step Step) []string {
	args := []string{"buildx", "build"}

	if step.Dockerfile != "" {
		args = append(args, "--file", step.Dockerfile)
	}
	if step.Target != "" {
		args = append(args, "--target", step.Target)
	}
	if len(step.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(step.Platforms, ","))
	}
	for k, v := range step.BuildArgs {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, v))
	}
	for _, tag := range step.Tags {
		args = append(args, "--tag", tag)
	}

	// Scan gate needs the image in the daemon before publication.
	args = append(args, "--load")

	buildContext := step.Context
	if buildContext == "" {
		buildContext = "."
	}
	args = append(args, buildContext)

	return args
}

// Login authenticates the docker client against a registry endpoint.
// The password goes over stdin, never argv.
func (bx *Buildx) Login(ctx context.Context, endpoint, username, password string) error {
	log.Debug().Str("registry", endpoint).Str("user", username).Msg("docker login")

	cmd := exec.CommandContext(ctx, "docker", "login", "--username", username, "--password-stdin", endpoint)
	cmd.Stdin = strings.NewReader(password)
	cmd.Stdout = io.Discard
	cmd.Stderr = bx.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker login to %s failed: %w", endpoint, err)
	}
	return nil
}

// Push pushes a single fully qualified image reference.
func (bx *Buildx) Push(ctx context.Context, ref string) error {
	log.Debug().Str("ref", ref).Msg("docker push")

	cmd := exec.CommandContext(ctx, "docker", "push", ref)
	cmd.Stdout = bx.Stdout
	cmd.Stderr = bx.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker push %s failed: %w", ref, err)
	}
	return nil
}

// Tag applies an additional local tag to an existing image.
func (bx *Buildx) Tag(ctx context.Context, src, dst string) error {
	log.Debug().Str("src", src).Str("dst", dst).Msg("docker tag")

	cmd := exec.CommandContext(ctx, "docker", "tag", src, dst)
	cmd.Stdout = io.Discard
	cmd.Stderr = bx.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker tag %s %s failed: %w", src, dst, err)
	}
	return nil
}
