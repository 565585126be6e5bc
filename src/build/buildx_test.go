package build

import (
	"strings"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	step := Step{
		Context:    "services/api",
		Dockerfile: "docker/Dockerfile",
		Target:     "runtime",
		Platforms:  []string{"linux/amd64", "linux/arm64"},
		BuildArgs:  map[string]string{"GO_VERSION": "1.25"},
		Tags:       []string{"platform/api:dev-abc1234-20250101000000", "platform/api:dev-latest"},
	}

	args := buildArgs(step)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"buildx build",
		"--file docker/Dockerfile",
		"--target runtime",
		"--platform linux/amd64,linux/arm64",
		"--build-arg GO_VERSION=1.25",
		"--tag platform/api:dev-abc1234-20250101000000",
		"--tag platform/api:dev-latest",
		"--load",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	if args[len(args)-1] != "services/api" {
		t.Errorf("build context must be the final argument, got %q", args[len(args)-1])
	}
}

func TestBuildArgsDefaults(t *testing.T) {
	args := buildArgs(Step{Tags: []string{"app:dev"}})

	if args[len(args)-1] != "." {
		t.Errorf("empty context should default to \".\", got %q", args[len(args)-1])
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "--file") || strings.Contains(joined, "--target") || strings.Contains(joined, "--platform") {
		t.Errorf("unset options must not emit flags: %s", joined)
	}
}
