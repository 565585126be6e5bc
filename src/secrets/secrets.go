// Package secrets is the pre-build gate: it scans the build context for
// leaked credentials so they never get baked into an image layer.
package secrets

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zricethezav/gitleaks/v8/detect"
)

const defaultMaxFileSize = 1 << 20 // 1 MiB, anything bigger is not source

// Finding is one detected credential in the build context.
type Finding struct {
	File        string
	Line        int
	RuleID      string
	Description string
}

// Gate wraps a gitleaks detector for build-context scanning.
type Gate struct {
	detector    *detect.Detector
	maxFileSize int64
}

// NewGate creates a gate with the default gitleaks ruleset.
func NewGate(maxFileSize int64) (*Gate, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	return &Gate{detector: d, maxFileSize: maxFileSize}, nil
}

// ScanDir walks the build context and scans every regular file.
// The .git directory is skipped; so are files above the size cap.
func (g *Gate) ScanDir(ctx context.Context, dir string) ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > g.maxFileSize {
			log.Debug().Str("file", path).Int64("size", info.Size()).Msg("secrets: skipping large file")
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		for _, h := range g.detector.DetectBytes(data) {
			findings = append(findings, Finding{
				File:        filepath.ToSlash(rel),
				Line:        h.StartLine + 1, // gitleaks is 0-indexed
				RuleID:      h.RuleID,
				Description: h.Description,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// Summarize renders findings compactly for error messages.
func Summarize(findings []Finding) string {
	if len(findings) == 0 {
		return "no secrets detected"
	}
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		parts = append(parts, f.File+": "+f.RuleID)
	}
	return strings.Join(parts, ", ")
}
