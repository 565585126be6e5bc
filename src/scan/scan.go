// Package scan runs the vulnerability gate. It orchestrates an external
// scanner (Trivy) against a locally built image and reduces the report to a
// pass/fail verdict against a configured severity threshold.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Severity is a named vulnerability level the gate can key on.
type Severity string

const (
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity maps a config string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf("scan: unknown severity threshold %q (valid: high, critical)", s)
	}
}

// Verdict is the boolean-like outcome of the gate.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Vulnerability is a single parsed finding from the scan.
type Vulnerability struct {
	ID        string // CVE ID (e.g. "CVE-2026-1234")
	Severity  string // CRITICAL, HIGH, MEDIUM, LOW
	Package   string // affected package name
	Installed string // installed version
	FixedIn   string // version that fixes the vuln
	Title     string // one-line description
}

// Result holds the outcome of one image scan.
type Result struct {
	Critical        int
	High            int
	Medium          int
	Low             int
	Vulnerabilities []Vulnerability
	ReportPath      string // retained Trivy JSON report
}

// Gate evaluates the result against a threshold.
// HIGH fails on any high or critical finding; CRITICAL on critical only.
func (r *Result) Gate(threshold Severity) Verdict {
	switch threshold {
	case SeverityHigh:
		if r.High > 0 || r.Critical > 0 {
			return VerdictFail
		}
	case SeverityCritical:
		if r.Critical > 0 {
			return VerdictFail
		}
	}
	return VerdictPass
}

// Summary returns a compact counts line for section output.
func (r *Result) Summary() string {
	total := r.Critical + r.High + r.Medium + r.Low
	if total == 0 {
		return "no vulnerabilities found"
	}
	return fmt.Sprintf("%d findings (%d critical, %d high, %d medium, %d low)",
		total, r.Critical, r.High, r.Medium, r.Low)
}

// Image runs a Trivy scan of imageRef and parses the JSON report.
// The report file is kept under outputDir for CI artifact collection.
func Image(ctx context.Context, imageRef, outputDir string) (*Result, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("scan: creating output dir: %w", err)
	}

	reportPath := filepath.Join(outputDir, "vulnerability-report.json")
	log.Debug().Str("image", imageRef).Str("report", reportPath).Msg("running trivy")

	if err := runTrivy(ctx, imageRef, reportPath); err != nil {
		return nil, fmt.Errorf("scan: trivy: %w", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("scan: reading report: %w", err)
	}

	result, err := parseReport(data)
	if err != nil {
		return nil, fmt.Errorf("scan: parsing report: %w", err)
	}
	result.ReportPath = reportPath
	return result, nil
}

func runTrivy(ctx context.Context, imageRef, output string) error {
	args := []string{"image", "--format", "json", "--output", output, imageRef}
	cmd := exec.CommandContext(ctx, "trivy", args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// parseReport reduces a Trivy JSON report to counts and finding details.
func parseReport(data []byte) (*Result, error) {
	var report struct {
		Results []struct {
			Vulnerabilities []struct {
				VulnerabilityID  string `json:"VulnerabilityID"`
				Severity         string `json:"Severity"`
				PkgName          string `json:"PkgName"`
				InstalledVersion string `json:"InstalledVersion"`
				FixedVersion     string `json:"FixedVersion"`
				Title            string `json:"Title"`
			} `json:"Vulnerabilities"`
		} `json:"Results"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, r := range report.Results {
		for _, v := range r.Vulnerabilities {
			sev := strings.ToUpper(v.Severity)
			switch sev {
			case "CRITICAL":
				result.Critical++
			case "HIGH":
				result.High++
			case "MEDIUM":
				result.Medium++
			case "LOW":
				result.Low++
			}

			result.Vulnerabilities = append(result.Vulnerabilities, Vulnerability{
				ID:        v.VulnerabilityID,
				Severity:  sev,
				Package:   v.PkgName,
				Installed: v.InstalledVersion,
				FixedIn:   v.FixedVersion,
				Title:     v.Title,
			})
		}
	}
	return result, nil
}
