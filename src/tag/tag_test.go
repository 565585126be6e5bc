package tag

import (
	"strings"
	"testing"
	"time"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name         string
		branch       string
		commitSHA    string
		timestamp    string
		wantUnique   string
		wantFloating string
		expectErr    bool
	}{
		{
			name:         "plain branch",
			branch:       "dev",
			commitSHA:    "a1b2c3d4e5f6",
			timestamp:    "20250928130045",
			wantUnique:   "dev-a1b2c3d-20250928130045",
			wantFloating: "dev-latest",
		},
		{
			name:         "branch with path separator",
			branch:       "feature/login",
			commitSHA:    "abcdef01234",
			timestamp:    "20250101000000",
			wantUnique:   "feature-login-abcdef0-20250101000000",
			wantFloating: "feature-login-latest",
		},
		{
			name:         "deeply nested branch",
			branch:       "release/2025/hotfix",
			commitSHA:    "0123456789abcdef",
			timestamp:    "20250601120000",
			wantUnique:   "release-2025-hotfix-0123456-20250601120000",
			wantFloating: "release-2025-hotfix-latest",
		},
		{
			name:         "exactly seven char sha",
			branch:       "main",
			commitSHA:    "abc1234",
			timestamp:    "20250101000000",
			wantUnique:   "main-abc1234-20250101000000",
			wantFloating: "main-latest",
		},
		{
			name:      "empty branch",
			branch:    "",
			commitSHA: "a1b2c3d4e5f6",
			timestamp: "20250101000000",
			expectErr: true,
		},
		{
			name:      "sha too short",
			branch:    "main",
			commitSHA: "abc12",
			timestamp: "20250101000000",
			expectErr: true,
		},
		{
			name:      "sha with non-hex characters",
			branch:    "main",
			commitSHA: "zzzzzzzz",
			timestamp: "20250101000000",
			expectErr: true,
		},
		{
			name:      "missing timestamp",
			branch:    "main",
			commitSHA: "a1b2c3d4e5f6",
			timestamp: "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Derive(tt.branch, tt.commitSHA, tt.timestamp)

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got tags %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Unique != tt.wantUnique {
				t.Errorf("unique tag = %q, want %q", got.Unique, tt.wantUnique)
			}
			if got.Floating != tt.wantFloating {
				t.Errorf("floating tag = %q, want %q", got.Floating, tt.wantFloating)
			}
		})
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	first, err := Derive("feature/login", "abcdef01234", "20250101000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Derive("feature/login", "abcdef01234", "20250101000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("derive not idempotent: %+v vs %+v", first, second)
	}
}

func TestSanitizeRemovesAllSeparators(t *testing.T) {
	branches := []string{
		"feature/login",
		"a/b/c/d",
		"fix/ISSUE-42/retry",
		"wip branch/with spaces",
	}
	for _, b := range branches {
		got := Sanitize(b)
		if strings.ContainsAny(got, "/ ") {
			t.Errorf("Sanitize(%q) = %q still contains separators", b, got)
		}
	}
}

func TestShortSHA(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a1b2c3d4e5f6", "a1b2c3d"},
		{"abcdef0", "abcdef0"},
		{"0123456789abcdef0123456789abcdef01234567", "0123456"},
	}
	for _, tt := range tests {
		if got := ShortSHA(tt.input); got != tt.want {
			t.Errorf("ShortSHA(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTimestampSortable(t *testing.T) {
	earlier := Timestamp(time.Date(2025, 9, 28, 13, 0, 45, 0, time.UTC))
	later := Timestamp(time.Date(2025, 9, 28, 13, 0, 46, 0, time.UTC))

	if earlier != "20250928130045" {
		t.Errorf("Timestamp = %q, want 20250928130045", earlier)
	}
	if !(earlier < later) {
		t.Errorf("timestamps not lexically sortable: %q >= %q", earlier, later)
	}
}

func TestTimestampUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2025, 1, 1, 4, 0, 0, 0, loc) // 2024-12-31 23:00 UTC
	if got := Timestamp(local); got != "20241231230000" {
		t.Errorf("Timestamp = %q, want 20241231230000", got)
	}
}
