// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package coverage runs `go test -cover` and summarizes per-package
// statement coverage.
package coverage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/bitfield/script"
	"go.opentelemetry.io/otel/trace"

	"coverage-demo/internal/telemetry"
)

// DefaultCommand is run when a Runner has no command configured
const DefaultCommand = "go test -cover ./..."

const tracerName = "calc.coverage"

var (
	// ErrBelowThreshold is returned by Check when total coverage is under the threshold.
	ErrBelowThreshold = errors.New("coverage below threshold")

	// ErrPackagesFailed is returned by Check when a package failed to build or test.
	ErrPackagesFailed = errors.New("packages failed")
)

// Status describes what go test reported for a package
type Status string

const (
	StatusCovered      Status = "covered"
	StatusNoTestFiles  Status = "no-test-files"
	StatusNoStatements Status = "no-statements"
	StatusFailed       Status = "failed"
)

// PackageCoverage is the outcome for one package
type PackageCoverage struct {
	Package string
	Percent float64
	Status  Status
}

// Report summarizes a coverage run
type Report struct {
	Packages []PackageCoverage

	// Failed lists packages whose tests or build failed
	Failed []string
}

// Total returns the mean coverage across packages that reported a percentage.
func (r *Report) Total() float64 {
	var sum float64
	n := 0
	for _, p := range r.Packages {
		if p.Status == StatusCovered {
			sum += p.Percent
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Check returns an error if any package failed or the total is below threshold.
func (r *Report) Check(threshold float64) error {
	if len(r.Failed) > 0 {
		return fmt.Errorf("%w: %v", ErrPackagesFailed, r.Failed)
	}
	if total := r.Total(); total < threshold {
		return fmt.Errorf("%w: %.1f%% < %.1f%%", ErrBelowThreshold, total, threshold)
	}
	return nil
}

var (
	coverageRegex = regexp.MustCompile(`^(?:ok\s+)?(\S+)\s+.*coverage:\s+([\d.]+)% of statements`)
	noStmtRegex   = regexp.MustCompile(`^ok\s+(\S+)\s+.*coverage:\s+\[no statements\]`)
	noTestsRegex  = regexp.MustCompile(`^\?\s+(\S+)\s+\[no test files\]`)
	failRegex     = regexp.MustCompile(`^FAIL\s+(\S+)`)
)

// Parse extracts per-package coverage from `go test -cover` output.
// Test log lines are ignored.
func Parse(output string) *Report {
	report := &Report{Packages: []PackageCoverage{}, Failed: []string{}}
	seenFail := make(map[string]bool)

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			continue
		case noStmtRegex.MatchString(line):
			m := noStmtRegex.FindStringSubmatch(line)
			report.Packages = append(report.Packages, PackageCoverage{Package: m[1], Status: StatusNoStatements})
		case coverageRegex.MatchString(line):
			m := coverageRegex.FindStringSubmatch(line)
			pct, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			report.Packages = append(report.Packages, PackageCoverage{Package: m[1], Percent: pct, Status: StatusCovered})
		case noTestsRegex.MatchString(line):
			m := noTestsRegex.FindStringSubmatch(line)
			report.Packages = append(report.Packages, PackageCoverage{Package: m[1], Status: StatusNoTestFiles})
		case failRegex.MatchString(line):
			pkg := failRegex.FindStringSubmatch(line)[1]
			if seenFail[pkg] {
				continue
			}
			seenFail[pkg] = true
			report.Failed = append(report.Failed, pkg)
			report.Packages = append(report.Packages, PackageCoverage{Package: pkg, Status: StatusFailed})
		}
	}

	return report
}

// Runner executes a coverage command
type Runner struct {
	// Command defaults to DefaultCommand
	Command string

	// Dir is the directory to run in; empty means the current directory
	Dir string

	// Exec runs a command line and returns its combined output. Nil uses bitfield/script.
	Exec func(command string) (string, error)

	Logger *slog.Logger
}

// Run executes the command and parses its output. A non-zero exit status is
// not an error by itself: failing packages are reported in Report.Failed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	command := r.Command
	if command == "" {
		command = DefaultCommand
	}
	if r.Dir != "" {
		command = "sh -c " + shellQuote("cd "+shellQuote(r.Dir)+" && "+command)
	}

	exec := r.Exec
	if exec == nil {
		exec = runScript
	}

	_, span := telemetry.StartSpan(ctx, tracerName, "coverage.Run",
		trace.WithAttributes(telemetry.AttrCommand.String(command)))

	logger.Info("Running coverage", "cmd", command)
	output, err := exec(command)
	report := Parse(output)
	if err != nil && len(report.Packages) == 0 {
		logger.Error("Coverage command failed", "error", err, "output", output)
		err = fmt.Errorf("coverage command failed: %w", err)
		telemetry.Finish(span, err)
		return nil, err
	}

	span.SetAttributes(telemetry.CoverageAttrs(report.Total(), len(report.Packages), len(report.Failed))...)
	telemetry.Finish(span, nil)

	logger.Info("Coverage complete", "packages", len(report.Packages), "total", report.Total(), "failed", len(report.Failed))
	return report, nil
}

func runScript(command string) (string, error) {
	return script.Exec(command).String()
}

// shellQuote wraps s in single quotes for sh
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
