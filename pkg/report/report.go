// Package report prints verification results for humans or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"verifyversions/pkg/types"
	"verifyversions/pkg/verifier"
)

const (
	DefaultPackageManager = "npm"
	DefaultFixCommand     = "npm run fix-versions"
)

// Options control how a Printer renders results.
type Options struct {
	// PackageManager picks the install hint: npm, yarn or pnpm.
	PackageManager string
	// FixCommand is suggested once in the failure summary.
	FixCommand string
	Color      ColorMode
}

// Printer writes satisfied results to Out and failures to Err, one line group
// per requirement in declaration order.
type Printer struct {
	out, err io.Writer
	opts     Options

	outStyle styles
	errStyle styles
}

func NewPrinter(out, err io.Writer, opts Options) *Printer {
	if opts.PackageManager == "" {
		opts.PackageManager = DefaultPackageManager
	}
	if opts.FixCommand == "" {
		opts.FixCommand = DefaultFixCommand
	}
	return &Printer{
		out:      out,
		err:      err,
		opts:     opts,
		outStyle: newStyles(out, opts.Color),
		errStyle: newStyles(err, opts.Color),
	}
}

// InstallHint returns the command that installs pkg at the required range.
func InstallHint(packageManager, pkg, versionRange string) string {
	target := fmt.Sprintf("%s@%s", pkg, versionRange)
	switch packageManager {
	case "yarn":
		return "yarn add " + target
	case "pnpm":
		return "pnpm add " + target
	default:
		return fmt.Sprintf("npm install %s --save", target)
	}
}

// Report prints every result followed by the aggregate summary.
func (p *Printer) Report(results []types.CheckResult) {
	for _, r := range results {
		p.Result(r)
	}
	p.Summary(verifier.Failed(results))
}

func (p *Printer) Result(r types.CheckResult) {
	name := r.Requirement.DisplayName()
	hint := "   Run: " + InstallHint(p.opts.PackageManager, r.Requirement.Package, r.Requirement.Range)

	switch {
	case r.Satisfied:
		fmt.Fprintln(p.out, p.outStyle.success.Render(fmt.Sprintf("✅ %s version: %s", name, r.Installed)))
	case r.Failure == types.VersionMismatch:
		fmt.Fprintln(p.err, p.errStyle.failure.Render(fmt.Sprintf("❌ %s version mismatch!", name)))
		fmt.Fprintln(p.err, p.errStyle.failure.Render("   Required: "+r.Requirement.Range))
		fmt.Fprintln(p.err, p.errStyle.failure.Render("   Installed: "+r.Installed))
		fmt.Fprintln(p.err, p.errStyle.hint.Render(hint))
	default:
		fmt.Fprintln(p.err, p.errStyle.failure.Render(fmt.Sprintf("❌ %s is not installed!", name)))
		fmt.Fprintln(p.err, p.errStyle.hint.Render(hint))
	}
}

func (p *Printer) Summary(failed bool) {
	if failed {
		fmt.Fprintln(p.err)
		fmt.Fprintln(p.err, p.errStyle.failure.Render("⚠️ Some dependencies have version mismatches. Please fix them before continuing."))
		fmt.Fprintln(p.err)
		fmt.Fprintln(p.err, p.errStyle.hint.Render("Run: "+p.opts.FixCommand))
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.outStyle.success.Render("✅ All dependencies have correct versions."))
	fmt.Fprintln(p.out)
}

type jsonResult struct {
	Package   string `json:"package"`
	Name      string `json:"name"`
	Range     string `json:"range"`
	Installed string `json:"installed,omitempty"`
	Satisfied bool   `json:"satisfied"`
	Failure   string `json:"failure,omitempty"`
	Hint      string `json:"hint,omitempty"`
	Error     string `json:"error,omitempty"`
}

type jsonReport struct {
	OK      bool         `json:"ok"`
	Results []jsonResult `json:"results"`
}

// JSON writes the results as a single JSON document to Out.
func (p *Printer) JSON(results []types.CheckResult) error {
	doc := jsonReport{
		OK:      !verifier.Failed(results),
		Results: make([]jsonResult, 0, len(results)),
	}
	for _, r := range results {
		jr := jsonResult{
			Package:   r.Requirement.Package,
			Name:      r.Requirement.DisplayName(),
			Range:     r.Requirement.Range,
			Installed: r.Installed,
			Satisfied: r.Satisfied,
		}
		if !r.Satisfied {
			jr.Failure = r.Failure.String()
			jr.Hint = InstallHint(p.opts.PackageManager, r.Requirement.Package, r.Requirement.Range)
			if r.Err != nil {
				jr.Error = r.Err.Error()
			}
		}
		doc.Results = append(doc.Results, jr)
	}

	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
