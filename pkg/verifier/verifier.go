// Package verifier checks installed package versions against semver ranges.
package verifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-multierror"

	"verifyversions/pkg/log"
	"verifyversions/pkg/resolver"
	"verifyversions/pkg/types"
)

// Verifier checks a fixed, ordered set of requirements.
type Verifier struct {
	reqs     []types.Requirement
	ranges   []versionRange
	resolver resolver.VersionResolver
}

type versionRange struct {
	constraints *semver.Constraints
	// prereleases holds the major.minor.patch tuples of every comparator in
	// the range that carries a pre-release tag.
	prereleases map[[3]uint64]bool
}

// New parses every requirement range up front. All invalid ranges are
// reported together.
func New(reqs []types.Requirement, r resolver.VersionResolver) (*Verifier, error) {
	var merr *multierror.Error
	ranges := make([]versionRange, len(reqs))

	for i, req := range reqs {
		c, err := ParseRange(req.Range)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", req.Package, err))
			continue
		}
		ranges[i] = versionRange{constraints: c, prereleases: prereleaseTuples(req.Range)}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Verifier{
		reqs:     append([]types.Requirement(nil), reqs...),
		ranges:   ranges,
		resolver: r,
	}, nil
}

// ParseRange parses an npm-style semver range.
func ParseRange(versionRange string) (*semver.Constraints, error) {
	if strings.TrimSpace(versionRange) == "" {
		return nil, fmt.Errorf("%w %q", types.ErrInvalidRange, versionRange)
	}
	c, err := semver.NewConstraint(versionRange)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", types.ErrInvalidRange, versionRange, err)
	}
	return c, nil
}

// ParseVersion parses an installed version the way npm does: an optional
// leading "v" or "=" followed by a strict major.minor.patch version.
func ParseVersion(version string) (*semver.Version, error) {
	v := strings.TrimSpace(version)
	v = strings.TrimLeft(v, "=v")
	return semver.StrictNewVersion(v)
}

var prereleaseComparator = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)-[0-9A-Za-z.-]+`)

func prereleaseTuples(versionRange string) map[[3]uint64]bool {
	tuples := make(map[[3]uint64]bool)
	for _, m := range prereleaseComparator.FindAllStringSubmatch(versionRange, -1) {
		var t [3]uint64
		for i := range t {
			t[i], _ = strconv.ParseUint(m[i+1], 10, 64)
		}
		tuples[t] = true
	}
	return tuples
}

// Check resolves and checks every requirement in declaration order. It has no
// side effects beyond debug logging.
func (v *Verifier) Check() []types.CheckResult {
	results := make([]types.CheckResult, 0, len(v.reqs))
	for i, req := range v.reqs {
		res := v.check(req, v.ranges[i])
		fields := map[string]interface{}{
			"package":   req.Package,
			"range":     req.Range,
			"installed": res.Installed,
			"satisfied": res.Satisfied,
			"failure":   res.Failure.String(),
		}
		if res.Err != nil {
			fields["error"] = res.Err.Error()
		}
		log.Debug("Checked requirement", fields)
		results = append(results, res)
	}
	return results
}

func (v *Verifier) check(req types.Requirement, rng versionRange) types.CheckResult {
	res := types.CheckResult{Requirement: req}

	installed, ok := v.resolver.Resolve(req.Package)
	if !ok {
		res.Failure = types.NotInstalled
		res.Err = fmt.Errorf("%s: %w", req.Package, types.ErrNotInstalled)
		return res
	}

	ver, err := ParseVersion(installed)
	if err != nil {
		// An unparsable version field counts as not installed.
		res.Failure = types.NotInstalled
		res.Err = fmt.Errorf("%s: %w: invalid version %q", req.Package, types.ErrNotInstalled, installed)
		return res
	}
	res.Installed = installed

	if !rng.satisfiedBy(ver) {
		res.Failure = types.VersionMismatch
		res.Err = fmt.Errorf("%s: %w: required %s, installed %s", req.Package, types.ErrVersionMismatch, req.Range, installed)
		return res
	}

	res.Satisfied = true
	return res
}

func (r versionRange) satisfiedBy(ver *semver.Version) bool {
	if !r.constraints.Check(ver) {
		return false
	}
	if ver.Prerelease() == "" {
		return true
	}
	// A pre-release only matches a comparator on the same major.minor.patch.
	return r.prereleases[[3]uint64{ver.Major(), ver.Minor(), ver.Patch()}]
}

// Failed reports whether any result is unsatisfied.
func Failed(results []types.CheckResult) bool {
	for _, r := range results {
		if !r.Satisfied {
			return true
		}
	}
	return false
}

// Failures returns the unsatisfied results, preserving order.
func Failures(results []types.CheckResult) []types.CheckResult {
	var out []types.CheckResult
	for _, r := range results {
		if !r.Satisfied {
			out = append(out, r)
		}
	}
	return out
}

// ExitCode maps results to the process exit status: 0 when all requirements
// are satisfied, 1 otherwise.
func ExitCode(results []types.CheckResult) int {
	if Failed(results) {
		return 1
	}
	return 0
}
