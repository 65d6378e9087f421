package types

import "go.trai.ch/zerr"

// Requirement pins an installed package to a semver range.
type Requirement struct {
	Package string `yaml:"package" json:"package"`
	Range   string `yaml:"range" json:"range"`
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
}

// DisplayName returns Name, falling back to the package identifier.
func (r Requirement) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Package
}

type FailureKind int

const (
	None FailureKind = iota
	NotInstalled
	VersionMismatch
)

func (k FailureKind) String() string {
	switch k {
	case NotInstalled:
		return "not_installed"
	case VersionMismatch:
		return "version_mismatch"
	default:
		return "none"
	}
}

// CheckResult is the outcome of checking one Requirement.
// Installed is empty when the package could not be found. Err wraps
// ErrNotInstalled or ErrVersionMismatch for failed checks.
type CheckResult struct {
	Requirement Requirement
	Installed   string
	Satisfied   bool
	Failure     FailureKind
	Err         error
}

var (
	// ErrNotInstalled is wrapped by CheckResult.Err when a package manifest is missing or has no usable version.
	ErrNotInstalled = zerr.New("package not installed")

	// ErrVersionMismatch is wrapped by CheckResult.Err when the installed version is outside the required range.
	ErrVersionMismatch = zerr.New("version mismatch")

	// ErrInvalidRange is returned when a requirement carries a range that cannot be parsed.
	ErrInvalidRange = zerr.New("invalid version range")

	// ErrRequirementsNotMet is returned after reporting when at least one requirement failed.
	ErrRequirementsNotMet = zerr.New("requirements not met")
)
