package verifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verifyversions/pkg/resolver"
	"verifyversions/pkg/types"
	"verifyversions/pkg/verifier"
)

var toolchain = []types.Requirement{
	{Package: "tailwindcss", Range: "^4.0.0", Name: "Tailwind CSS"},
	{Package: "daisyui", Range: "^5.0.9", Name: "DaisyUI"},
}

func TestCheck_AllSatisfied(t *testing.T) {
	v, err := verifier.New(toolchain, resolver.Static{
		"tailwindcss": "4.0.3",
		"daisyui":     "5.1.0",
	})
	require.NoError(t, err)

	results := v.Check()
	require.Len(t, results, 2)

	for i, res := range results {
		assert.Equal(t, toolchain[i], res.Requirement)
		assert.True(t, res.Satisfied)
		assert.Equal(t, types.None, res.Failure)
		assert.NoError(t, res.Err)
	}
	assert.Equal(t, "4.0.3", results[0].Installed)
	assert.Equal(t, "5.1.0", results[1].Installed)

	assert.False(t, verifier.Failed(results))
	assert.Empty(t, verifier.Failures(results))
	assert.Equal(t, 0, verifier.ExitCode(results))
}

func TestCheck_Mismatch(t *testing.T) {
	v, err := verifier.New(toolchain, resolver.Static{
		"tailwindcss": "3.2.0",
		"daisyui":     "5.1.0",
	})
	require.NoError(t, err)

	results := v.Check()
	require.Len(t, results, 2)

	assert.False(t, results[0].Satisfied)
	assert.Equal(t, types.VersionMismatch, results[0].Failure)
	assert.Equal(t, "3.2.0", results[0].Installed)
	require.Error(t, results[0].Err)
	assert.ErrorIs(t, results[0].Err, types.ErrVersionMismatch)
	assert.NotErrorIs(t, results[0].Err, types.ErrNotInstalled)
	assert.Contains(t, results[0].Err.Error(), "required ^4.0.0, installed 3.2.0")

	assert.True(t, results[1].Satisfied)

	assert.True(t, verifier.Failed(results))
	require.Len(t, verifier.Failures(results), 1)
	assert.Equal(t, "tailwindcss", verifier.Failures(results)[0].Requirement.Package)
	assert.Equal(t, 1, verifier.ExitCode(results))
}

func TestCheck_NotInstalled(t *testing.T) {
	v, err := verifier.New(toolchain, resolver.Static{"tailwindcss": "4.0.3"})
	require.NoError(t, err)

	results := v.Check()
	require.Len(t, results, 2)

	assert.True(t, results[0].Satisfied)
	assert.False(t, results[1].Satisfied)
	assert.Equal(t, types.NotInstalled, results[1].Failure)
	assert.Empty(t, results[1].Installed)
	require.Error(t, results[1].Err)
	assert.ErrorIs(t, results[1].Err, types.ErrNotInstalled)
	assert.Equal(t, 1, verifier.ExitCode(results))
}

func TestCheck_UnparsableVersionIsNotInstalled(t *testing.T) {
	v, err := verifier.New(toolchain[:1], resolver.Static{"tailwindcss": "not-a-version"})
	require.NoError(t, err)

	results := v.Check()
	require.Len(t, results, 1)
	assert.Equal(t, types.NotInstalled, results[0].Failure)
	assert.Empty(t, results[0].Installed)
	assert.ErrorIs(t, results[0].Err, types.ErrNotInstalled)
	assert.Equal(t, 1, verifier.ExitCode(results))
}

func TestCheck_PreservesDeclarationOrder(t *testing.T) {
	reqs := []types.Requirement{
		{Package: "zeta", Range: "^1.0.0"},
		{Package: "alpha", Range: "^1.0.0"},
		{Package: "mid", Range: "^1.0.0"},
	}
	v, err := verifier.New(reqs, resolver.Static{"zeta": "1.0.0", "mid": "0.1.0"})
	require.NoError(t, err)

	results := v.Check()
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, reqs[i].Package, res.Requirement.Package)
	}
	assert.Equal(t, []types.FailureKind{types.None, types.NotInstalled, types.VersionMismatch},
		[]types.FailureKind{results[0].Failure, results[1].Failure, results[2].Failure})
}

func TestCheck_RangeSemantics(t *testing.T) {
	tests := []struct {
		name      string
		rng       string
		installed string
		satisfied bool
	}{
		{name: "caret same major", rng: "^4.0.0", installed: "4.0.3", satisfied: true},
		{name: "caret higher minor", rng: "^4.0.0", installed: "4.9.0", satisfied: true},
		{name: "caret lower major", rng: "^4.0.0", installed: "3.9.9", satisfied: false},
		{name: "caret next major", rng: "^4.0.0", installed: "5.0.0", satisfied: false},
		{name: "caret below patch", rng: "^5.0.9", installed: "5.0.8", satisfied: false},
		{name: "caret at patch", rng: "^5.0.9", installed: "5.0.9", satisfied: true},
		{name: "caret zero major", rng: "^0.2.3", installed: "0.3.0", satisfied: false},
		{name: "tilde", rng: "~1.3.1", installed: "1.3.9", satisfied: true},
		{name: "tilde next minor", rng: "~1.3.1", installed: "1.4.0", satisfied: false},
		{name: "or range", rng: "^3.0.0 || ^4.0.0", installed: "3.4.1", satisfied: true},
		{name: "comparison", rng: ">=2.1.0 <3", installed: "2.5.0", satisfied: true},
		{name: "wildcard", rng: "4.x", installed: "4.2.1", satisfied: true},
		{name: "prerelease excluded", rng: "^4.0.0", installed: "4.1.0-beta.1", satisfied: false},
		{name: "v prefix", rng: "^4.0.0", installed: "v4.0.3", satisfied: true},
		{name: "equals prefix", rng: "^4.0.0", installed: "=4.0.3", satisfied: true},
		{name: "major only", rng: "^4.0.0", installed: "4", satisfied: false},
		{name: "major minor only", rng: "^4.0.0", installed: "4.0", satisfied: false},
		{name: "leading zero", rng: "^4.0.0", installed: "04.0.3", satisfied: false},
		{name: "prerelease same tuple", rng: "^4.0.0-beta.1", installed: "4.0.0-beta.5", satisfied: true},
		{name: "prerelease other tuple", rng: "^4.0.0-beta.1", installed: "4.2.0-beta.3", satisfied: false},
		{name: "release above prerelease floor", rng: "^4.0.0-beta.1", installed: "4.2.0", satisfied: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs := []types.Requirement{{Package: "pkg", Range: tt.rng}}
			v, err := verifier.New(reqs, resolver.Static{"pkg": tt.installed})
			require.NoError(t, err)

			results := v.Check()
			require.Len(t, results, 1)
			assert.Equal(t, tt.satisfied, results[0].Satisfied)
		})
	}
}

func TestCheck_LooseVersionsAreNotInstalled(t *testing.T) {
	for _, installed := range []string{"4", "4.0", "04.0.3"} {
		t.Run(installed, func(t *testing.T) {
			v, err := verifier.New(toolchain[:1], resolver.Static{"tailwindcss": installed})
			require.NoError(t, err)

			results := v.Check()
			require.Len(t, results, 1)
			assert.Equal(t, types.NotInstalled, results[0].Failure)
			assert.ErrorIs(t, results[0].Err, types.ErrNotInstalled)
		})
	}
}

func TestParseRange_InvalidIsMatchable(t *testing.T) {
	_, err := verifier.ParseRange("nope nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidRange)

	_, err = verifier.ParseRange("")
	assert.ErrorIs(t, err, types.ErrInvalidRange)
}

func TestNew_InvalidRanges(t *testing.T) {
	reqs := []types.Requirement{
		{Package: "good", Range: "^1.0.0"},
		{Package: "empty", Range: ""},
		{Package: "garbage", Range: "not a range"},
	}

	v, err := verifier.New(reqs, resolver.Static{})
	require.Error(t, err)
	assert.Nil(t, v)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "garbage:")
	assert.ErrorIs(t, err, types.ErrInvalidRange)
}

func TestNew_CopiesRequirements(t *testing.T) {
	reqs := []types.Requirement{{Package: "tailwindcss", Range: "^4.0.0"}}
	v, err := verifier.New(reqs, resolver.Static{})
	require.NoError(t, err)

	reqs[0].Package = "changed"
	results := v.Check()
	require.Len(t, results, 1)
	assert.Equal(t, "tailwindcss", results[0].Requirement.Package)
}

func TestCheck_Empty(t *testing.T) {
	v, err := verifier.New(nil, resolver.Static{})
	require.NoError(t, err)

	results := v.Check()
	assert.Empty(t, results)
	assert.Equal(t, 0, verifier.ExitCode(results))
}
