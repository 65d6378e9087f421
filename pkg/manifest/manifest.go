// Package manifest reads installed package.json files from a node_modules tree.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.trai.ch/zerr"
)

const (
	ModulesDir   = "node_modules"
	ManifestFile = "package.json"
)

// ErrManifestNotFound is returned when no node_modules directory on the parent
// chain holds a manifest for the package.
var ErrManifestNotFound = zerr.New("manifest not found")

// ErrInvalidName is returned for package names outside the npm name grammar.
var ErrInvalidName = zerr.New("invalid package name")

var namePattern = regexp.MustCompile(`^(@[A-Za-z0-9~-][A-Za-z0-9._~-]*/)?[A-Za-z0-9~-][A-Za-z0-9._~-]*$`)

// ValidName reports whether pkg is an npm package name: "name" or
// "@scope/name", never starting with a dot or containing path separators.
func ValidName(pkg string) bool {
	return len(pkg) <= 214 && namePattern.MatchString(pkg)
}

// Manifest holds the package.json fields the verifier cares about.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`

	// Path is the file the manifest was read from.
	Path string `json:"-"`
}

// Read decodes the manifest at path.
func Read(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Manifest{}, zerr.With(zerr.Wrap(err, "failed to open manifest"), "path", path)
	}
	defer f.Close()

	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return Manifest{}, zerr.With(zerr.Wrap(err, "failed to parse manifest"), "path", path)
	}
	m.Path = path
	return m, nil
}

// Find locates the manifest of pkg the way Node resolves require("pkg/package.json"):
// it checks <dir>/node_modules/<pkg>/package.json for root and every parent of root.
func Find(root, pkg string) (string, error) {
	if !ValidName(pkg) {
		return "", fmt.Errorf("%w %q", ErrInvalidName, pkg)
	}

	dir, err := filepath.Abs(root)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve root directory")
	}

	for {
		// node_modules/node_modules is never a lookup location.
		if filepath.Base(dir) != ModulesDir {
			candidate := filepath.Join(dir, ModulesDir, filepath.FromSlash(pkg), ManifestFile)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s: %w", pkg, ErrManifestNotFound)
		}
		dir = parent
	}
}
