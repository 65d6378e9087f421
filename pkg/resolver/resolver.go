package resolver

import (
	"sync"

	"verifyversions/pkg/log"
	"verifyversions/pkg/manifest"
)

// VersionResolver reports the installed version of a package.
type VersionResolver interface {
	// Resolve returns the declared version of pkg, or ok=false when the
	// package is not installed or its manifest is unusable.
	Resolve(pkg string) (version string, ok bool)
}

// NodeModules resolves versions from package.json files under node_modules,
// searching Root and its parents. The zero value resolves from the working
// directory.
type NodeModules struct {
	Root string

	mu    sync.Mutex
	cache map[string]result
}

type result struct {
	version string
	ok      bool
}

func NewNodeModules(root string) *NodeModules {
	return &NodeModules{
		Root:  root,
		cache: make(map[string]result),
	}
}

func (r *NodeModules) Resolve(pkg string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache == nil {
		r.cache = make(map[string]result)
	}
	if cached, ok := r.cache[pkg]; ok {
		log.Debug("Using cached manifest lookup", map[string]interface{}{
			"package": pkg,
			"version": cached.version,
		})
		return cached.version, cached.ok
	}

	res := r.lookup(pkg)
	r.cache[pkg] = res
	return res.version, res.ok
}

func (r *NodeModules) lookup(pkg string) result {
	root := r.Root
	if root == "" {
		root = "."
	}
	path, err := manifest.Find(root, pkg)
	if err != nil {
		log.Debug("Manifest not found", map[string]interface{}{
			"package": pkg,
			"root":    root,
			"error":   err.Error(),
		})
		return result{}
	}

	m, err := manifest.Read(path)
	if err != nil {
		log.Warn("Failed to read manifest", map[string]interface{}{
			"package": pkg,
			"path":    path,
			"error":   err.Error(),
		})
		return result{}
	}
	if m.Version == "" {
		log.Warn("Manifest has no version field", map[string]interface{}{
			"package": pkg,
			"path":    path,
		})
		return result{}
	}

	if m.Name != "" && m.Name != pkg {
		log.Warn("Manifest name differs from requested package", map[string]interface{}{
			"package": pkg,
			"name":    m.Name,
			"path":    path,
		})
	}

	log.Debug("Manifest resolved", map[string]interface{}{
		"package": pkg,
		"path":    path,
		"version": m.Version,
	})
	return result{version: m.Version, ok: true}
}

// Static is an in-memory VersionResolver keyed by package name.
type Static map[string]string

func (s Static) Resolve(pkg string) (string, bool) {
	v, ok := s[pkg]
	return v, ok
}
