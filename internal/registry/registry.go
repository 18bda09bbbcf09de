// Package registry persists the ordered list of known setup directories.
//
// The manifest is a plain text file, one setup path per line, living in
// the directory the tool was invoked from. Line order defines index
// assignment. Every mutation rewrites the whole file through an atomic
// rename so concurrent invocations never observe a torn manifest.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestName is the manifest file kept in the registry root.
const ManifestName = ".conductors"

var ErrInvalidIndex = errors.New("registry: invalid index")

// Entry is one registered setup with its current index.
type Entry struct {
	Index int
	Path  string
}

// Registry reads and rewrites one manifest file. It holds no state
// between calls; every operation sees the manifest fresh.
type Registry struct {
	root string
}

// Open binds a registry to a root directory. The manifest may not exist
// yet; an absent manifest is an empty registry.
func Open(root string) *Registry {
	return &Registry{root: root}
}

func (r *Registry) ManifestPath() string {
	return filepath.Join(r.root, ManifestName)
}

// List returns all entries in manifest order.
func (r *Registry) List() ([]Entry, error) {
	paths, err := r.read()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(paths))
	for i, p := range paths {
		entries = append(entries, Entry{Index: i, Path: p})
	}
	return entries, nil
}

// Append adds path as the last entry and returns its index. Appending a
// path that is already registered creates a second entry; two slots may
// legitimately point at the same reused setup.
func (r *Registry) Append(path string) (int, error) {
	paths, err := r.read()
	if err != nil {
		return 0, err
	}
	paths = append(paths, strings.TrimSpace(path))
	if err := r.write(paths); err != nil {
		return 0, err
	}
	return len(paths) - 1, nil
}

// Remove drops the entries at the given indices. Validation is
// all-or-nothing: any index outside current bounds fails with
// ErrInvalidIndex and leaves the manifest untouched.
func (r *Registry) Remove(indices []int) error {
	paths, err := r.read()
	if err != nil {
		return err
	}
	drop := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(paths) {
			return fmt.Errorf("%w: %d (registry has %d entries)", ErrInvalidIndex, idx, len(paths))
		}
		drop[idx] = struct{}{}
	}
	if len(drop) == 0 {
		return nil
	}
	kept := make([]string, 0, len(paths)-len(drop))
	for i, p := range paths {
		if _, ok := drop[i]; ok {
			continue
		}
		kept = append(kept, p)
	}
	return r.write(kept)
}

// RemoveAll empties the registry by deleting the manifest.
func (r *Registry) RemoveAll() error {
	if err := os.Remove(r.ManifestPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("registry: remove manifest: %w", err)
	}
	return nil
}

// Select resolves an index selection against the current manifest.
// Indices must be unique in the result but may repeat in the input.
func (r *Registry) Select(indices []int) ([]Entry, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return entries, nil
	}
	seen := make(map[int]struct{}, len(indices))
	selected := make([]Entry, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(entries) {
			return nil, fmt.Errorf("%w: %d (registry has %d entries)", ErrInvalidIndex, idx, len(entries))
		}
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		selected = append(selected, entries[idx])
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Index < selected[j].Index })
	return selected, nil
}

func (r *Registry) read() ([]string, error) {
	data, err := os.ReadFile(r.ManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("registry: read manifest: %w", err)
	}
	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	return paths, nil
}

// write replaces the manifest atomically: full content to a temp file in
// the same directory, then rename over the manifest.
func (r *Registry) write(paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}

	dir := r.root
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ManifestName+".tmp-*")
	if err != nil {
		return fmt.Errorf("registry: write manifest: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("registry: write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("registry: write manifest: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("registry: write manifest: %w", err)
	}
	if err := os.Rename(tmpName, r.ManifestPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("registry: replace manifest: %w", err)
	}
	return nil
}
