package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Favorites is the persisted favorite set. Tracks are keyed by file
// base name so the markers survive moving the media directory.
type Favorites struct {
	mu    sync.Mutex
	path  string
	names map[string]bool
}

// DefaultFavoritesPath returns ~/.aural/favorites.json.
func DefaultFavoritesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aural", "favorites.json")
}

// LoadFavorites reads the favorite set from path. A missing file
// yields an empty set.
func LoadFavorites(path string) (*Favorites, error) {
	f := &Favorites{path: path, names: map[string]bool{}}
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &f.names); err != nil {
		return nil, err
	}
	return f, nil
}

// Has reports whether track is a favorite.
func (f *Favorites) Has(track string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[filepath.Base(track)]
}

// Add marks track as favorite and flushes to disk.
func (f *Favorites) Add(track string) {
	f.mu.Lock()
	f.names[filepath.Base(track)] = true
	f.mu.Unlock()
	f.Flush()
}

// Remove unmarks track and flushes to disk.
func (f *Favorites) Remove(track string) {
	f.mu.Lock()
	delete(f.names, filepath.Base(track))
	f.mu.Unlock()
	f.Flush()
}

// Names returns the favorite base names.
func (f *Favorites) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.names))
	for name := range f.names {
		out = append(out, name)
	}
	return out
}

// Flush writes the set to disk. Failure is a warning, not an error:
// the in-memory set stays authoritative for the session.
func (f *Favorites) Flush() {
	f.mu.Lock()
	path := f.path
	data, err := json.MarshalIndent(f.names, "", "  ")
	f.mu.Unlock()

	if path == "" {
		return
	}
	if err != nil {
		slog.Warn("cannot encode favorites", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		slog.Warn("cannot create favorites directory", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Warn("cannot write favorites", "path", path, "error", err)
	}
}
