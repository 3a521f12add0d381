// Package catalog maintains the set of playable media files and the
// persisted favorite markers.
package catalog

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// mediaExtensions lists playable file types, compared case-insensitively.
var mediaExtensions = []string{".mp3", ".wav"}

// IsMediaFile reports whether name has a playable extension.
func IsMediaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return lo.Contains(mediaExtensions, ext)
}

// Catalog is the scanned track list plus favorite state. Safe for
// concurrent use; the arbiter consumes it through the player.Tracks and
// player.FavoriteStore interfaces.
type Catalog struct {
	mu            sync.RWMutex
	dir           string
	tracks        []string
	favoritesOnly bool

	favorites *Favorites
	rng       *rand.Rand
}

// New scans dir and loads favorites from favoritesPath. A missing
// favorites file is not an error, it starts empty.
func New(dir string, favoritesPath string) (*Catalog, error) {
	favorites, err := LoadFavorites(favoritesPath)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		dir:       dir,
		favorites: favorites,
		rng:       rand.New(rand.NewSource(rand.Int63())),
	}
	if err := c.Rescan(); err != nil {
		return nil, err
	}
	return c, nil
}

// Rescan rebuilds the track list from the media directory.
func (c *Catalog) Rescan() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	tracks := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsMediaFile(entry.Name()) {
			continue
		}
		tracks = append(tracks, filepath.Join(c.dir, entry.Name()))
	}
	sort.Strings(tracks)

	c.mu.Lock()
	c.tracks = tracks
	c.mu.Unlock()
	return nil
}

// Tracks returns the full track list, favorites filter applied.
func (c *Catalog) Tracks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visibleLocked()
}

// Len returns the unfiltered track count.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// Dir returns the scanned media directory.
func (c *Catalog) Dir() string { return c.dir }

// SetFavoritesOnly toggles the favorites filter for track selection.
func (c *Catalog) SetFavoritesOnly(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.favoritesOnly = on
}

func (c *Catalog) FavoritesOnly() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.favoritesOnly
}

func (c *Catalog) visibleLocked() []string {
	if !c.favoritesOnly {
		out := make([]string, len(c.tracks))
		copy(out, c.tracks)
		return out
	}
	return lo.Filter(c.tracks, func(path string, _ int) bool {
		return c.favorites.Has(path)
	})
}

// Next implements player.Tracks: the track after current with
// wrap-around, or a random one. A random pick avoids repeating the
// current track when there is a choice.
func (c *Catalog) Next(current string, random bool) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	visible := c.visibleLocked()
	if len(visible) == 0 {
		return "", false
	}

	if random {
		if len(visible) == 1 {
			return visible[0], true
		}
		for {
			pick := visible[c.rng.Intn(len(visible))]
			if pick != current {
				return pick, true
			}
		}
	}

	for i, path := range visible {
		if path == current {
			return visible[(i+1)%len(visible)], true
		}
	}
	return visible[0], true
}

// Add implements player.FavoriteStore: mark and flush. A failed flush
// is logged by the favorites store; memory stays authoritative.
func (c *Catalog) Add(path string) {
	c.favorites.Add(path)
}

// IsFavorite reports whether path is marked as a favorite.
func (c *Catalog) IsFavorite(path string) bool {
	return c.favorites.Has(path)
}

// Favorites exposes the favorite store for the UI and list command.
func (c *Catalog) Favorites() *Favorites { return c.favorites }
