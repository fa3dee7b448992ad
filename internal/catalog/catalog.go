// Package catalog supplies the known universe of installable Xcode versions,
// sourced from the public release feed and cached on disk. It owns its own
// refresh policy; the orchestration core refreshes only when ShouldRefresh
// reports a stale snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"xcv/internal/config"
	"xcv/internal/outcome"
	"xcv/internal/xcode"
)

// Entry is one downloadable release. Entries are uniquely keyed by
// (version, label, index).
type Entry struct {
	Version   xcode.Version
	Build     string
	URL       string
	Installed bool
}

// Catalog serves catalog entries from a cached feed snapshot.
type Catalog struct {
	feedURL   string
	cachePath string
	ttl       time.Duration
	client    *http.Client
}

// New creates a catalog caching under the config directory.
func New(cfg *config.Config) *Catalog {
	return &Catalog{
		feedURL:   cfg.FeedURL,
		cachePath: filepath.Join(cfg.Dir(), "catalog.json"),
		ttl:       time.Duration(cfg.CacheTTL),
		client:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// ShouldRefresh reports whether the cached snapshot is missing or older than
// the configured freshness window.
func (c *Catalog) ShouldRefresh() bool {
	info, err := os.Stat(c.cachePath)
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > c.ttl
}

// Refresh fetches the release feed and rewrites the cache. The cache write
// is atomic so a concurrent reader never sees a partial snapshot.
func (c *Catalog) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return outcome.IO(err, "building feed request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return outcome.IO(err, "fetching release feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return outcome.IO(fmt.Errorf("status %d", resp.StatusCode), "fetching release feed")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome.IO(err, "reading release feed")
	}

	// Validate before replacing the cached snapshot.
	if _, err := parseFeed(data); err != nil {
		return outcome.IO(err, "parsing release feed")
	}

	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		return outcome.IO(err, "creating cache directory")
	}
	tmp := c.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return outcome.IO(err, "writing catalog cache")
	}
	if err := os.Rename(tmp, c.cachePath); err != nil {
		return outcome.IO(err, "writing catalog cache")
	}

	return nil
}

// Entries returns the last cached snapshot, newest version first. A missing
// cache yields an empty catalog rather than an error.
func (c *Catalog) Entries() ([]Entry, error) {
	data, err := os.ReadFile(c.cachePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, outcome.IO(err, "reading catalog cache")
	}

	entries, err := parseFeed(data)
	if err != nil {
		return nil, outcome.IO(err, "parsing catalog cache")
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Version.Compare(entries[j].Version) > 0
	})

	return entries, nil
}

// feedItem mirrors the xcodereleases.com data.json schema.
type feedItem struct {
	Name    string `json:"name"`
	Version struct {
		Number  string `json:"number"`
		Build   string `json:"build"`
		Release struct {
			Release bool `json:"release"`
			Beta    int  `json:"beta"`
			RC      int  `json:"rc"`
			DP      int  `json:"dp"`
			GM      bool `json:"gm"`
			GMSeed  int  `json:"gmSeed"`
		} `json:"release"`
	} `json:"version"`
	Links struct {
		Download struct {
			URL string `json:"url"`
		} `json:"download"`
	} `json:"links"`
}

func parseFeed(data []byte) ([]Entry, error) {
	var items []feedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Name != "" && item.Name != "Xcode" {
			continue
		}

		v, err := xcode.ParseVersion(item.Version.Number)
		if err != nil {
			continue
		}

		rel := item.Version.Release
		switch {
		case rel.Beta > 0:
			v.Label, v.Index = "beta", rel.Beta
		case rel.RC > 0:
			v.Label, v.Index = "rc", rel.RC
		case rel.DP > 0:
			v.Label, v.Index = "dp", rel.DP
		case rel.GMSeed > 0:
			v.Label, v.Index = "gm seed", rel.GMSeed
		case rel.GM:
			v.Label = "gm"
		}

		entries = append(entries, Entry{
			Version: v,
			Build:   item.Version.Build,
			URL:     item.Links.Download.URL,
		})
	}

	return entries, nil
}

// MarkInstalled flags entries whose version is present in installs.
func MarkInstalled(entries []Entry, installs []xcode.Install) {
	for i := range entries {
		for _, inst := range installs {
			if entries[i].Version.Compare(inst.Version) == 0 {
				entries[i].Installed = true
				break
			}
		}
	}
}
