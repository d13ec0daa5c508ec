// Package versions compares daemon software versions against a list of
// known releases.
package versions

import (
	"fmt"
	"io"
	"regexp"
	"sync"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Status is the outcome of a version check.
type Status string

const (
	UpToDate        Status = "up-to-date"
	UpdateAvailable Status = "update-available"
	Development     Status = "development"
	Unsupported     Status = "unsupported"
	Unknown         Status = "unknown"
)

var versionRe = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Release is a single published version.
type Release struct {
	Version     string `yaml:"version"`
	ReleaseDate string `yaml:"releaseDate,omitempty"`
	EOLDate     string `yaml:"eolDate,omitempty"`
}

// AppReleases lists the maintained release series of an application.
type AppReleases struct {
	CurrentStable []Release `yaml:"currentStable"`
	LatestDev     *Release  `yaml:"latestDev,omitempty"`
}

// Metadata is the list of known releases per application (kea, bind9,
// pdns, ...).
type Metadata struct {
	Date string                 `yaml:"date"`
	Apps map[string]AppReleases `yaml:"apps"`
}

// LoadMetadata reads metadata in YAML format.
func LoadMetadata(r io.Reader) (*Metadata, error) {
	var md Metadata
	if err := yaml.NewDecoder(r).Decode(&md); err != nil {
		return nil, fmt.Errorf("parsing versions metadata: %w", err)
	}
	return &md, nil
}

// Result describes how a running version relates to known releases.
type Result struct {
	App     string
	Version string
	Status  Status
	// Latest is the recommended version, empty if none.
	Latest string
}

// Checker evaluates versions against metadata. Results are cached per
// application and version until Refresh is called.
type Checker struct {
	mu    sync.Mutex
	md    *Metadata
	cache map[cacheKey]Result
}

type cacheKey struct {
	app     string
	version string
}

// NewChecker returns a checker using md. A nil md yields Unknown for
// every version.
func NewChecker(md *Metadata) *Checker {
	return &Checker{md: md, cache: make(map[cacheKey]Result)}
}

// Refresh replaces the metadata and drops all cached results.
func (c *Checker) Refresh(md *Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.md = md
	c.cache = make(map[cacheKey]Result)
}

// Cached returns the number of cached results.
func (c *Checker) Cached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Check returns the status of version for app. The version may carry
// extra text, e.g. "2.6.1 (tarball)".
func (c *Checker) Check(app, version string) Result {
	key := cacheKey{app: app, version: version}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.cache[key]; ok {
		return r
	}
	r := evaluate(c.md, app, version)
	c.cache[key] = r
	return r
}

func canonical(version string) string {
	m := versionRe.FindString(version)
	if m == "" {
		return ""
	}
	return "v" + m
}

func evaluate(md *Metadata, app, version string) Result {
	r := Result{App: app, Version: version, Status: Unknown}
	v := canonical(version)
	if v == "" || md == nil {
		return r
	}
	releases, ok := md.Apps[app]
	if !ok {
		return r
	}
	series := semver.MajorMinor(v)

	newest := ""
	for _, s := range releases.CurrentStable {
		sv := canonical(s.Version)
		if sv == "" {
			continue
		}
		if newest == "" || semver.Compare(sv, canonical(newest)) > 0 {
			newest = s.Version
		}
		if semver.MajorMinor(sv) != series {
			continue
		}
		if semver.Compare(v, sv) < 0 {
			r.Status, r.Latest = UpdateAvailable, s.Version
		} else {
			r.Status = UpToDate
		}
		return r
	}

	if dev := releases.LatestDev; dev != nil {
		dv := canonical(dev.Version)
		if dv != "" && semver.MajorMinor(dv) == series {
			if semver.Compare(v, dv) < 0 {
				r.Status, r.Latest = UpdateAvailable, dev.Version
			} else {
				r.Status = Development
			}
			return r
		}
		if dv != "" && semver.Compare(v, dv) > 0 {
			// Newer than anything we know about.
			return r
		}
	}

	if newest != "" && semver.Compare(v, canonical(newest)) > 0 && releases.LatestDev == nil {
		return r
	}
	if newest != "" {
		r.Status, r.Latest = Unsupported, newest
	}
	return r
}
