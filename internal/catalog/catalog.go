// Package catalog maintains the registry of known stock-content providers
// consulted by the parser and resolver.
package catalog

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Provider describes one stock-content source.
type Provider struct {
	Name         string `yaml:"name" json:"name"`
	Active       bool   `yaml:"active" json:"active"`
	URLPattern   string `yaml:"url_pattern" json:"url_pattern"`
	IDPattern    string `yaml:"id_pattern" json:"id_pattern"`
	CurrencyUnit string `yaml:"currency_unit" json:"currency_unit"`

	urlRe *regexp.Regexp
	idRe  *regexp.Regexp
}

// Snapshot is an immutable, compiled view of the catalog. A parse/resolve
// pass holds one snapshot for its whole lifetime so results are consistent
// even while the live catalog refreshes underneath.
type Snapshot struct {
	byName  map[string]Provider
	ordered []Provider
}

// NewSnapshot compiles provider patterns into a snapshot. Provider names
// are matched case-insensitively; iteration order is fixed (sorted by
// name) so parsing is deterministic.
func NewSnapshot(providers []Provider) (*Snapshot, error) {
	snap := &Snapshot{byName: make(map[string]Provider, len(providers))}

	for _, p := range providers {
		if p.Name == "" {
			return nil, eris.New("catalog: provider with empty name")
		}
		if p.URLPattern != "" {
			re, err := regexp.Compile(p.URLPattern)
			if err != nil {
				return nil, eris.Wrapf(err, "catalog: compile url pattern for %s", p.Name)
			}
			p.urlRe = re
		}
		if p.IDPattern != "" {
			re, err := regexp.Compile("^(?:" + p.IDPattern + ")$")
			if err != nil {
				return nil, eris.Wrapf(err, "catalog: compile id pattern for %s", p.Name)
			}
			p.idRe = re
		}
		key := strings.ToLower(p.Name)
		if _, dup := snap.byName[key]; dup {
			return nil, eris.Errorf("catalog: duplicate provider %s", p.Name)
		}
		snap.byName[key] = p
		snap.ordered = append(snap.ordered, p)
	}

	sort.Slice(snap.ordered, func(i, j int) bool {
		return snap.ordered[i].Name < snap.ordered[j].Name
	})

	return snap, nil
}

// Get returns the provider by name, case-insensitively.
func (s *Snapshot) Get(name string) (Provider, bool) {
	p, ok := s.byName[strings.ToLower(name)]
	return p, ok
}

// Providers returns all providers in deterministic (name) order.
func (s *Snapshot) Providers() []Provider {
	out := make([]Provider, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of providers in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.ordered)
}

// MatchURL tries each provider's URL pattern against the raw URL and
// extracts the provider-specific id from the first capture group. Inactive
// providers still match so the caller can report "provider inactive"
// instead of a generic parse failure; active providers are tried first.
func (s *Snapshot) MatchURL(rawURL string) (Provider, string, bool) {
	if p, id, ok := s.matchURL(rawURL, true); ok {
		return p, id, true
	}
	return s.matchURL(rawURL, false)
}

func (s *Snapshot) matchURL(rawURL string, active bool) (Provider, string, bool) {
	for _, p := range s.ordered {
		if p.Active != active || p.urlRe == nil {
			continue
		}
		m := p.urlRe.FindStringSubmatch(rawURL)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		return p, m[1], true
	}
	return Provider{}, "", false
}

// MatchBareID returns the provider whose id pattern matches the bare id.
// The match is only usable when exactly one active provider matches;
// ambiguous reports when two or more did. When the only match is an
// inactive provider it is returned with ok=true so the caller can surface
// "provider inactive".
func (s *Snapshot) MatchBareID(id string) (p Provider, ok bool, ambiguous bool) {
	if p, ok, ambiguous = s.matchBareID(id, true); ok || ambiguous {
		return p, ok, ambiguous
	}
	return s.matchBareID(id, false)
}

func (s *Snapshot) matchBareID(id string, active bool) (p Provider, ok bool, ambiguous bool) {
	for _, cand := range s.ordered {
		if cand.Active != active || cand.idRe == nil {
			continue
		}
		if !cand.idRe.MatchString(id) {
			continue
		}
		if ok {
			return Provider{}, false, true
		}
		p, ok = cand, true
	}
	return p, ok, false
}

// ValidID reports whether id matches the provider's id pattern. Providers
// without a pattern accept any non-empty id.
func (p Provider) ValidID(id string) bool {
	if id == "" {
		return false
	}
	if p.idRe == nil {
		return true
	}
	return p.idRe.MatchString(id)
}
