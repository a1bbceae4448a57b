package otter

import (
	"strings"
)

// Document keys of each attribute kind.
const (
	KeySources       = "sources"
	KeyName          = "name"
	KeyAlias         = "alias"
	KeyRA            = "ra"
	KeyDec           = "dec"
	KeyRedshift      = "z"
	KeyDiscoveryDate = "discovery_date"
	KeyPhotometry    = "photometry"
	KeySpectra       = "spectra"
)

// Source is a bibliographic reference. Two sources are the same reference when
// their bibcodes match, regardless of alias.
type Source struct {
	Name    string `json:"name"`
	Bibcode string `json:"bibcode"`
	Alias   string `json:"alias"`
}

// NewSource builds a Source from a record holding name, bibcode and alias.
func NewSource(record Record) (*Source, error) {
	name, err := requireString(record, "name")
	if err != nil {
		return nil, err
	}
	bibcode, err := requireString(record, "bibcode")
	if err != nil {
		return nil, err
	}
	alias, err := requireString(record, "alias")
	if err != nil {
		return nil, err
	}
	return &Source{Name: name, Bibcode: bibcode, Alias: alias}, nil
}

func (s *Source) StrName() string { return KeySources }

// Equal compares bibcodes only.
func (s *Source) Equal(other *Source) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Bibcode == other.Bibcode
}

func (s *Source) ToJSON() map[string]any {
	return map[string]any{
		"name":    s.Name,
		"bibcode": s.Bibcode,
		"alias":   s.Alias,
	}
}

// SourceMap maps an alias to its Source. A nil SourceMap means no sourcemap was
// supplied, which is not the same as an empty one.
type SourceMap map[string]*Source

// NewSourceMap builds the sources of one transient and indexes them by alias.
func NewSourceMap(records []Record) (SourceMap, []*Source, error) {
	sm := make(SourceMap, len(records))
	sources := make([]*Source, 0, len(records))
	for _, rec := range records {
		src, err := NewSource(rec)
		if err != nil {
			return nil, nil, err
		}
		sm[src.Alias] = src
		sources = append(sources, src)
	}
	return sm, sources, nil
}

// SourceKind discriminates the shapes a resolved source reference can take.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceSingle
	SourceMultiple
	SourceComputed
)

func (k SourceKind) String() string {
	switch k {
	case SourceSingle:
		return "single"
	case SourceMultiple:
		return "multiple"
	case SourceComputed:
		return "computed"
	default:
		return "none"
	}
}

// SourceRef is the provenance attached to a value: nothing, one source, an
// ordered list of sources, or a computed value identified by an opaque id.
type SourceRef struct {
	kind       SourceKind
	sources    []*Source
	computedID string
}

func SingleSource(s *Source) SourceRef {
	return SourceRef{kind: SourceSingle, sources: []*Source{s}}
}

func MultipleSources(sources []*Source) SourceRef {
	return SourceRef{kind: SourceMultiple, sources: sources}
}

func ComputedSource(id string) SourceRef {
	return SourceRef{kind: SourceComputed, computedID: id}
}

func (r SourceRef) Kind() SourceKind { return r.kind }

func (r SourceRef) IsZero() bool { return r.kind == SourceNone }

// Sources returns the referenced sources in alias order; nil for none and computed.
func (r SourceRef) Sources() []*Source { return r.sources }

// ComputedID returns the identifier of a computed value.
func (r SourceRef) ComputedID() string { return r.computedID }

// Alias renders the reference the way it is stored: multiple aliases are joined
// with commas in their original order.
func (r SourceRef) Alias() string {
	switch r.kind {
	case SourceSingle, SourceMultiple:
		aliases := make([]string, 0, len(r.sources))
		for _, s := range r.sources {
			aliases = append(aliases, s.Alias)
		}
		return strings.Join(aliases, ",")
	case SourceComputed:
		return r.computedID
	default:
		return ""
	}
}

// AliasToSource resolves an alias against the sourcemap. A comma separated alias
// yields every part in order; an alias containing a hyphen is a computed
// identifier and is not looked up.
func AliasToSource(alias string, sourcemap SourceMap) (SourceRef, error) {
	if strings.Contains(alias, ",") {
		parts := strings.Split(alias, ",")
		sources := make([]*Source, 0, len(parts))
		for _, a := range parts {
			src, ok := sourcemap[a]
			if !ok {
				return SourceRef{}, NewKeyNotFoundError(a)
			}
			sources = append(sources, src)
		}
		return MultipleSources(sources), nil
	}
	if strings.Contains(alias, "-") {
		return ComputedSource(alias), nil
	}
	src, ok := sourcemap[alias]
	if !ok {
		return SourceRef{}, NewKeyNotFoundError(alias)
	}
	return SingleSource(src), nil
}

// sourceJSON appends the source key to out unless the reference renders empty.
func sourceJSON(out map[string]any, ref SourceRef) map[string]any {
	if alias := ref.Alias(); alias != "" {
		out["source"] = alias
	}
	return out
}
