package otter

import "maps"

// Spectra holds spectrum records as given; nothing is extracted or resolved.
type Spectra struct {
	Band    string
	Entries []Record
}

// NewSpectra stores records unchanged. band and sourcemap are accepted for
// symmetry with NewPhotometry and are not used to interpret the records.
func NewSpectra(records []Record, band string, sourcemap SourceMap) *Spectra {
	return &Spectra{Band: band, Entries: records}
}

func (s *Spectra) StrName() string { return KeySpectra }

// ToJSON returns shallow copies of the stored records.
func (s *Spectra) ToJSON() []map[string]any {
	out := make([]map[string]any, 0, len(s.Entries))
	for _, r := range s.Entries {
		out = append(out, maps.Clone(r))
	}
	return out
}
