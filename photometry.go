package otter

import "maps"

// photometryRequired are the keys every photometry point must carry.
var photometryRequired = []string{"time", "luminosity", "source"}

const photometryRequiredMessage = "time, luminosity, and source are required for every photometry point"

// PhotometryPoint is one measurement record decoded at the input boundary.
// Optional values are nil when the key is absent. A numeric key that is present
// with a null value fails conversion.
type PhotometryPoint struct {
	// Time holds a single reading, or every reading when TimeIsSequence is set.
	Time           []float64
	TimeIsSequence bool
	Luminosity     *float64
	Flux           *float64
	Magnitude      *float64
	Wavelength     any
	Source         string
	// UpperLimit is set when the record carries an "upperlimit" key, whatever its value.
	UpperLimit bool
	// Raw is the record with null-valued keys dropped.
	Raw Record
}

// MeanTime returns the reading for a scalar time and the arithmetic mean for a sequence.
func (p PhotometryPoint) MeanTime() float64 {
	var sum float64
	for _, t := range p.Time {
		sum += t
	}
	return sum / float64(len(p.Time))
}

// DecodePhotometryPoint validates and converts one photometry record.
func DecodePhotometryPoint(record Record) (PhotometryPoint, error) {
	for _, key := range photometryRequired {
		if _, ok := record[key]; !ok {
			return PhotometryPoint{}, NewMissingFieldsError(photometryRequiredMessage, photometryRequired...)
		}
	}

	p := PhotometryPoint{Raw: cleanRecord(record)}

	switch t := record["time"].(type) {
	case []any:
		if len(t) == 0 {
			return PhotometryPoint{}, NewTypeConversionError("time", t, "float")
		}
		p.TimeIsSequence = true
		for _, item := range t {
			f, err := toFloat("time", item)
			if err != nil {
				return PhotometryPoint{}, err
			}
			p.Time = append(p.Time, f)
		}
	case []float64:
		if len(t) == 0 {
			return PhotometryPoint{}, NewTypeConversionError("time", t, "float")
		}
		p.TimeIsSequence = true
		p.Time = append(p.Time, t...)
	default:
		f, err := toFloat("time", t)
		if err != nil {
			return PhotometryPoint{}, err
		}
		p.Time = []float64{f}
	}

	if record["source"] == nil {
		return PhotometryPoint{}, NewTypeConversionError("source", nil, "string")
	}
	p.Source = aliasString(record["source"])

	var err error
	if p.Luminosity, err = optionalFloat(record, "luminosity"); err != nil {
		return PhotometryPoint{}, err
	}
	if p.Flux, err = optionalFloat(record, "flux"); err != nil {
		return PhotometryPoint{}, err
	}
	if p.Magnitude, err = optionalFloat(record, "magnitude"); err != nil {
		return PhotometryPoint{}, err
	}
	p.Wavelength = record["wavelength"]
	_, p.UpperLimit = record["upperlimit"]

	return p, nil
}

func optionalFloat(record Record, key string) (*float64, error) {
	v, ok := record[key]
	if !ok {
		return nil, nil
	}
	f, err := toFloat(key, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func cleanRecord(record Record) Record {
	out := make(Record, len(record))
	for k, v := range record {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

type photometryOptions struct {
	legacyQuirks bool
}

// PhotometryOption configures NewPhotometry.
type PhotometryOption func(*photometryOptions)

// WithLegacyQuirks reproduces the historical column layout: a time given as a
// sequence replaces the whole Time column with its mean, and a point without
// flux appends its null to Luminosity instead of Flux. Columns are then no
// longer index-aligned.
func WithLegacyQuirks() PhotometryOption {
	return func(o *photometryOptions) {
		o.legacyQuirks = true
	}
}

// Photometry is the light curve of one band as parallel columns, one entry per
// input point unless legacy quirks are enabled.
type Photometry struct {
	Band       string
	Time       []float64
	Luminosity []*float64
	Flux       []*float64
	Mag        []*float64
	Wavelength []any
	Source     []SourceRef
	UpperLimit []bool
	Raw        []Record
}

// NewPhotometry builds the light curve of band. Every point's source alias is
// resolved, including when sourcemap is nil.
func NewPhotometry(records []Record, band string, sourcemap SourceMap, opts ...PhotometryOption) (*Photometry, error) {
	var o photometryOptions
	for _, opt := range opts {
		opt(&o)
	}

	ph := &Photometry{
		Band:       band,
		Time:       make([]float64, 0, len(records)),
		Luminosity: make([]*float64, 0, len(records)),
		Flux:       make([]*float64, 0, len(records)),
		Mag:        make([]*float64, 0, len(records)),
		Wavelength: make([]any, 0, len(records)),
		Source:     make([]SourceRef, 0, len(records)),
		UpperLimit: make([]bool, 0, len(records)),
		Raw:        make([]Record, 0, len(records)),
	}

	for _, rec := range records {
		p, err := DecodePhotometryPoint(rec)
		if err != nil {
			return nil, err
		}
		ref, err := AliasToSource(p.Source, sourcemap)
		if err != nil {
			return nil, err
		}
		ph.add(p, ref, o)
	}
	return ph, nil
}

func (ph *Photometry) add(p PhotometryPoint, ref SourceRef, o photometryOptions) {
	if p.TimeIsSequence && o.legacyQuirks {
		ph.Time = []float64{p.MeanTime()}
	} else {
		ph.Time = append(ph.Time, p.MeanTime())
	}

	ph.Source = append(ph.Source, ref)
	ph.Luminosity = append(ph.Luminosity, p.Luminosity)

	switch {
	case p.Flux != nil:
		ph.Flux = append(ph.Flux, p.Flux)
	case o.legacyQuirks:
		ph.Luminosity = append(ph.Luminosity, nil)
	default:
		ph.Flux = append(ph.Flux, nil)
	}

	ph.Mag = append(ph.Mag, p.Magnitude)
	ph.Wavelength = append(ph.Wavelength, p.Wavelength)
	ph.UpperLimit = append(ph.UpperLimit, p.UpperLimit)
	ph.Raw = append(ph.Raw, p.Raw)
}

func (ph *Photometry) StrName() string { return KeyPhotometry }

// Len returns the number of input points.
func (ph *Photometry) Len() int { return len(ph.Raw) }

// ToJSON returns copies of the input points with null-valued keys dropped.
func (ph *Photometry) ToJSON() []map[string]any {
	out := make([]map[string]any, 0, len(ph.Raw))
	for _, r := range ph.Raw {
		out = append(out, maps.Clone(r))
	}
	return out
}
