package otter

import (
	"sort"
)

// Transient is every attribute ingested for one astronomical object, sharing
// one sourcemap.
type Transient struct {
	Name          *Name
	Sources       []*Source
	SourceMap     SourceMap
	RA            []*RA
	Dec           []*Dec
	Redshift      []*Redshift
	DiscoveryDate []*DiscoveryDate
	Photometry    map[string]*Photometry
	Spectra       map[string]*Spectra
}

// BuildTransient builds a transient from a document of the shape produced by
// ToDocument. The name and the sources list must be valid. Any other attribute
// that fails to build is left out and reported in an *AttributeErrors, which is
// returned together with the partially built transient.
func BuildTransient(record Record, opts ...PhotometryOption) (*Transient, error) {
	name, err := buildName(record)
	if err != nil {
		return nil, err
	}

	t := &Transient{
		Name:       name,
		Photometry: make(map[string]*Photometry),
		Spectra:    make(map[string]*Spectra),
	}

	if raw, ok := lookup(record, KeySources); ok {
		recs, err := toRecords(KeySources, raw)
		if err != nil {
			return nil, err
		}
		t.SourceMap, t.Sources, err = NewSourceMap(recs)
		if err != nil {
			return nil, err
		}
	}

	errs := NewAttributeErrors()

	eachRecord(record, KeyRA, errs, func(rec Record) error {
		ra, err := NewRA(rec, t.SourceMap)
		if err == nil {
			t.RA = append(t.RA, ra)
		}
		return err
	})
	eachRecord(record, KeyDec, errs, func(rec Record) error {
		dec, err := NewDec(rec, t.SourceMap)
		if err == nil {
			t.Dec = append(t.Dec, dec)
		}
		return err
	})
	eachRecord(record, KeyRedshift, errs, func(rec Record) error {
		z, err := NewRedshift(rec, t.SourceMap)
		if err == nil {
			t.Redshift = append(t.Redshift, z)
		}
		return err
	})
	eachRecord(record, KeyDiscoveryDate, errs, func(rec Record) error {
		d, err := NewDiscoveryDate(rec, t.SourceMap)
		if err == nil {
			t.DiscoveryDate = append(t.DiscoveryDate, d)
		}
		return err
	})

	eachBand(record, KeyPhotometry, errs, func(band string, recs []Record) error {
		ph, err := NewPhotometry(recs, band, t.SourceMap, opts...)
		if err == nil {
			t.Photometry[band] = ph
		}
		return err
	})
	eachBand(record, KeySpectra, errs, func(band string, recs []Record) error {
		t.Spectra[band] = NewSpectra(recs, band, t.SourceMap)
		return nil
	})

	return t, errs.ToError()
}

func buildName(record Record) (*Name, error) {
	raw, err := requireField(record, KeyName)
	if err != nil {
		return nil, err
	}

	aliasHolder := record
	var name string
	switch v := raw.(type) {
	case string:
		name = v
	case Record:
		if name, err = requireString(v, "default_name"); err != nil {
			return nil, err
		}
		aliasHolder = v
	default:
		return nil, NewTypeConversionError(KeyName, raw, "string")
	}

	var aliases []string
	if a, ok := lookup(aliasHolder, KeyAlias); ok {
		if aliases, err = toStrings(KeyAlias, a); err != nil {
			return nil, err
		}
	}
	return NewName(name, aliases), nil
}

// eachRecord calls build for every record stored under key, which may hold a
// single object or a list of them.
func eachRecord(record Record, key string, errs *AttributeErrors, build func(Record) error) {
	raw, ok := lookup(record, key)
	if !ok {
		return
	}
	if single, ok := raw.(Record); ok {
		if err := build(single); err != nil {
			errs.Add(key, 0, err)
		}
		return
	}
	recs, err := toRecords(key, raw)
	if err != nil {
		errs.Add(key, 0, err)
		return
	}
	for i, rec := range recs {
		if err := build(rec); err != nil {
			errs.Add(key, i, err)
		}
	}
}

// eachBand calls build for every band of a band -> records mapping, in band order.
func eachBand(record Record, key string, errs *AttributeErrors, build func(string, []Record) error) {
	raw, ok := lookup(record, key)
	if !ok {
		return
	}
	bands, ok := raw.(Record)
	if !ok {
		errs.Add(key, 0, NewTypeConversionError(key, raw, "object of bands"))
		return
	}

	names := make([]string, 0, len(bands))
	for band := range bands {
		names = append(names, band)
	}
	sort.Strings(names)

	for i, band := range names {
		recs, err := toRecords(key, bands[band])
		if err != nil {
			errs.Add(key+"."+band, i, err)
			continue
		}
		if err := build(band, recs); err != nil {
			errs.Add(key+"."+band, i, err)
		}
	}
}

// ToDocument returns the document database payload of the transient.
func (t *Transient) ToDocument() map[string]any {
	doc := map[string]any{
		KeyName: t.Name.ToJSON(),
	}

	if t.Sources != nil {
		sources := make([]map[string]any, 0, len(t.Sources))
		for _, s := range t.Sources {
			sources = append(sources, s.ToJSON())
		}
		doc[KeySources] = sources
	}

	if len(t.RA) > 0 {
		ras := make([]map[string]any, 0, len(t.RA))
		for _, ra := range t.RA {
			ras = append(ras, ra.ToJSON())
		}
		doc[KeyRA] = ras
	}
	if len(t.Dec) > 0 {
		decs := make([]map[string]any, 0, len(t.Dec))
		for _, dec := range t.Dec {
			decs = append(decs, dec.ToJSON())
		}
		doc[KeyDec] = decs
	}
	if len(t.Redshift) > 0 {
		zs := make([]map[string]any, 0, len(t.Redshift))
		for _, z := range t.Redshift {
			zs = append(zs, z.ToJSON())
		}
		doc[KeyRedshift] = zs
	}
	if len(t.DiscoveryDate) > 0 {
		dates := make([]map[string]any, 0, len(t.DiscoveryDate))
		for _, d := range t.DiscoveryDate {
			dates = append(dates, d.ToJSON())
		}
		doc[KeyDiscoveryDate] = dates
	}

	if len(t.Photometry) > 0 {
		bands := make(map[string]any, len(t.Photometry))
		for band, ph := range t.Photometry {
			bands[band] = ph.ToJSON()
		}
		doc[KeyPhotometry] = bands
	}
	if len(t.Spectra) > 0 {
		bands := make(map[string]any, len(t.Spectra))
		for band, sp := range t.Spectra {
			bands[band] = sp.ToJSON()
		}
		doc[KeySpectra] = bands
	}

	return doc
}
