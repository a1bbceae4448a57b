package otter

// RA is a right ascension in hour-angle units with its provenance.
type RA struct {
	Value       Angle
	ValueString string
	Source      SourceRef
}

// NewRA builds an RA from a record with a "value" angle and an optional
// "source" alias. The source is only resolved when a sourcemap is supplied;
// without one it is left empty and no error is raised.
func NewRA(record Record, sourcemap SourceMap) (*RA, error) {
	angle, ref, err := newCoordinate(record, sourcemap, UnitHourAngle)
	if err != nil {
		return nil, err
	}
	return &RA{Value: angle, ValueString: angle.String(), Source: ref}, nil
}

func (r *RA) StrName() string { return KeyRA }

func (r *RA) ToJSON() map[string]any {
	return sourceJSON(map[string]any{"value": r.ValueString}, r.Source)
}

// Dec is a declination in degrees with its provenance.
type Dec struct {
	Value       Angle
	ValueString string
	Source      SourceRef
}

// NewDec builds a Dec the same way NewRA does, in degree units.
func NewDec(record Record, sourcemap SourceMap) (*Dec, error) {
	angle, ref, err := newCoordinate(record, sourcemap, UnitDegree)
	if err != nil {
		return nil, err
	}
	return &Dec{Value: angle, ValueString: angle.String(), Source: ref}, nil
}

func (d *Dec) StrName() string { return KeyDec }

func (d *Dec) ToJSON() map[string]any {
	return sourceJSON(map[string]any{"value": d.ValueString}, d.Source)
}

func newCoordinate(record Record, sourcemap SourceMap, unit AngleUnit) (Angle, SourceRef, error) {
	raw, err := requireField(record, "value")
	if err != nil {
		return Angle{}, SourceRef{}, err
	}
	angle, err := ParseAngle(raw, unit)
	if err != nil {
		return Angle{}, SourceRef{}, err
	}

	var ref SourceRef
	if alias, ok := lookup(record, "source"); ok && sourcemap != nil {
		ref, err = AliasToSource(aliasString(alias), sourcemap)
		if err != nil {
			return Angle{}, SourceRef{}, err
		}
	}
	return angle, ref, nil
}

// Redshift is a redshift measurement with its provenance.
type Redshift struct {
	Value  float64
	Source SourceRef
}

// NewRedshift parses "value" as a float. The source is resolved only when it
// is a non-empty alias and a sourcemap is supplied.
func NewRedshift(record Record, sourcemap SourceMap) (*Redshift, error) {
	raw, err := requireField(record, "value")
	if err != nil {
		return nil, err
	}
	z, err := toFloat("value", raw)
	if err != nil {
		return nil, err
	}

	var ref SourceRef
	if alias, ok := lookup(record, "source"); ok && sourcemap != nil {
		if s := aliasString(alias); len(s) > 0 {
			ref, err = AliasToSource(s, sourcemap)
			if err != nil {
				return nil, err
			}
		}
	}
	return &Redshift{Value: z, Source: ref}, nil
}

func (z *Redshift) StrName() string { return KeyRedshift }

func (z *Redshift) ToJSON() map[string]any {
	return sourceJSON(map[string]any{"value": z.Value}, z.Source)
}

// DiscoveryDate carries the discovery date exactly as given.
type DiscoveryDate struct {
	Value  any
	Source SourceRef
}

// NewDiscoveryDate keeps "value" unparsed. Unlike NewRedshift, an empty
// source alias is still resolved.
func NewDiscoveryDate(record Record, sourcemap SourceMap) (*DiscoveryDate, error) {
	raw, err := requireField(record, "value")
	if err != nil {
		return nil, err
	}

	var ref SourceRef
	if alias, ok := lookup(record, "source"); ok && sourcemap != nil {
		ref, err = AliasToSource(aliasString(alias), sourcemap)
		if err != nil {
			return nil, err
		}
	}
	return &DiscoveryDate{Value: raw, Source: ref}, nil
}

func (d *DiscoveryDate) StrName() string { return KeyDiscoveryDate }

func (d *DiscoveryDate) ToJSON() map[string]any {
	return sourceJSON(map[string]any{"value": d.Value}, d.Source)
}

// Name is the primary identifier of a transient and the other names it goes by.
type Name struct {
	Name    string
	Aliases []string
}

// NewName returns a Name; aliases may be nil.
func NewName(name string, aliases []string) *Name {
	return &Name{Name: name, Aliases: aliases}
}

func (n *Name) StrName() string { return KeyName }

func (n *Name) ToJSON() map[string]any {
	out := map[string]any{"default_name": n.Name}
	if n.Aliases != nil {
		out["alias"] = n.Aliases
	}
	return out
}
