package otter

import (
	_ "embed"
)

// TransientSchema is the JSON Schema of an input transient document. It checks
// document structure only; attribute level requirements are enforced when the
// attributes are built.
//
//go:embed schemas/transient.schema.json
var TransientSchema []byte
