package internal

import (
	"encoding/json"
	"testing"

	"github.com/astro-otter/otter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, s string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestSchemaValidator_Transient(t *testing.T) {
	v, err := NewTransientSchemaValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{name: "string name", doc: `{"name": "AT2018hyz"}`, valid: true},
		{name: "object name", doc: `{"name": {"default_name": "AT2018hyz", "alias": ["a"]}}`, valid: true},
		{name: "full document", valid: true, doc: `{
			"name": "AT2018hyz",
			"sources": [{"name": "S", "bibcode": "B", "alias": "1"}],
			"ra": [{"value": "10:06:50.87", "source": "1"}],
			"dec": {"value": "+01:41:34.08"},
			"photometry": {"V": [{"time": 1, "luminosity": 2, "source": "1"}]},
			"spectra": {"optical": [{}]}
		}`},
		{name: "attribute content is not checked", doc: `{"name": "x", "ra": [{"bogus": true}]}`, valid: true},
		{name: "missing name", doc: `{"ra": []}`, valid: false},
		{name: "numeric name", doc: `{"name": 5}`, valid: false},
		{name: "object name without default", doc: `{"name": {"alias": ["a"]}}`, valid: false},
		{name: "source without alias", doc: `{"name": "x", "sources": [{"name": "S", "bibcode": "B"}]}`, valid: false},
		{name: "non-string bibcode", doc: `{"name": "x", "sources": [{"name": "S", "bibcode": 1, "alias": "1"}]}`, valid: false},
		{name: "photometry band not a list", doc: `{"name": "x", "photometry": {"V": {"time": 1}}}`, valid: false},
		{name: "ra of strings", doc: `{"name": "x", "ra": ["10:00:00"]}`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(decodeDoc(t, tt.doc))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var oe *otter.OtterError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, otter.ErrCodeInvalidDocument, oe.Code)
		})
	}
}

func TestSchemaValidator_Nil(t *testing.T) {
	v, err := NewTransientSchemaValidator()
	require.NoError(t, err)
	assert.Error(t, v.Validate(nil))
}

func TestNewSchemaValidator_BadSchema(t *testing.T) {
	_, err := NewSchemaValidator([]byte(`{not json`))
	assert.Error(t, err)
}
