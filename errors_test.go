package otter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOtterError_Error(t *testing.T) {
	err := NewMissingFieldError("value")
	assert.Equal(t, "[validation:MISSING_FIELD] field 'value': required field is missing", err.Error())

	err = NewKeyNotFoundError("x")
	assert.Equal(t, "[not_found:KEY_NOT_FOUND] alias 'x' not found in sourcemap", err.Error())

	cause := errors.New("boom")
	err = NewExportError("copy failed", cause)
	assert.Equal(t, "[execution:EXPORT_FAILED] copy failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestOtterError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("building ra: %w", NewTypeConversionError("value", "abc", "angle"))

	assert.ErrorIs(t, wrapped, ErrTypeConversion)
	assert.NotErrorIs(t, wrapped, ErrMissingField)
	assert.ErrorIs(t, NewTransientNotFoundError("AT2018hyz"), ErrTransientNotFound)
}

func TestOtterError_Builders(t *testing.T) {
	err := NewOtterError(ErrorTypeInternal, ErrCodeInternalError, "x").
		WithField("ra").
		WithDetail("index", 2).
		WithCause(errors.New("inner"))

	assert.Equal(t, "ra", err.Field)
	assert.Equal(t, 2, err.Details["index"])
	assert.EqualError(t, errors.Unwrap(err), "inner")
}

func TestNewMissingFieldsError(t *testing.T) {
	err := NewMissingFieldsError("need all", "time", "luminosity", "source")
	assert.Equal(t, "time,luminosity,source", err.Field)
	assert.Equal(t, []string{"time", "luminosity", "source"}, err.Details["fields"])
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestAttributeErrors(t *testing.T) {
	errs := NewAttributeErrors()
	assert.False(t, errs.HasErrors())
	assert.NoError(t, errs.ToError())

	errs.Add("ra", 1, NewMissingFieldError("value"))
	require.Error(t, errs.ToError())
	assert.Equal(t, "ra[1]: [validation:MISSING_FIELD] field 'value': required field is missing", errs.Error())

	errs.Add("photometry.V", 0, NewKeyNotFoundError("q"))
	err := errs.ToError()
	assert.Contains(t, err.Error(), "2 errors found")
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.NotErrorIs(t, err, ErrTypeConversion)

	var ae *AttributeError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "ra", ae.Attribute)
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "database.port", Message: "must be a valid TCP port"}
	assert.Equal(t, "config validation error for field 'database.port': must be a valid TCP port", err.Error())
}
