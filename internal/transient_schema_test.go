package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientTableDDL(t *testing.T) {
	stmts, err := TransientTableDDL("astro.transients")
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	assert.Contains(t, stmts[0], `CREATE TABLE IF NOT EXISTS "astro"."transients"`)
	assert.Contains(t, stmts[0], "name        TEXT NOT NULL UNIQUE")
	assert.Contains(t, stmts[1], `"astro_transients_document_idx" ON "astro"."transients" USING GIN`)
	assert.Contains(t, stmts[2], `"astro_transients_updated_at_idx"`)

	_, err = TransientTableDDL("")
	require.Error(t, err)
}

func TestMakeIndexName(t *testing.T) {
	assert.Equal(t, "transients_document_idx", makeIndexName("transients", "document"))
	assert.Equal(t, "public_tde_name_idx", makeIndexName(`public."tde"`, "name"))
}
