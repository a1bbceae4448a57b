package internal

import (
	"fmt"
	"strings"
)

// TransientTableDDL returns the statements creating table and its indexes.
// Every statement is idempotent.
func TransientTableDDL(table string) ([]string, error) {
	quoted := quoteIdentifier(table)
	if quoted == "" {
		return nil, fmt.Errorf("transient table name cannot be empty")
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		document    JSONB NOT NULL,
		created_at  BIGINT NOT NULL,
		updated_at  BIGINT NOT NULL
	)`, quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (document jsonb_path_ops)`,
			quoteIdentifier(makeIndexName(table, "document")), quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (updated_at)`,
			quoteIdentifier(makeIndexName(table, "updated_at")), quoted),
	}, nil
}

func makeIndexName(table string, suffix string) string {
	base := strings.ReplaceAll(table, ".", "_")
	base = strings.ReplaceAll(base, `"`, "")
	return fmt.Sprintf("%s_%s_idx", base, suffix)
}
