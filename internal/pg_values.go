package internal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// quoteIdentifier quotes a possibly schema-qualified name such as
// `public.transients`. Surrounding quotes and blanks on each segment are
// stripped before quoting; a name with no usable segment is quoted whole.
func quoteIdentifier(name string) string {
	if name == "" {
		return ""
	}
	var ident pgx.Identifier
	for segment := range strings.SplitSeq(name, ".") {
		if s := strings.Trim(segment, ` "`); s != "" {
			ident = append(ident, s)
		}
	}
	if len(ident) == 0 {
		ident = pgx.Identifier{name}
	}
	return ident.Sanitize()
}

// scannedUUID reads a document id from whatever a uuid column was scanned into.
func scannedUUID(v any) (uuid.UUID, bool) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, true
	case [16]byte:
		return uuid.UUID(id), true
	case *uuid.UUID:
		if id == nil {
			return uuid.Nil, false
		}
		return *id, true
	case *string:
		if id == nil {
			return uuid.Nil, false
		}
		return scannedUUID(*id)
	case []byte:
		if len(id) == 16 {
			return uuid.UUID(id), true
		}
		return scannedUUID(string(id))
	case string:
		parsed, err := uuid.Parse(id)
		return parsed, err == nil
	}
	return uuid.Nil, false
}
