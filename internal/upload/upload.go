// Package upload validates multipart file uploads against declarative
// per-field constraints before any storage I/O happens. It understands four
// request shapes: a single optional file, an array of files under one field,
// a set of named fields each with their own rules, and "any" (files under
// arbitrary field names).
package upload

// MaxFileBytes is the hard per-file ceiling applied while the request body is
// parsed. It is a transport safety limit, not a business rule, and applies
// even when no constraints are supplied for a field.
const MaxFileBytes = 100 << 20 // 100 MiB

// MetadataField is the form field carrying serialized JSON that is merged
// into the request values after validation succeeds.
const MetadataField = "data"

// IncomingFile is one uploaded binary part, held fully in memory. It exists
// only for the duration of a request and is never persisted as-is.
type IncomingFile struct {
	FieldName    string
	OriginalName string
	MimeType     string
	Size         int64
	Content      []byte
}

// Constraints is the declarative validation rule set for one upload field.
// Zero values mean "not enforced"; an empty AllowedTypes allows any MIME type.
type Constraints struct {
	Required bool

	// AllowedTypes holds exact MIME types ("image/png") or type wildcards
	// ("image/*"). Matching is case-sensitive.
	AllowedTypes []string

	// Size bounds in megabytes (1 MB = 1024*1024 bytes).
	MinFileSizeMB float64
	MaxFileSizeMB float64

	// File count bounds, meaningful for array and named-field shapes.
	MinFiles int
	MaxFiles int
}

// Field pairs a field name with its constraints for the named-fields shape.
// Validation runs in declaration order.
type Field struct {
	Name        string
	Constraints Constraints
}

// Values holds the non-file form values after the metadata JSON merge.
// Directly submitted form fields win over keys from the metadata JSON.
type Values map[string]any

// String returns the value under key when it is a string, or "".
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Strings returns the value under key as a string slice. It handles both a
// JSON array from the metadata field and repeated form values.
func (v Values) Strings(key string) []string {
	switch val := v[key].(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{val}
	}
	return nil
}
