package upload

// Kind classifies a validation failure.
type Kind string

const (
	KindMissingRequiredFile Kind = "missing_required_file"
	KindUnsupportedMimeType Kind = "unsupported_mime_type"
	KindFileTooSmall        Kind = "file_too_small"
	KindFileTooLarge        Kind = "file_too_large"
	KindTooFewFiles         Kind = "too_few_files"
	KindTooManyFiles        Kind = "too_many_files"
	KindMalformedMetadata   Kind = "malformed_metadata_json"
	KindBadForm             Kind = "bad_form"
)

// Error is a validation failure attributable to caller input. The message is
// safe to surface verbatim to the caller.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
