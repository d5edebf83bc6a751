package upload

import (
	"fmt"
	"strings"
)

// ValidateFile checks one file against c. A nil file or nil constraints pass.
func ValidateFile(f *IncomingFile, fieldName string, c *Constraints) *Error {
	if f == nil || c == nil {
		return nil
	}

	if len(c.AllowedTypes) > 0 && !mimeAllowed(f.MimeType, c.AllowedTypes) {
		return &Error{
			Kind:  KindUnsupportedMimeType,
			Field: fieldName,
			Message: fmt.Sprintf("Invalid file type for '%s'. Got '%s'. Allowed: %s",
				fieldName, f.MimeType, strings.Join(c.AllowedTypes, ", ")),
		}
	}

	if c.MinFileSizeMB > 0 {
		if min := megabytes(c.MinFileSizeMB); f.Size < min {
			return &Error{
				Kind:  KindFileTooSmall,
				Field: fieldName,
				Message: fmt.Sprintf("File for '%s' is too small. Minimum: %s. Received: %s",
					fieldName, formatBytes(min), formatBytes(f.Size)),
			}
		}
	}

	if c.MaxFileSizeMB > 0 {
		if max := megabytes(c.MaxFileSizeMB); f.Size > max {
			return &Error{
				Kind:  KindFileTooLarge,
				Field: fieldName,
				Message: fmt.Sprintf("File for '%s' is too large. Maximum: %s. Received: %s",
					fieldName, formatBytes(max), formatBytes(f.Size)),
			}
		}
	}

	return nil
}

// ValidateCount checks the number of files under a field against c.
func ValidateCount(fieldName string, files []*IncomingFile, c *Constraints) *Error {
	if c == nil {
		return nil
	}
	count := len(files)

	if c.MinFiles > 0 && count < c.MinFiles {
		return &Error{
			Kind:  KindTooFewFiles,
			Field: fieldName,
			Message: fmt.Sprintf("Field '%s' requires at least %d files. Received: %d",
				fieldName, c.MinFiles, count),
		}
	}

	if c.MaxFiles > 0 && count > c.MaxFiles {
		return &Error{
			Kind:  KindTooManyFiles,
			Field: fieldName,
			Message: fmt.Sprintf("Field '%s' accepts at most %d files. Received: %d",
				fieldName, c.MaxFiles, count),
		}
	}

	return nil
}

// mimeAllowed reports whether mimeType matches one of the patterns. A pattern
// ending in "/*" matches any subtype of its type segment; everything else is
// compared exactly. Matching is case-sensitive.
func mimeAllowed(mimeType string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, "/*") {
			base := strings.SplitN(p, "/", 2)[0]
			if strings.HasPrefix(mimeType, base+"/") {
				return true
			}
			continue
		}
		if mimeType == p {
			return true
		}
	}
	return false
}

func missingRequired(fieldName string) *Error {
	return &Error{
		Kind:    KindMissingRequiredFile,
		Field:   fieldName,
		Message: fmt.Sprintf("File '%s' is required.", fieldName),
	}
}
