package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// parsedForm is the normalized multipart body: files grouped by field in wire
// order, plus raw text values.
type parsedForm struct {
	files   []*IncomingFile
	byField map[string][]*IncomingFile
	values  map[string][]string
}

// parseForm reads the whole multipart body into memory, enforcing the
// MaxFileBytes cap on every file part as it is read.
func parseForm(r *http.Request) (*parsedForm, *Error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &Error{
			Kind:    KindBadForm,
			Message: fmt.Sprintf("Invalid multipart request: %v.", err),
		}
	}

	form := &parsedForm{
		byField: make(map[string][]*IncomingFile),
		values:  make(map[string][]string),
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{
				Kind:    KindBadForm,
				Message: fmt.Sprintf("Invalid multipart request: %v.", err),
			}
		}

		field := part.FormName()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, io.LimitReader(part, MaxFileBytes+1)); err != nil {
			part.Close()
			return nil, &Error{
				Kind:    KindBadForm,
				Field:   field,
				Message: fmt.Sprintf("Failed to read form field '%s'.", field),
			}
		}
		part.Close()

		if part.FileName() == "" {
			// the ceiling is a per-file limit; an oversized text part is
			// just a malformed form
			if buf.Len() > MaxFileBytes {
				return nil, &Error{
					Kind:  KindBadForm,
					Field: field,
					Message: fmt.Sprintf("Form field '%s' exceeds the %s limit.",
						field, formatBytes(MaxFileBytes)),
				}
			}
			form.values[field] = append(form.values[field], buf.String())
			continue
		}

		if buf.Len() > MaxFileBytes {
			return nil, &Error{
				Kind:  KindFileTooLarge,
				Field: field,
				Message: fmt.Sprintf("File for '%s' exceeds the %s upload limit.",
					field, formatBytes(MaxFileBytes)),
			}
		}

		mimeType := part.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		f := &IncomingFile{
			FieldName:    field,
			OriginalName: part.FileName(),
			MimeType:     mimeType,
			Size:         int64(buf.Len()),
			Content:      buf.Bytes(),
		}
		form.files = append(form.files, f)
		form.byField[field] = append(form.byField[field], f)
	}

	return form, nil
}

// rejectOutside fails when the form carries a file under a field other than
// the allowed ones.
func (p *parsedForm) rejectOutside(allowed ...string) *Error {
	ok := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		ok[name] = true
	}
	for _, f := range p.files {
		if !ok[f.FieldName] {
			return &Error{
				Kind:    KindBadForm,
				Field:   f.FieldName,
				Message: fmt.Sprintf("Unexpected file field '%s'.", f.FieldName),
			}
		}
	}
	return nil
}

// mergeMetadata builds the final Values: keys from the serialized JSON in the
// metadata field first, then directly submitted form values on top (direct
// fields win on collision). The raw metadata field itself is dropped.
func (p *parsedForm) mergeMetadata() (Values, *Error) {
	out := Values{}

	if raw, ok := p.values[MetadataField]; ok && len(raw) > 0 && raw[0] != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw[0]), &parsed); err != nil {
			return nil, &Error{
				Kind:    KindMalformedMetadata,
				Field:   MetadataField,
				Message: fmt.Sprintf("Invalid JSON format in form field '%s'.", MetadataField),
			}
		}
		for k, v := range parsed {
			out[k] = v
		}
	}

	for k, v := range p.values {
		if k == MetadataField {
			continue
		}
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}

	return out, nil
}

// Single parses a request expected to carry at most one file under field.
// The returned file is nil when the field is absent and not required.
func Single(r *http.Request, field string, c *Constraints) (*IncomingFile, Values, error) {
	form, ferr := parseForm(r)
	if ferr != nil {
		return nil, nil, ferr
	}
	if err := form.rejectOutside(field); err != nil {
		return nil, nil, err
	}

	files := form.byField[field]
	if len(files) > 1 {
		return nil, nil, &Error{
			Kind:  KindTooManyFiles,
			Field: field,
			Message: fmt.Sprintf("Field '%s' accepts a single file. Received: %d",
				field, len(files)),
		}
	}

	var f *IncomingFile
	if len(files) == 1 {
		f = files[0]
	}

	if c != nil && c.Required && f == nil {
		return nil, nil, missingRequired(field)
	}
	if err := ValidateFile(f, field, c); err != nil {
		return nil, nil, err
	}

	values, merr := form.mergeMetadata()
	if merr != nil {
		return nil, nil, merr
	}
	return f, values, nil
}

// Array parses a request carrying zero or more files under one field.
func Array(r *http.Request, field string, c *Constraints) ([]*IncomingFile, Values, error) {
	form, ferr := parseForm(r)
	if ferr != nil {
		return nil, nil, ferr
	}
	if err := form.rejectOutside(field); err != nil {
		return nil, nil, err
	}

	files := form.byField[field]
	if c != nil {
		if c.Required && len(files) == 0 {
			return nil, nil, missingRequired(field)
		}
		if err := ValidateCount(field, files, c); err != nil {
			return nil, nil, err
		}
		for _, f := range files {
			if err := ValidateFile(f, field, c); err != nil {
				return nil, nil, err
			}
		}
	}

	values, merr := form.mergeMetadata()
	if merr != nil {
		return nil, nil, merr
	}
	return files, values, nil
}

// Fields parses a request with several named file fields, each carrying its
// own constraints. Validation runs in declaration order: for every field the
// count check first, then each file in upload order.
func Fields(r *http.Request, fields []Field) (map[string][]*IncomingFile, Values, error) {
	form, ferr := parseForm(r)
	if ferr != nil {
		return nil, nil, ferr
	}

	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}
	if err := form.rejectOutside(names...); err != nil {
		return nil, nil, err
	}

	for _, fd := range fields {
		c := fd.Constraints
		files := form.byField[fd.Name]
		if c.Required && len(files) == 0 {
			return nil, nil, missingRequired(fd.Name)
		}
		if err := ValidateCount(fd.Name, files, &c); err != nil {
			return nil, nil, err
		}
		for _, f := range files {
			if err := ValidateFile(f, fd.Name, &c); err != nil {
				return nil, nil, err
			}
		}
	}

	values, merr := form.mergeMetadata()
	if merr != nil {
		return nil, nil, merr
	}

	out := make(map[string][]*IncomingFile, len(fields))
	for _, fd := range fields {
		if files := form.byField[fd.Name]; len(files) > 0 {
			out[fd.Name] = files
		}
	}
	return out, values, nil
}

// Any parses a request accepting files under arbitrary field names. Per-file
// constraints apply to every file; count bounds apply to the whole set.
func Any(r *http.Request, c *Constraints) ([]*IncomingFile, Values, error) {
	form, ferr := parseForm(r)
	if ferr != nil {
		return nil, nil, ferr
	}

	if c != nil {
		for _, f := range form.files {
			if err := ValidateFile(f, f.FieldName, c); err != nil {
				return nil, nil, err
			}
		}
		if err := ValidateCount("any", form.files, c); err != nil {
			return nil, nil, err
		}
	}

	values, merr := form.mergeMetadata()
	if merr != nil {
		return nil, nil, merr
	}
	return form.files, values, nil
}
