package upload

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func multipartRequest(t *testing.T, build func(w *multipart.Writer)) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	build(w)
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/upload", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	return r
}

func addFile(t *testing.T, w *multipart.Writer, field, name, mimeType string, content []byte) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", mimeType)
	pw, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := pw.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
}

func addValue(t *testing.T, w *multipart.Writer, field, value string) {
	t.Helper()
	if err := w.WriteField(field, value); err != nil {
		t.Fatalf("write field: %v", err)
	}
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *upload.Error, got %T: %v", err, err)
	}
	return ve.Kind
}

func TestSingle_ReturnsFileAndValues(t *testing.T) {
	r := multipartRequest(t, func(w *multipart.Writer) {
		addFile(t, w, "file", "photo.png", "image/png", []byte("png-bytes"))
		addValue(t, w, "caption", "hello")
	})

	f, values, err := Single(r, "file", &Constraints{Required: true, AllowedTypes: []string{"image/*"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatal("expected a file")
	}
	if f.OriginalName != "photo.png" || f.MimeType != "image/png" {
		t.Fatalf("wrong file parsed: %+v", f)
	}
	if f.Size != int64(len("png-bytes")) || string(f.Content) != "png-bytes" {
		t.Fatalf("content not captured: size=%d content=%q", f.Size, f.Content)
	}
	if values.String("caption") != "hello" {
		t.Fatalf("expected caption value, got %v", values)
	}
}

func TestSingle_MissingRequiredFile(t *testing.T) {
	r := multipartRequest(t, func(w *multipart.Writer) {
		addValue(t, w, "caption", "no file here")
	})

	_, _, err := Single(r, "file", &Constraints{Required: true})
	if kindOf(t, err) != KindMissingRequiredFile {
		t.Fatalf("expected missing required file, got %v", err)
	}
}

func TestSingle_OptionalAbsentFileIsNil(t *testing.T) {
	r := multipartRequest(t, func(w *multipart.Writer) {
		addValue(t, w, "caption", "still no file")
	})

	f, _, err := Single(r, "file", &Constraints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != nil {
		t.Fatalf("expected nil file, got %+v", f)
	}
}

func TestSingle_RejectsSecondFile(t *testing.T) {
	r := multipartRequest(t, func(w *multipart.Writer) {
		addFile(t, w, "file", "a.png", "image/png", []byte("a"))
		addFile(t, w, "file", "b.png", "image/png", []byte("b"))
	})

	_, _, err := Single(r, "file", nil)
	if kindOf(t, err) != KindTooManyFiles {
		t.Fatalf("expected too many files, got %v", err)
	}
}

func TestSingle_RejectsUnexpectedFileField(t *testing.T) {
	r := multipartRequest(t, func(w *multipart.Writer) {
		addFile(t, w, "other", "a.png", "image/png", []byte("a"))
	})

	_, _, err := Single(r, "file", nil)
	if kindOf(t, err) != KindBadForm {
		t.Fatalf("expected bad form, got %v", err)
	}
}

func TestSingle_NonMultipartBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(`{"not":"multipart"}`))
	r.Header.Set("Content-Type", "application/json")

	_, _, err := Single(r, "file", nil)
	if kindOf(t, err) != KindBadForm {
		t.Fatalf("expected bad form, got %v", err)
	}
}

func TestSingle_HardCapAppliesWithoutConstraints(t *testing.T) {
	// the transport ceiling holds even with no constraints supplied
	r := multipartRequest(t, func(w *multipart.Writer) {
		addFile(t, w, "file", "huge.bin", "application/octet-stream", make([]byte, MaxFileBytes+1))
	})

	_, _, err := Single(r, "file", nil)
	if kindOf(t, err) != KindFileTooLarge {
		t.Fatalf("expected file too large, got %v", err)
	}
	var ve *Error
	errors.As(err, &ve)
	if !strings.Contains(ve.Message, "100.00 MB") {
		t.Fatalf("message %q missing the 100.00 MB limit", ve.Message)
	}
	if ve.Field != "file" {
		t.Fatalf("expected field 'file', got %q", ve.Field)
	}
}

func TestSingle_OversizedTextPartIsBadForm(t *testing.T) {
	// a huge text field is a malformed form, not a file-size violation
	r := multipartRequest(t, func(w *multipart.Writer) {
		addValue(t, w, "caption", string(make([]byte, MaxFileBytes+1)))
	})

	_, _, err := Single(r, "file", nil)
	if kindOf(t, err) != KindBadForm {
		t.Fatalf("expected bad form, got %v", err)
	}
}

func TestArray_CountAndPerFileValidation(t *testing.T) {
	c := &Constraints{
		Required:      true,
		AllowedTypes:  []string{"image/*"},
		MaxFileSizeMB: 1,
		MinFiles:      2,
		MaxFiles:      4,
	}

	t.Run("valid batch", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addFile(t, w, "files", "a.png", "image/png", []byte("a"))
			addFile(t, w, "files", "b.jpg", "image/jpeg", []byte("b"))
		})
		files, _, err := Array(r, "files", c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("expected 2 files, got %d", len(files))
		}
		if files[0].OriginalName != "a.png" || files[1].OriginalName != "b.jpg" {
			t.Fatalf("input order not preserved: %v, %v", files[0].OriginalName, files[1].OriginalName)
		}
	})

	t.Run("too few", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addFile(t, w, "files", "a.png", "image/png", []byte("a"))
		})
		_, _, err := Array(r, "files", c)
		if kindOf(t, err) != KindTooFewFiles {
			t.Fatalf("expected too few files, got %v", err)
		}
	})

	t.Run("too many", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			for i := 0; i < 5; i++ {
				addFile(t, w, "files", fmt.Sprintf("%d.png", i), "image/png", []byte("x"))
			}
		})
		_, _, err := Array(r, "files", c)
		if kindOf(t, err) != KindTooManyFiles {
			t.Fatalf("expected too many files, got %v", err)
		}
	})

	t.Run("count checked before per-file type", func(t *testing.T) {
		// one file, and it is also the wrong type: the count failure wins
		r := multipartRequest(t, func(w *multipart.Writer) {
			addFile(t, w, "files", "a.pdf", "application/pdf", []byte("x"))
		})
		_, _, err := Array(r, "files", c)
		if kindOf(t, err) != KindTooFewFiles {
			t.Fatalf("expected too few files first, got %v", err)
		}
	})

	t.Run("required empty", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addValue(t, w, "caption", "empty")
		})
		_, _, err := Array(r, "files", c)
		if kindOf(t, err) != KindMissingRequiredFile {
			t.Fatalf("expected missing required file, got %v", err)
		}
	})
}

func TestFields_DeclarationOrderShortCircuit(t *testing.T) {
	fields := []Field{
		{Name: "cover", Constraints: Constraints{Required: true, AllowedTypes: []string{"image/*"}}},
		{Name: "attachments", Constraints: Constraints{MaxFiles: 2}},
	}

	t.Run("valid", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addFile(t, w, "cover", "c.png", "image/png", []byte("c"))
			addFile(t, w, "attachments", "a.pdf", "application/pdf", []byte("a"))
		})
		out, _, err := Fields(r, fields)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out["cover"]) != 1 || len(out["attachments"]) != 1 {
			t.Fatalf("unexpected grouping: %v", out)
		}
	})

	t.Run("first declared field fails first", func(t *testing.T) {
		// both fields violate their constraints; the error must name "cover"
		r := multipartRequest(t, func(w *multipart.Writer) {
			addFile(t, w, "attachments", "1.pdf", "application/pdf", []byte("1"))
			addFile(t, w, "attachments", "2.pdf", "application/pdf", []byte("2"))
			addFile(t, w, "attachments", "3.pdf", "application/pdf", []byte("3"))
		})
		_, _, err := Fields(r, fields)
		var ve *Error
		if !errors.As(err, &ve) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if ve.Kind != KindMissingRequiredFile || ve.Field != "cover" {
			t.Fatalf("expected missing 'cover' first, got kind=%s field=%s", ve.Kind, ve.Field)
		}
	})

	t.Run("undeclared file field rejected", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addFile(t, w, "cover", "c.png", "image/png", []byte("c"))
			addFile(t, w, "sneaky", "s.png", "image/png", []byte("s"))
		})
		_, _, err := Fields(r, fields)
		if kindOf(t, err) != KindBadForm {
			t.Fatalf("expected bad form, got %v", err)
		}
	})
}

func TestAny_CollectsAcrossFieldNames(t *testing.T) {
	r := multipartRequest(t, func(w *multipart.Writer) {
		addFile(t, w, "front", "f.png", "image/png", []byte("f"))
		addFile(t, w, "back", "b.png", "image/png", []byte("b"))
	})

	files, _, err := Any(r, &Constraints{AllowedTypes: []string{"image/*"}, MaxFiles: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].FieldName != "front" || files[1].FieldName != "back" {
		t.Fatalf("wire order not preserved: %s, %s", files[0].FieldName, files[1].FieldName)
	}
}

func TestAny_ErrorNamesOffendingField(t *testing.T) {
	r := multipartRequest(t, func(w *multipart.Writer) {
		addFile(t, w, "front", "f.png", "image/png", []byte("f"))
		addFile(t, w, "back", "b.exe", "application/octet-stream", []byte("b"))
	})

	_, _, err := Any(r, &Constraints{AllowedTypes: []string{"image/*"}})
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "back" {
		t.Fatalf("expected error attributed to 'back', got %q", ve.Field)
	}
}

func TestMetadataMerge(t *testing.T) {
	t.Run("json keys merged, direct fields win", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addValue(t, w, "data", `{"title":"from-json","source":"json"}`)
			addValue(t, w, "title", "from-form")
		})
		_, values, err := Single(r, "file", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if values.String("title") != "from-form" {
			t.Fatalf("direct field must win, got %v", values["title"])
		}
		if values.String("source") != "json" {
			t.Fatalf("json key missing, got %v", values)
		}
		if _, ok := values["data"]; ok {
			t.Fatal("raw data field must be dropped")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addValue(t, w, "data", `{"broken":`)
		})
		_, _, err := Single(r, "file", nil)
		if kindOf(t, err) != KindMalformedMetadata {
			t.Fatalf("expected malformed metadata, got %v", err)
		}
	})

	t.Run("array values via Strings", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addValue(t, w, "data", `{"oldUrls":["u1","u2"]}`)
		})
		_, values, err := Single(r, "file", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		urls := values.Strings("oldUrls")
		if len(urls) != 2 || urls[0] != "u1" || urls[1] != "u2" {
			t.Fatalf("expected [u1 u2], got %v", urls)
		}
	})

	t.Run("validation failure wins over malformed metadata", func(t *testing.T) {
		r := multipartRequest(t, func(w *multipart.Writer) {
			addValue(t, w, "data", `{"broken":`)
		})
		_, _, err := Single(r, "file", &Constraints{Required: true})
		if kindOf(t, err) != KindMissingRequiredFile {
			t.Fatalf("expected missing required file before metadata parse, got %v", err)
		}
	})
}
