package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/binarylab/asset-service/internal/response"
)

func newHandler(fake *fakeUploader) *Handler {
	return NewHandler(NewService(fake))
}

func uploadRequest(t *testing.T, target, method, field string, names ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range names {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
		h.Set("Content-Type", "image/png")
		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := pw.Write([]byte("png")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	r := httptest.NewRequest(method, target, &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHandlerUpload(t *testing.T) {
	h := newHandler(&fakeUploader{})

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "/api/v1/assets/upload", http.MethodPost, "file", "photo.png"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success, got %+v", env)
	}
}

func TestHandlerUpload_MissingFile(t *testing.T) {
	h := newHandler(&fakeUploader{})

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "/api/v1/assets/upload", http.MethodPost, "file"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !strings.Contains(env.Error, "'file' is required") {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestHandlerUpload_StorageFailureIsGeneric(t *testing.T) {
	h := newHandler(&fakeUploader{putErr: errors.New("secret internal detail")})

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "/api/v1/assets/upload", http.MethodPost, "file", "photo.png"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if strings.Contains(env.Error, "secret") {
		t.Fatalf("internal detail leaked to caller: %q", env.Error)
	}
}

func TestHandlerUploadMultiple(t *testing.T) {
	fake := &fakeUploader{}
	h := newHandler(fake)

	rec := httptest.NewRecorder()
	h.UploadMultiple(rec, uploadRequest(t, "/api/v1/assets/upload-multiple", http.MethodPost, "files", "a.png", "b.png"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(fake.putCalls) != 1 || len(fake.putCalls[0]) != 2 {
		t.Fatalf("expected one batch of 2 uploads, got %v", fake.putCalls)
	}
}

func TestHandlerDelete(t *testing.T) {
	fake := &fakeUploader{}
	h := newHandler(fake)

	body, _ := json.Marshal(map[string]string{"url": "http://x/assets/binary/image/a.png"})
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/assets", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Delete(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(fake.deleted) != 1 {
		t.Fatalf("expected one deletion, got %v", fake.deleted)
	}
}

func TestHandlerDelete_MissingURL(t *testing.T) {
	h := newHandler(&fakeUploader{})

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/assets", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Delete(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerUpdate(t *testing.T) {
	fake := &fakeUploader{}
	h := newHandler(fake)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h2 := make(textproto.MIMEHeader)
	h2.Set("Content-Disposition", `form-data; name="file"; filename="new.png"`)
	h2.Set("Content-Type", "image/png")
	pw, _ := w.CreatePart(h2)
	_, _ = pw.Write([]byte("png"))
	_ = w.WriteField("data", `{"oldUrl":"http://x/assets/binary/image/old.png"}`)
	_ = w.Close()

	r := httptest.NewRequest(http.MethodPut, "/api/v1/assets", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Update(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(fake.replacedOld) != 1 || fake.replacedOld[0][0] != "http://x/assets/binary/image/old.png" {
		t.Fatalf("old ref not forwarded: %v", fake.replacedOld)
	}
}

func TestHandlerUpdate_MissingOldURL(t *testing.T) {
	h := newHandler(&fakeUploader{})

	rec := httptest.NewRecorder()
	h.Update(rec, uploadRequest(t, "/api/v1/assets", http.MethodPut, "file", "new.png"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !strings.Contains(env.Error, "oldUrl") {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestHandlerUpdateMultiple(t *testing.T) {
	fake := &fakeUploader{}
	h := newHandler(fake)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range []string{"a.png", "b.png"} {
		ph := make(textproto.MIMEHeader)
		ph.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, name))
		ph.Set("Content-Type", "image/png")
		pw, _ := w.CreatePart(ph)
		_, _ = pw.Write([]byte("png"))
	}
	_ = w.WriteField("data", `{"oldUrls":["u1","u2"]}`)
	_ = w.Close()

	r := httptest.NewRequest(http.MethodPut, "/api/v1/assets/multiple", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UpdateMultiple(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(fake.replacedOld) != 1 || len(fake.replacedOld[0]) != 2 {
		t.Fatalf("old refs not forwarded: %v", fake.replacedOld)
	}
}
