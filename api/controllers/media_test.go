package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sugicreations/sugi-backend/internal/media"
	"github.com/sugicreations/sugi-backend/pkg/config"
)

type stubMediaService struct {
	names []string
	reads []int
}

func (s *stubMediaService) Upload(_ context.Context, files []media.File) ([]media.Uploaded, error) {
	out := make([]media.Uploaded, 0, len(files))
	for _, f := range files {
		data, _ := io.ReadAll(f.Content)
		s.names = append(s.names, f.Filename)
		s.reads = append(s.reads, len(data))
		out = append(out, media.Uploaded{Object: "sugi/products/" + f.Filename, URL: "https://storage.googleapis.com/bucket/" + f.Filename})
	}
	return out, nil
}

func multipartRequest(t *testing.T, field string, names ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write([]byte("image-bytes"))
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAdminUploadSingleFile(t *testing.T) {
	svc := &stubMediaService{}
	cfg := config.MediaConfig{MaxUploadMB: 1, MaxFiles: 4}

	rec := serve(AdminUploadImages(svc, cfg, testLogger()), multipartRequest(t, "file", "ring.png"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	decodeData(t, rec, &out)
	if out["secure_url"] != "https://storage.googleapis.com/bucket/ring.png" {
		t.Fatalf("unexpected response %+v", out)
	}
	if len(svc.reads) != 1 || svc.reads[0] != len("image-bytes") {
		t.Fatalf("file content not forwarded: %+v", svc.reads)
	}
}

func TestAdminUploadBatch(t *testing.T) {
	svc := &stubMediaService{}
	cfg := config.MediaConfig{MaxUploadMB: 1, MaxFiles: 4}

	rec := serve(AdminUploadImages(svc, cfg, testLogger()), multipartRequest(t, "files", "a.png", "b.png"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var out uploadBatchResponse
	decodeData(t, rec, &out)
	if len(out.URLs) != 2 || out.URLs[1] != "https://storage.googleapis.com/bucket/b.png" {
		t.Fatalf("unexpected urls %+v", out.URLs)
	}
}

func TestAdminUploadRejectsNonMultipart(t *testing.T) {
	rec := serve(AdminUploadImages(&stubMediaService{}, config.MediaConfig{}, testLogger()), newRequest(http.MethodPost, "/", `{"file":"x"}`, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
