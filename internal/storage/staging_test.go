package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vidtube/backend/internal/config"
)

func formHeader(t *testing.T, filename, contents string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["file"]
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	return files[0]
}

func TestStageFormFile(t *testing.T) {
	dir := t.TempDir()
	header := formHeader(t, "clip.MP4", "video bytes")

	path, err := StageFormFile(header, dir)
	if err != nil {
		t.Fatalf("StageFormFile: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("staged outside dir: %q", path)
	}
	if !strings.HasSuffix(path, ".mp4") {
		t.Errorf("extension not preserved lowercase: %q", path)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(contents) != "video bytes" {
		t.Errorf("staged contents = %q", contents)
	}
}

func TestStageFormFileNilHeader(t *testing.T) {
	if _, err := StageFormFile(nil, t.TempDir()); err == nil {
		t.Fatal("expected error for nil header")
	}
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), config.ObjectStoreConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
