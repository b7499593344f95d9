package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// StageFormFile copies one multipart upload to a local temp file under dir
// and returns its path, so controllers hand the media store a plain file
// path rather than a live request body. The caller owns the staged file;
// S3Store.Upload removes it after the upload attempt.
func StageFormFile(header *multipart.FileHeader, dir string) (string, error) {
	if header == nil {
		return "", fmt.Errorf("staging: no file provided")
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("staging: open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("staging: create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("staging: copy upload: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("staging: close temp file: %w", err)
	}

	return dst.Name(), nil
}
