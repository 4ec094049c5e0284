package ingestion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Upload limits.
const (
	MaxUploadFiles     = 5
	MaxUploadFileSize  = 5 << 20
	MaxUploadBatchSize = 20 << 20
)

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Uploader stores markdown uploads in the directory the markdown source reads.
type Uploader struct {
	Dir string
}

// NewUploader creates an uploader writing into dir.
func NewUploader(dir string) *Uploader {
	return &Uploader{Dir: dir}
}

// ValidateUpload checks the batch against the upload limits. Any violation
// rejects the whole batch.
func ValidateUpload(files []UploadFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if len(files) > MaxUploadFiles {
		return ErrTooManyFiles
	}
	var total int64
	for _, f := range files {
		name := cleanUploadName(f.Name)
		if !strings.HasSuffix(strings.ToLower(name), ".md") {
			return fmt.Errorf("%w: %s", ErrInvalidExtension, name)
		}
		if f.Size > MaxUploadFileSize {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, name)
		}
		total += f.Size
	}
	if total > MaxUploadBatchSize {
		return ErrBatchTooLarge
	}
	return nil
}

// Save validates the batch and writes every file. Nothing is written when
// validation fails. It returns the number of files written.
func (u *Uploader) Save(files []UploadFile) (int, error) {
	if err := ValidateUpload(files); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return 0, err
	}

	saved := 0
	for _, f := range files {
		name := cleanUploadName(f.Name)
		if err := writeUpload(filepath.Join(u.Dir, name), f.Content); err != nil {
			return saved, fmt.Errorf("save %s: %w", name, err)
		}
		saved++
	}
	return saved, nil
}

// writeUpload copies content to path. A body longer than MaxUploadFileSize
// fails with ErrFileTooLarge and leaves no file behind.
func writeUpload(path string, content io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(content, MaxUploadFileSize+1))
	if err == nil && n > MaxUploadFileSize {
		err = fmt.Errorf("%w: %s", ErrFileTooLarge, filepath.Base(path))
	}
	if err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

// cleanUploadName strips any directory part so uploads cannot escape Dir.
func cleanUploadName(name string) string {
	return filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
}
