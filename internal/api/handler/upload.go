package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rrens/sign-gateway/internal/domain"
)

const (
	imageField = "image"
	// room for multipart boundaries and part headers on top of the file itself
	multipartOverhead = 1 << 20
)

var allowedImageTypes = []string{"jpeg", "jpg", "png", "gif"}

// Uploader stages uploaded images on disk until they have been classified
type Uploader struct {
	dir      string
	maxBytes int64
}

// NewUploader creates an uploader writing into dir
func NewUploader(dir string, maxBytes int64) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Uploader{dir: dir, maxBytes: maxBytes}, nil
}

// Stage streams the "image" part of a multipart request into a uniquely named file
// and returns its path. The caller owns the file afterwards.
func (u *Uploader) Stage(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, u.maxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		return "", domain.Uploadf("No image file uploaded")
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return "", domain.Uploadf("No image file uploaded")
		}
		if err != nil {
			return "", u.readError(err)
		}

		if part.FormName() != imageField || part.FileName() == "" {
			part.Close()
			continue
		}

		path, err := u.save(r, part)
		part.Close()
		return path, err
	}
}

func (u *Uploader) save(r *http.Request, part *multipart.Part) (string, error) {
	ext := strings.ToLower(filepath.Ext(part.FileName()))
	if !isAllowedImage(ext, part.Header.Get("Content-Type")) {
		return "", domain.Uploadf("Only image files are allowed")
	}

	path := filepath.Join(u.dir, "image-"+uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create staged image: %w", err)
	}

	written, copyErr := io.Copy(dst, io.LimitReader(part, u.maxBytes+1))
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		err = u.readError(copyErr)
	case written > u.maxBytes:
		err = u.tooLarge()
	case closeErr != nil:
		err = fmt.Errorf("failed to write staged image: %w", closeErr)
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			zerolog.Ctx(r.Context()).Warn().Err(rmErr).Str("path", path).Msg("could not delete partial upload")
		}
		return "", err
	}

	zerolog.Ctx(r.Context()).Debug().Str("path", path).Int64("bytes", written).Msg("image staged")
	return path, nil
}

func (u *Uploader) readError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return u.tooLarge()
	}
	return domain.Uploadf("Invalid multipart body")
}

func (u *Uploader) tooLarge() error {
	return domain.Uploadf("File too large. Maximum size is %dMB.", u.maxBytes>>20)
}

// isAllowedImage requires both the extension and the declared type to name an accepted format
func isAllowedImage(ext, contentType string) bool {
	ext = strings.TrimPrefix(ext, ".")
	contentType = strings.ToLower(contentType)

	extOK, typeOK := false, false
	for _, t := range allowedImageTypes {
		if ext == t {
			extOK = true
		}
		if strings.Contains(contentType, t) {
			typeOK = true
		}
	}
	return extOK && typeOK
}
