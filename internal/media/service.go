// Package media accepts admin image uploads and stores them in object
// storage, returning their public URLs for product records.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sugicreations/sugi-backend/pkg/config"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
)

const objectPrefix = "products"

type objectStore interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// File is one uploaded part. Size is the client-reported size; the content is
// still bounded while reading.
type File struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Uploaded describes a stored object.
type Uploaded struct {
	Object      string `json:"object"`
	URL         string `json:"secure_url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Service exposes image upload semantics.
type Service interface {
	Upload(ctx context.Context, files []File) ([]Uploaded, error)
}

type service struct {
	store    objectStore
	folder   string
	maxBytes int64
	maxFiles int
	logg     *logger.Logger
}

// NewService constructs a media service backed by the provided object store.
func NewService(store objectStore, cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 1
	}
	return &service{
		store:    store,
		folder:   strings.Trim(strings.TrimSpace(cfg.Folder), "/"),
		maxBytes: cfg.MaxUploadBytes(),
		maxFiles: maxFiles,
		logg:     logg,
	}, nil
}

// Upload validates every file before storing any of them. If a later upload
// fails, objects already written in this batch are removed.
func (s *service) Upload(ctx context.Context, files []File) ([]Uploaded, error) {
	if len(files) == 0 {
		return nil, fieldError("file", "at least one file is required")
	}
	if len(files) > s.maxFiles {
		return nil, fieldError("files", fmt.Sprintf("at most %d files per upload", s.maxFiles))
	}

	prepared := make([]preparedFile, 0, len(files))
	for i, f := range files {
		p, err := s.prepare(f)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
				WithDetails(map[string]any{"index": i, "filename": f.Filename})
		}
		prepared = append(prepared, p)
	}

	out := make([]Uploaded, 0, len(prepared))
	for _, p := range prepared {
		url, err := s.store.Upload(ctx, p.object, p.contentType, bytes.NewReader(p.data))
		if err != nil {
			cleanupErr := s.cleanup(ctx, out)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, multierr.Append(err, cleanupErr), "upload image")
		}
		out = append(out, Uploaded{
			Object:      p.object,
			URL:         url,
			ContentType: p.contentType,
			Size:        int64(len(p.data)),
		})
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "count", len(out)), "images uploaded")
	}
	return out, nil
}

type preparedFile struct {
	object      string
	contentType string
	data        []byte
}

func (s *service) prepare(f File) (preparedFile, error) {
	if f.Content == nil {
		return preparedFile{}, fmt.Errorf("file content missing")
	}
	if f.Size > s.maxBytes {
		return preparedFile{}, fmt.Errorf("file exceeds %d MB", s.maxBytes>>20)
	}
	data, err := io.ReadAll(io.LimitReader(f.Content, s.maxBytes+1))
	if err != nil {
		return preparedFile{}, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return preparedFile{}, fmt.Errorf("file exceeds %d MB", s.maxBytes>>20)
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	contentType, ext, err := detectImage(head)
	if err != nil {
		return preparedFile{}, err
	}
	return preparedFile{
		object:      s.objectName(uuid.NewString() + ext),
		contentType: contentType,
		data:        data,
	}, nil
}

func (s *service) objectName(file string) string {
	if s.folder == "" {
		return path.Join(objectPrefix, file)
	}
	return path.Join(s.folder, objectPrefix, file)
}

func (s *service) cleanup(ctx context.Context, uploaded []Uploaded) error {
	var errs error
	for _, u := range uploaded {
		errs = multierr.Append(errs, s.store.Delete(ctx, u.Object))
	}
	if errs != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", errs.Error()), "orphaned upload cleanup failed")
	}
	return errs
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]string{field: message})
}
