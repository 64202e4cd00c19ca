package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/sugicreations/sugi-backend/api/responses"
	"github.com/sugicreations/sugi-backend/internal/media"
	"github.com/sugicreations/sugi-backend/pkg/config"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
)

const multipartMemory = 8 << 20

type uploadBatchResponse struct {
	URLs  []string         `json:"urls"`
	Files []media.Uploaded `json:"files"`
}

// AdminUploadImages stores product images sent as multipart parts named
// "file" (single) or "files" (batch). A single file answers with its
// secure_url; a batch answers with urls in upload order.
func AdminUploadImages(svc media.Service, cfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxFiles := cfg.MaxFiles
		if maxFiles <= 0 {
			maxFiles = 1
		}
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes()*int64(maxFiles)+(1<<20))

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "upload too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := append([]*multipart.FileHeader{}, r.MultipartForm.File["file"]...)
		headers = append(headers, r.MultipartForm.File["files"]...)

		files := make([]media.File, 0, len(headers))
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable file part").
					WithDetails(map[string]any{"filename": h.Filename}))
				return
			}
			defer f.Close()
			files = append(files, media.File{Filename: h.Filename, Size: h.Size, Content: f})
		}

		uploaded, err := svc.Upload(r.Context(), files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if len(uploaded) == 1 {
			responses.WriteSuccessStatus(w, http.StatusCreated, uploaded[0])
			return
		}
		urls := make([]string, 0, len(uploaded))
		for _, u := range uploaded {
			urls = append(urls, u.URL)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, uploadBatchResponse{URLs: urls, Files: uploaded})
	}
}
