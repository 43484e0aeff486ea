package httpserver

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

// formUploads opens the files sent under field. The returned closer must be
// called once the uploads have been consumed.
func formUploads(c *gin.Context, field string, limit int) ([]domain.Upload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, domain.Invalid("Invalid multipart form")
	}
	headers := form.File[field]
	if len(headers) > limit {
		return nil, func() {}, domain.Errorf(domain.ErrInvalidInput, "You can upload up to %d files", limit)
	}

	var (
		uploads []domain.Upload
		opened  []io.Closer
	)
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, domain.Invalid("Could not read uploaded file")
		}
		opened = append(opened, f)
		uploads = append(uploads, toUpload(fh, f))
	}
	return uploads, closeAll, nil
}

func toUpload(fh *multipart.FileHeader, body io.Reader) domain.Upload {
	return domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        body,
	}
}
