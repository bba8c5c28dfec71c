package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	xerrors "OxyGent-Console/internal/errors"
)

// formFile 读取 multipart 表单中的 file 字段，请求体大小已由 withBodyLimit 限制。
func (s *Server) formFile(r *http.Request) (multipart.File, string, error) {
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", xerrors.New(xerrors.CodeInvalidArgument, "Uploaded file too large")
		}
		return nil, "", xerrors.Wrap(xerrors.CodeInvalidArgument, err, "Invalid multipart form")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", xerrors.Wrap(xerrors.CodeInvalidArgument, err, "No file provided")
	}
	return file, header.Filename, nil
}
