package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	xerrors "OxyGent-Console/internal/errors"
)

var errEmptyBody = xerrors.New(xerrors.CodeInvalidArgument, "Request body is required")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON 解析请求体。未知字段会被忽略，null 字段等同于未提供。
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return xerrors.New(xerrors.CodeInvalidArgument, "Request body too large")
		}
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "Failed to read request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "Invalid JSON body: "+err.Error())
	}
	return nil
}

// decodeOptionalJSON 与 decodeJSON 相同，但允许空请求体。
func decodeOptionalJSON(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil && err != errEmptyBody {
		return err
	}
	return nil
}
