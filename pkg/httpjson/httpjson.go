// Package httpjson holds the JSON request/response helpers shared by the handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

const maxBody = 1 << 20

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes err as the error envelope. Internal failures are logged first,
// since the response hides their cause.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if apperr.From(err).Kind() == apperr.KindInternal {
		log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
	apperr.WriteHTTP(w, err)
}

// Decode reads a single JSON object into v. Malformed bodies map to INVALID_ARGUMENT.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.CodeInvalidArgument, "request body is required")
		}
		return apperr.Newf(apperr.CodeInvalidArgument, "invalid body: %v", err)
	}
	return nil
}
