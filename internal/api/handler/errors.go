package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/BlueStarAcademy/sudampvp/internal/api/apierr"
)

// maxBodySize caps request bodies; the largest is a base placement list
const maxBodySize = 64 << 10

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeBody reads a JSON body into v. An empty body is accepted only when
// optional is set, leaving v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewInvalidRequestError("request body too large")
		}
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}
