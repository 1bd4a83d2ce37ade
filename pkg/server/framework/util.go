package framework

import (
	"bytes"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// PeekRequestBody reads a request's body without emptying the buffer
func PeekRequestBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return "", errors.Wrap(err, "could not read request body")
	}
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	return string(bodyBytes), nil
}
