package framework

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Respond convert a Go value to JSON and sends it to the client.
func Respond(c *gin.Context, data any, statusCode int) error {
	// record the status code within the request state when the logger
	// middleware has installed one
	if v, ok := c.Value(KeyRequestState.String()).(*RequestState); ok {
		v.StatusCode = statusCode
	}

	// if there's no payload to marshal, set the status code of the response and return
	if statusCode == http.StatusNoContent {
		c.Status(statusCode)
		return nil
	}

	// respond with pretty JSON
	c.IndentedJSON(statusCode, data)
	return nil
}

// RespondError sends an error response back to the client. If the error is a `SafeError`,
// the error message and fields are sent back to the client. If the error is not a
// `SafeError`, a generic error message is sent back to the client.
func RespondError(c *gin.Context, err error) {
	// if the cause of the error provided is a `SafeError`, construct an ErrorResponse
	// using the contents of SafeError and send it back to the client
	var webErr *SafeError
	if ok := errors.As(errors.Cause(err), &webErr); ok {
		er := ErrorResponse{
			Error:  webErr.Err.Error(),
			Fields: webErr.Fields,
		}
		_ = Respond(c, er, webErr.StatusCode)
		return
	}

	// if the error isn't a `SafeError`, it's not safe to send back the error
	// message as is because it may contain sensitive data. Send back a generic
	// 500.
	er := ErrorResponse{
		Error: http.StatusText(http.StatusInternalServerError),
	}

	_ = Respond(c, er, http.StatusInternalServerError)
}

// LoggingRespondError logs an error and responds to the client with it and the given status code.
func LoggingRespondError(c *gin.Context, err error, statusCode int) error {
	logrus.WithError(err).Error()
	RespondError(c, NewRequestError(err, statusCode))
	return nil
}

// LoggingRespondErrMsg logs an error message and responds to the client with it and the given status code.
func LoggingRespondErrMsg(c *gin.Context, errMsg string, statusCode int) error {
	return LoggingRespondError(c, errors.New(errMsg), statusCode)
}

// LoggingRespondErrWithMsg logs and responds with the given error wrapped with a message.
func LoggingRespondErrWithMsg(c *gin.Context, err error, errMsg string, statusCode int) error {
	return LoggingRespondError(c, errors.Wrap(err, errMsg), statusCode)
}
