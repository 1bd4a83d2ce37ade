package util

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LoggingErrorMsg logs an error with a message and returns the wrapped error.
func LoggingErrorMsg(err error, msg string) error {
	logrus.WithError(err).Error(SanitizeLog(msg))
	return errors.Wrap(err, msg)
}

// LoggingErrorMsgf logs an error with a formatted message and returns the wrapped error.
func LoggingErrorMsgf(err error, msg string, args ...any) error {
	formatted := fmt.Sprintf(msg, args...)
	return LoggingErrorMsg(err, formatted)
}

// LoggingNewError creates, logs, and returns a new error.
func LoggingNewError(msg string) error {
	err := errors.New(msg)
	logrus.Error(SanitizeLog(msg))
	return err
}

// LoggingNewErrorf creates, logs, and returns a new formatted error.
func LoggingNewErrorf(msg string, args ...any) error {
	return LoggingNewError(fmt.Sprintf(msg, args...))
}

// AppendError accumulates error strings, useful for status reporting.
type AppendError struct {
	errs []string
}

func NewAppendError() *AppendError {
	return &AppendError{}
}

func (a *AppendError) AppendString(s string) {
	a.errs = append(a.errs, s)
}

func (a *AppendError) IsEmpty() bool {
	return len(a.errs) == 0
}

func (a *AppendError) Error() error {
	if a.IsEmpty() {
		return nil
	}
	return errors.New(strings.Join(a.errs, "; "))
}

// SanitizeLog prevents certain classes of injection attacks before logging
// https://codeql.github.com/codeql-query-help/go/go-log-injection/
func SanitizeLog(log string) string {
	escapedLog := strings.ReplaceAll(log, "\n", "")
	return strings.ReplaceAll(escapedLog, "\r", "")
}

// Is2xxResponse returns true if the given status code is a 2xx response
func Is2xxResponse(statusCode int) bool {
	return statusCode/100 == 2
}
