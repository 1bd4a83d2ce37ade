package middleware

import (
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/pkg/server/framework"
)

// Errors handles errors coming out of the call stack. It detects safe application
// errors (aka SafeError) that are used to respond to the requester in a
// normalized way. Unexpected errors (status >= 500) are logged.
func Errors(shutdown chan os.Signal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		ginErrors := c.Errors.ByType(gin.ErrorTypeAny)
		if len(ginErrors) == 0 {
			return
		}

		// check if there's a shutdown-worthy error
		for _, e := range ginErrors {
			if framework.IsShutdown(e.Err) {
				logrus.WithError(e.Err).Error("shutdown error encountered")
				shutdown <- syscall.SIGTERM
				return
			}
		}

		// otherwise just log the errors and return to the caller
		logrus.Errorf("request errors: %v", ginErrors)
		c.JSON(-1, ginErrors)
	}
}
