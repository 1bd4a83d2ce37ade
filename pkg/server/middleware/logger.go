package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/pkg/server/framework"
)

// Logger installs per-request state and logs request info before and after a
// handler runs in the following format:
//
//	TraceID : (StatusCode) HTTPMethod Path -> IPAddr (latency)
//	e.g. 12345 : (200) GET /users/1 -> 192.168.1.0 (4ms)
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestState := framework.RequestState{
			TraceID: uuid.NewString(),
			Now:     time.Now(),
		}
		c.Set(framework.KeyRequestState.String(), &requestState)

		log.Debugf("%s : started : %s %s -> %s",
			requestState.TraceID,
			c.Request.Method, c.Request.URL.Path, c.Request.RemoteAddr,
		)

		c.Next()

		log.Infof("%s : completed : %s %s -> %s (%d) (%s)",
			requestState.TraceID,
			c.Request.Method, c.Request.URL.Path, c.Request.RemoteAddr,
			c.Writer.Status(), time.Since(requestState.Now),
		)
	}
}
