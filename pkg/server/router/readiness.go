package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerworks/credential-service/pkg/server/framework"
	svcframework "github.com/ledgerworks/credential-service/pkg/service/framework"
)

type GetReadinessResponse struct {
	// Overall status of the service and all its subservices.
	Status svcframework.Status `json:"status"`

	// A map from each service name to the status of that current service.
	ServiceStatuses map[svcframework.Type]svcframework.Status `json:"serviceStatuses"`
}

// Readiness runs a number of application specific checks to see if all the
// relied upon services are healthy. Should return a 500 if not ready.
//
// @Summary     Readiness
// @Description Readiness of the service and its subservices
// @Tags        Readiness
// @Accept      json
// @Produce     json
// @Success     200 {object} GetReadinessResponse
// @Router      /readiness [get]
func Readiness(services []svcframework.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		numServices := len(services)
		readyServices := 0
		statuses := make(map[svcframework.Type]svcframework.Status)
		for _, s := range services {
			status := s.Status()
			statuses[s.Type()] = status
			if status.Status == svcframework.StatusReady {
				readyServices++
			}
		}

		var status svcframework.Status
		if readyServices < numServices {
			status = svcframework.Status{
				Status:  svcframework.StatusNotReady,
				Message: fmt.Sprintf("out of [%d] services, [%d] are ready", numServices, readyServices),
			}
		} else {
			status = svcframework.Status{
				Status:  svcframework.StatusReady,
				Message: "all services ready",
			}
		}
		response := GetReadinessResponse{
			Status:          status,
			ServiceStatuses: statuses,
		}
		_ = framework.Respond(c, response, http.StatusOK)
	}
}
