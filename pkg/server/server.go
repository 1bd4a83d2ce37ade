// Package server contains the full set of handler functions and routes
// supported by the http api
package server

import (
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/config"
	"github.com/ledgerworks/credential-service/internal/util"
	"github.com/ledgerworks/credential-service/pkg/server/framework"
	"github.com/ledgerworks/credential-service/pkg/server/middleware"
	"github.com/ledgerworks/credential-service/pkg/server/router"
	"github.com/ledgerworks/credential-service/pkg/service"
	svcframework "github.com/ledgerworks/credential-service/pkg/service/framework"
	"github.com/ledgerworks/credential-service/pkg/service/webhook"
)

const (
	HealthPrefix      = "/health"
	ReadinessPrefix   = "/readiness"
	SwaggerPrefix     = "/swagger/*any"
	V1Prefix          = "/v1"
	CredentialsPrefix = "/credentials"
	IssuerPath        = "/issuer"
	AcceptPath        = "/accept"
	PayloadsPrefix    = "/payloads"
	IssuancesPrefix   = "/issuances"
	AccountsPrefix    = "/accounts"
	WebhookPrefix     = "/webhooks"
	NounsPath         = "/nouns"
	VerbsPath         = "/verbs"
)

// CredentialServer exposes all dependencies needed to run a http server and all its services
type CredentialServer struct {
	*config.ServerConfig
	*service.CredentialService
	*framework.Server
}

// NewCredentialServer does two things: instantiates all services and registers their HTTP bindings
func NewCredentialServer(shutdown chan os.Signal, cfg config.CredentialServiceConfig) (*CredentialServer, error) {
	// creates an HTTP server from the framework, and wrap it to extend it for the credential service
	engine := setUpEngine(cfg.Server, shutdown)
	httpServer := framework.NewServer(cfg.Server, engine, shutdown)
	svc, err := service.InstantiateCredentialService(cfg.Services)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "unable to instantiate credential service")
	}

	// service-level routers
	engine.GET(HealthPrefix, router.Health)
	engine.GET(ReadinessPrefix, router.Readiness(svc.GetServices()))
	engine.GET(SwaggerPrefix, router.Swagger)

	// register all v1 routers
	if err = CredentialAPI(httpServer, svc.Credential, svc.Webhook); err != nil {
		return nil, util.LoggingErrorMsg(err, "unable to instantiate Credential API")
	}
	if err = WebhookAPI(httpServer, svc.Webhook); err != nil {
		return nil, util.LoggingErrorMsg(err, "unable to instantiate Webhook API")
	}

	return &CredentialServer{
		Server:            httpServer,
		CredentialService: svc,
		ServerConfig:      &cfg.Server,
	}, nil
}

// setUpEngine creates the gin engine and sets up the middleware based on config
func setUpEngine(cfg config.ServerConfig, shutdown chan os.Signal) *gin.Engine {
	middlewares := gin.HandlersChain{
		gin.Recovery(),
		middleware.Errors(shutdown),
		middleware.Logger(logrus.StandardLogger()),
		middleware.Metrics(),
	}
	if cfg.EnableAllowAllCORS {
		middlewares = append(middlewares, middleware.CORS())
	}

	// set up engine and middleware
	engine := gin.New()
	engine.Use(middlewares...)

	switch cfg.Environment {
	case config.EnvironmentDev:
		gin.SetMode(gin.DebugMode)
	case config.EnvironmentTest:
		gin.SetMode(gin.TestMode)
	case config.EnvironmentProd:
		gin.SetMode(gin.ReleaseMode)
	}
	return engine
}

// CredentialAPI registers all HTTP routes for the Credential Service
func CredentialAPI(s *framework.Server, service svcframework.Service, webhookService *webhook.Service) (err error) {
	credRouter, err := router.NewCredentialRouter(service)
	if err != nil {
		return util.LoggingErrorMsg(err, "creating credential router")
	}

	credentialPath := path.Join(V1Prefix, CredentialsPrefix)
	s.Handle(http.MethodGet, path.Join(credentialPath, IssuerPath), credRouter.GetIssuer)
	s.Handle(http.MethodPut, credentialPath, credRouter.IssueCredential, middleware.Webhook(webhookService, webhook.Credential, webhook.Create))
	s.Handle(http.MethodPut, path.Join(credentialPath, AcceptPath), credRouter.CreateAcceptPayload, middleware.Webhook(webhookService, webhook.Credential, webhook.Accept))
	s.Handle(http.MethodGet, path.Join(credentialPath, PayloadsPrefix, ":id"), credRouter.GetPayloadStatus)
	s.Handle(http.MethodGet, path.Join(credentialPath, IssuancesPrefix), credRouter.ListIssuances)
	s.Handle(http.MethodGet, path.Join(credentialPath, AccountsPrefix, ":address"), credRouter.ListCredentials)
	s.Handle(http.MethodGet, path.Join(credentialPath, AccountsPrefix, ":address/:credentialType/:issuer"), credRouter.GetCredential)
	return
}

// WebhookAPI registers all HTTP routes for the Webhook Service
func WebhookAPI(s *framework.Server, service svcframework.Service) (err error) {
	webhookRouter, err := router.NewWebhookRouter(service)
	if err != nil {
		return util.LoggingErrorMsg(err, "creating webhook router")
	}

	webhookPath := path.Join(V1Prefix, WebhookPrefix)
	s.Handle(http.MethodPut, webhookPath, webhookRouter.CreateWebhook)
	s.Handle(http.MethodGet, webhookPath, webhookRouter.GetWebhooks)
	s.Handle(http.MethodDelete, webhookPath, webhookRouter.DeleteWebhook)
	s.Handle(http.MethodGet, path.Join(webhookPath, NounsPath), webhookRouter.GetSupportedNouns)
	s.Handle(http.MethodGet, path.Join(webhookPath, VerbsPath), webhookRouter.GetSupportedVerbs)
	s.Handle(http.MethodGet, path.Join(webhookPath, ":noun", ":verb"), webhookRouter.GetWebhook)
	return
}
