package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/ledgerworks/credential-service/pkg/server/framework"
	svcframework "github.com/ledgerworks/credential-service/pkg/service/framework"
	"github.com/ledgerworks/credential-service/pkg/service/webhook"
)

const (
	NounParam string = "noun"
	VerbParam string = "verb"
)

type WebhookRouter struct {
	service *webhook.Service
}

func NewWebhookRouter(s svcframework.Service) (*WebhookRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	webhookService, ok := s.(*webhook.Service)
	if !ok {
		return nil, fmt.Errorf("could not create webhook router with service type: %s", s.Type())
	}
	return &WebhookRouter{service: webhookService}, nil
}

type CreateWebhookRequest struct {
	Noun webhook.Noun `json:"noun" validate:"required" example:"Credential"`
	Verb webhook.Verb `json:"verb" validate:"required" example:"Create"`
	URL  string       `json:"url" validate:"required" example:"https://www.example.com/callback"`
}

type CreateWebhookResponse struct {
	Webhook webhook.Webhook `json:"webhook"`
}

// CreateWebhook godoc
//
// @Summary     Create Webhook
// @Description Create a webhook
// @Tags        WebhookAPI
// @Accept      json
// @Produce     json
// @Param       request body     CreateWebhookRequest true "request body"
// @Success     201     {object} CreateWebhookResponse
// @Failure     400     {string} string "Bad request"
// @Failure     500     {string} string "Internal server error"
// @Router      /v1/webhooks [put]
func (wr WebhookRouter) CreateWebhook(c *gin.Context) error {
	var request CreateWebhookRequest
	invalidCreateWebhookRequest := "invalid create webhook request"
	if err := framework.Decode(c.Request, &request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidCreateWebhookRequest, http.StatusBadRequest)
	}

	if err := framework.ValidateRequest(request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidCreateWebhookRequest, http.StatusBadRequest)
	}

	req := webhook.CreateWebhookRequest{Noun: request.Noun, Verb: request.Verb, URL: request.URL}
	createWebhookResponse, err := wr.service.CreateWebhook(c, req)
	if err != nil {
		errMsg := "could not create webhook"
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := CreateWebhookResponse{Webhook: createWebhookResponse.Webhook}
	return framework.Respond(c, resp, http.StatusCreated)
}

type GetWebhookResponse struct {
	Webhook webhook.Webhook `json:"webhook"`
}

// GetWebhook godoc
//
// @Summary     Get Webhook
// @Description Get a webhook by its noun and verb
// @Tags        WebhookAPI
// @Accept      json
// @Produce     json
// @Param       noun path     string true "Noun"
// @Param       verb path     string true "Verb"
// @Success     200 {object} GetWebhookResponse
// @Failure     400 {string} string "Bad request"
// @Router      /v1/webhooks/{noun}/{verb} [get]
func (wr WebhookRouter) GetWebhook(c *gin.Context) error {
	noun := framework.GetParam(c, NounParam)
	verb := framework.GetParam(c, VerbParam)
	if noun == nil || verb == nil {
		errMsg := "cannot get webhook without noun and verb parameters"
		return framework.LoggingRespondErrMsg(c, errMsg, http.StatusBadRequest)
	}

	gotWebhook, err := wr.service.GetWebhook(c, webhook.GetWebhookRequest{Noun: webhook.Noun(*noun), Verb: webhook.Verb(*verb)})
	if err != nil {
		errMsg := fmt.Sprintf("could not get webhook for: %s.%s", *noun, *verb)
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusBadRequest)
	}

	resp := GetWebhookResponse{Webhook: gotWebhook.Webhook}
	return framework.Respond(c, resp, http.StatusOK)
}

type GetWebhooksResponse struct {
	Webhooks []webhook.Webhook `json:"webhooks,omitempty"`
}

// GetWebhooks godoc
//
// @Summary     Get Webhooks
// @Description Get all webhooks
// @Tags        WebhookAPI
// @Accept      json
// @Produce     json
// @Success     200 {object} GetWebhooksResponse
// @Failure     500 {string} string "Internal server error"
// @Router      /v1/webhooks [get]
func (wr WebhookRouter) GetWebhooks(c *gin.Context) error {
	gotWebhooks, err := wr.service.GetWebhooks(c)
	if err != nil {
		errMsg := "could not get webhooks"
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	resp := GetWebhooksResponse{Webhooks: gotWebhooks.Webhooks}
	return framework.Respond(c, resp, http.StatusOK)
}

type DeleteWebhookRequest struct {
	Noun webhook.Noun `json:"noun" validate:"required" example:"Credential"`
	Verb webhook.Verb `json:"verb" validate:"required" example:"Create"`
	URL  string       `json:"url" validate:"required" example:"https://www.example.com/callback"`
}

// DeleteWebhook godoc
//
// @Summary     Delete Webhook
// @Description Delete a webhook subscription
// @Tags        WebhookAPI
// @Accept      json
// @Produce     json
// @Param       request body DeleteWebhookRequest true "request body"
// @Success     204
// @Failure     400 {string} string "Bad request"
// @Failure     500 {string} string "Internal server error"
// @Router      /v1/webhooks [delete]
func (wr WebhookRouter) DeleteWebhook(c *gin.Context) error {
	var request DeleteWebhookRequest
	invalidDeleteWebhookRequest := "invalid delete webhook request"
	if err := framework.Decode(c.Request, &request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidDeleteWebhookRequest, http.StatusBadRequest)
	}

	if err := framework.ValidateRequest(request); err != nil {
		return framework.LoggingRespondErrWithMsg(c, err, invalidDeleteWebhookRequest, http.StatusBadRequest)
	}

	req := webhook.DeleteWebhookRequest{Noun: request.Noun, Verb: request.Verb, URL: request.URL}
	if err := wr.service.DeleteWebhook(c, req); err != nil {
		errMsg := fmt.Sprintf("could not delete webhook for: %s.%s", request.Noun, request.Verb)
		return framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
	}

	return framework.Respond(c, nil, http.StatusNoContent)
}

// GetSupportedNouns godoc
//
// @Summary     Get Supported Nouns
// @Description Get the nouns that may be subscribed to
// @Tags        WebhookAPI
// @Accept      json
// @Produce     json
// @Success     200 {object} webhook.GetSupportedNounsResponse
// @Router      /v1/webhooks/nouns [get]
func (wr WebhookRouter) GetSupportedNouns(c *gin.Context) error {
	return framework.Respond(c, wr.service.GetSupportedNouns(), http.StatusOK)
}

// GetSupportedVerbs godoc
//
// @Summary     Get Supported Verbs
// @Description Get the verbs that may be subscribed to
// @Tags        WebhookAPI
// @Accept      json
// @Produce     json
// @Success     200 {object} webhook.GetSupportedVerbsResponse
// @Router      /v1/webhooks/verbs [get]
func (wr WebhookRouter) GetSupportedVerbs(c *gin.Context) error {
	return framework.Respond(c, wr.service.GetSupportedVerbs(), http.StatusOK)
}
