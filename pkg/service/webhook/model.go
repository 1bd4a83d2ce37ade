package webhook

import (
	"net/url"
)

// In the context of webhooks, it's common to use noun.verb notation to describe events,
// such as "credential.create" or "credential.accept".
type Noun string
type Verb string

const (
	// Supported Nouns
	Credential = Noun("Credential")
	Payment    = Noun("Payment")

	// Supported Verbs
	Create = Verb("Create")
	Accept = Verb("Accept")
	Delete = Verb("Delete")
)

type Webhook struct {
	Noun Noun     `json:"noun" validate:"required"`
	Verb Verb     `json:"verb" validate:"required"`
	URLS []string `json:"urls" validate:"required"`
}

type Payload struct {
	Noun Noun   `json:"noun" validate:"required"`
	Verb Verb   `json:"verb" validate:"required"`
	URL  string `json:"url" validate:"required"`
	Data any    `json:"data,omitempty"`
}

type CreateWebhookRequest struct {
	Noun Noun   `json:"noun" validate:"required"`
	Verb Verb   `json:"verb" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

type CreateWebhookResponse struct {
	Webhook Webhook `json:"webhook"`
}

type GetWebhookRequest struct {
	Noun Noun `json:"noun" validate:"required"`
	Verb Verb `json:"verb" validate:"required"`
}

type GetWebhookResponse struct {
	Webhook Webhook `json:"webhook"`
}

type GetWebhooksResponse struct {
	Webhooks []Webhook `json:"webhooks,omitempty"`
}

type DeleteWebhookRequest struct {
	Noun Noun   `json:"noun" validate:"required"`
	Verb Verb   `json:"verb" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

type GetSupportedNounsResponse struct {
	Nouns []Noun `json:"nouns,omitempty"`
}

type GetSupportedVerbsResponse struct {
	Verbs []Verb `json:"verbs,omitempty"`
}

func (cwr DeleteWebhookRequest) IsValid() bool {
	return isValidNoun(cwr.Noun) && isValidVerb(cwr.Verb) && isValidURL(cwr.URL)
}

func (cwr CreateWebhookRequest) IsValid() bool {
	return isValidNoun(cwr.Noun) && isValidVerb(cwr.Verb) && isValidURL(cwr.URL)
}

func isValidNoun(noun Noun) bool {
	switch noun {
	case Credential, Payment:
		return true
	}
	return false
}

func isValidVerb(verb Verb) bool {
	switch verb {
	case Create, Accept, Delete:
		return true
	}
	return false
}

func isValidURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	return err == nil && parsedURL.Scheme != "" && parsedURL.Host != ""
}
