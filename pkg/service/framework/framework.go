package framework

type (
	Type        string
	StatusState string
)

const (
	// List of all service

	KeyStore   Type = "keystore"
	Ledger     Type = "ledger"
	Wallet     Type = "wallet"
	Credential Type = "credential"
	Webhook    Type = "webhook"

	StatusReady    StatusState = "ready"
	StatusNotReady StatusState = "not_ready"
)

// Status is for service reporting on their status
type Status struct {
	Status  StatusState `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (s Status) IsReady() bool {
	return s.Status == StatusReady
}

// Service is an interface each service must comply with to be registered and orchestrated by the server.
type Service interface {
	Type() Type
	Status() Status
}
