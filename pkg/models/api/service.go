package api

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

type Health struct {
	Status         string `json:"status"`
	VaultConnected bool   `json:"vault_connected"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

type Applications struct {
	Apps  []string `json:"apps"`
	Count int      `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
