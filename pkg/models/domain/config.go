package domain

// ApplicationConfig holds the credentials and token endpoint of one application, as stored
// in the secret store. The struct tags name the keys used by the store.
type ApplicationConfig struct {
	AccountID    string `json:"account_id" ini:"account_id" validate:"required"`
	ClientID     string `json:"client_id" ini:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" ini:"client_secret" validate:"required"`
	TokenURL     string `json:"iamaas_url" ini:"iamaas_url" validate:"required"`
	Scopes       string `json:"sgcp_iamaas_scopes" ini:"sgcp_iamaas_scopes" validate:"required"`
}
